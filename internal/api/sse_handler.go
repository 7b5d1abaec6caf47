package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ms-reservation/internal/logger"
	"ms-reservation/internal/sse"
)

// SSEHandler streams a venue's reservation events to its owner dashboard.
type SSEHandler struct {
	Logger       *logger.Logger
	EventEmitter *sse.VenueEventEmitter
}

func NewSSEHandler(log *logger.Logger, emitter *sse.VenueEventEmitter) *SSEHandler {
	return &SSEHandler{Logger: log, EventEmitter: emitter}
}

func (h *SSEHandler) Stream(w http.ResponseWriter, r *http.Request) {
	venueID, err := venueIDParam(r)
	if err != nil {
		writeError(w, h.Logger, "SSE", err)
		return
	}
	if _, err := requireVenueOwner(r, venueID); err != nil {
		writeError(w, h.Logger, "SSE", err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h.setupSSEHeaders(w)

	ctx := r.Context()
	eventChan := h.EventEmitter.Subscribe(ctx, venueID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"restaurantId\":%d}\n\n", venueID)
	flusher.Flush()

	h.Logger.Info("SSE", fmt.Sprintf("Client connected to reservation events for restaurant %d (%d listening)", venueID, h.EventEmitter.ClientCount(venueID)))

	for {
		select {
		case evt, ok := <-eventChan:
			if !ok {
				h.Logger.Debug("SSE", fmt.Sprintf("Channel closed for restaurant %d", venueID))
				return
			}

			jsonData, err := json.Marshal(evt)
			if err != nil {
				h.Logger.Error("SSE", fmt.Sprintf("Failed to serialize reservation event: %v", err))
				continue
			}

			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, jsonData)
			flusher.Flush()

		case <-ctx.Done():
			h.Logger.Debug("SSE", fmt.Sprintf("Client disconnected from restaurant %d", venueID))
			return
		}
	}
}

func (h *SSEHandler) setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
