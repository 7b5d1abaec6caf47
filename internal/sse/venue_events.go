package sse

import (
	"context"
	"sync"

	"ms-reservation/internal/models"
)

// VenueEventEmitter fans reservation events out to live dashboard
// subscribers. Subscribers register per venue; broadcast events (venue 0,
// such as the day rollover) reach every subscriber.
type VenueEventEmitter struct {
	clients     map[int64][]chan models.ReservationEvent
	clientMutex sync.RWMutex
}

func NewVenueEventEmitter() *VenueEventEmitter {
	return &VenueEventEmitter{
		clients: make(map[int64][]chan models.ReservationEvent),
	}
}

// Subscribe registers a client for venueID until ctx is done. The returned
// channel is closed on unsubscribe.
func (e *VenueEventEmitter) Subscribe(ctx context.Context, venueID int64) chan models.ReservationEvent {
	clientChan := make(chan models.ReservationEvent, 10)

	e.clientMutex.Lock()
	e.clients[venueID] = append(e.clients[venueID], clientChan)
	e.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		e.removeClient(venueID, clientChan)
	}()

	return clientChan
}

// Emit delivers evt without blocking; a client with a full buffer misses it.
func (e *VenueEventEmitter) Emit(evt models.ReservationEvent) {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()

	if evt.VenueID == 0 {
		for _, clients := range e.clients {
			send(clients, evt)
		}
		return
	}
	send(e.clients[evt.VenueID], evt)
}

func send(clients []chan models.ReservationEvent, evt models.ReservationEvent) {
	for _, clientChan := range clients {
		select {
		case clientChan <- evt:
		default:
		}
	}
}

// PublishReservationEvent lets the emitter sit behind the booking publisher.
func (e *VenueEventEmitter) PublishReservationEvent(ctx context.Context, evt models.ReservationEvent) error {
	e.Emit(evt)
	return nil
}

func (e *VenueEventEmitter) removeClient(venueID int64, clientChan chan models.ReservationEvent) {
	e.clientMutex.Lock()
	defer e.clientMutex.Unlock()

	clients := e.clients[venueID]
	for i, ch := range clients {
		if ch == clientChan {
			e.clients[venueID] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(e.clients[venueID]) == 0 {
		delete(e.clients, venueID)
	}
}

// ClientCount returns the number of clients currently subscribed to venueID.
func (e *VenueEventEmitter) ClientCount(venueID int64) int {
	e.clientMutex.RLock()
	defer e.clientMutex.RUnlock()
	return len(e.clients[venueID])
}
