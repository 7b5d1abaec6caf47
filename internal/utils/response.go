package utils

import (
	"net/http"
	"reflect"
	"time"
)

// APIResponse is the envelope every JSON endpoint writes. Count is set for
// list payloads.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Count     *int        `json:"count,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	resp := APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
	if v := reflect.ValueOf(data); v.Kind() == reflect.Slice {
		n := v.Len()
		resp.Count = &n
	}
	return resp
}

// ErrorResponse uses the status text as the message and detail as the error.
func ErrorResponse(status int, detail string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   http.StatusText(status),
		Error:     detail,
		Timestamp: time.Now().UTC(),
	}
}
