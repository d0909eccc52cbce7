package http

import (
	"encoding/json"
	"net/http"
)

// ListResponse wraps a list of items (non-paginated)
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

// CountResponse carries an unread badge or an update count.
type CountResponse struct {
	Count int64 `json:"count"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// The header is already sent; an encode failure means the client went away.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteCreated writes a created response
func WriteCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteAccepted writes an accepted response for work handed to the queue
func WriteAccepted(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusAccepted, data)
}

// WriteList writes a simple list response
func WriteList[T any](w http.ResponseWriter, data []T) {
	if data == nil {
		data = []T{}
	}
	response := ListResponse[T]{
		Data:  data,
		Count: len(data),
	}

	WriteJSON(w, http.StatusOK, response)
}

// WriteCount writes a single count
func WriteCount(w http.ResponseWriter, count int64) {
	WriteJSON(w, http.StatusOK, CountResponse{Count: count})
}
