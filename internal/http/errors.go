// Package httpapi exposes the HTTP API layer of the service.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// jsonMessage is the payload for errors and confirmations.
type jsonMessage struct {
	Message string `json:"message"`
}

// WriteJSONError writes a {message} payload with the given status code.
func WriteJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, jsonMessage{Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
