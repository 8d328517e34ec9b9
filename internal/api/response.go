package api

import (
	"encoding/json"
	"net/http"
)

// errorBody mirrors the chat success shape: every failure response carries an
// explicit success=false next to the message.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(status)
	if data == nil || status == http.StatusNoContent {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, errorBody{Success: false, Error: message})
}
