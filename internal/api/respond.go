package api

import (
	"encoding/json"
	"net/http"
)

// Envelope matches the wire shape clients already consume:
// {"status": "success"|"error", "message": ..., "data": {...}}.
// The code field is a stable machine-readable slug for errors.
type Envelope struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, httpStatus int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, httpStatus int, message string, data any) {
	writeJSON(w, httpStatus, Envelope{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

func writeError(w http.ResponseWriter, httpStatus int, code, message string) {
	writeJSON(w, httpStatus, Envelope{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}
