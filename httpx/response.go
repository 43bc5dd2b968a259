// Package httpx writes the JSON envelopes returned by the payroll API.
// Every body carries "status": "success" or "error".
package httpx

import (
	"encoding/json"
	"net/http"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ErrorResponse is the body of every failed call.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Ack is the body of calls that return nothing else.
type Ack struct {
	Status string `json:"status"`
}

// JSON encodes payload with the given status code.
func JSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		body, _ = json.Marshal(ErrorResponse{Status: StatusError, Message: "encode_error"})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes an error envelope.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, ErrorResponse{Status: StatusError, Message: msg})
}

// OK writes {"status":"success"}.
func OK(w http.ResponseWriter) {
	JSON(w, http.StatusOK, Ack{Status: StatusSuccess})
}
