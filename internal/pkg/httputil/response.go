package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// Envelope is the standard success/failure envelope returned by every form
// endpoint. Detail stays in server logs; clients only get the message.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message"`
	IDs     map[string]string `json:"ids,omitempty"`
}

// ErrorResponse is the standard error envelope for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// JSON writes a JSON response with the given status code. The data is
// serialized and Content-Type is set automatically.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[httputil] JSON encode error: %v", err)
	}
}

// OK writes a 200 response with the given data.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// Created writes a 201 response with the given data.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// Error writes a JSON error response. Use for client errors (4xx).
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// Failure writes the generic form-endpoint failure envelope. The message is
// intentionally generic: granular diagnostics belong in server logs only.
func Failure(w http.ResponseWriter, status int, message string) {
	JSON(w, status, Envelope{Success: false, Message: message})
}

// Success writes the form-endpoint success envelope with any created ids.
func Success(w http.ResponseWriter, message string, ids map[string]string) {
	JSON(w, http.StatusOK, Envelope{Success: true, Message: message, IDs: ids})
}
