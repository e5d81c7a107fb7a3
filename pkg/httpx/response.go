package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

const maxBodyBytes = 1 << 20

var errTrailingData = errors.New("unexpected data after JSON body")

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error      string            `json:"error"`
	StatusCode int               `json:"status_code"`
	Timestamp  string            `json:"timestamp"`
	Message    string            `json:"message,omitempty"`
	Details    map[string]string `json:"details,omitempty"`
}

// MessageResponse is returned by operations with nothing else to report.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes v as JSON with the given status code. Responses are never
// cacheable since most of them carry tokens or account data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache sets headers that prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// WriteError writes the standard error body.
func WriteError(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, newError(code, message))
}

// WriteValidationError writes a 422 with per-field reasons.
func WriteValidationError(w http.ResponseWriter, details map[string]string) {
	body := newError(http.StatusUnprocessableEntity, "Validation failed")
	body.Details = details
	WriteJSON(w, http.StatusUnprocessableEntity, body)
}

// WriteInternalError writes the generic 500 body. Details belong in the
// server log, never in the response.
func WriteInternalError(w http.ResponseWriter) {
	body := newError(http.StatusInternalServerError, "Internal server error")
	body.Message = "An unexpected error occurred"
	WriteJSON(w, http.StatusInternalServerError, body)
}

// WriteMessage writes a 200 {"message": ...}.
func WriteMessage(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, MessageResponse{Message: message})
}

func newError(code int, message string) ErrorResponse {
	return ErrorResponse{
		Error:      message,
		StatusCode: code,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
}

// DecodeJSON decodes a request body into v, rejecting unknown fields and
// trailing data.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}
