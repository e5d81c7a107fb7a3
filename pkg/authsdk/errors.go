package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the service.
type APIError struct {
	// StatusCode is the HTTP status code
	StatusCode int

	// Message is the service's error message (e.g., "Invite code expired")
	Message string

	// Timestamp is when the service produced the error (RFC3339)
	Timestamp string

	// Details maps fields to reasons for validation failures
	Details map[string]string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("authsdk: %d %s", e.StatusCode, e.Message)
	}
	parts := make([]string, 0, len(e.Details))
	for field, reason := range e.Details {
		parts = append(parts, field+": "+reason)
	}
	return fmt.Sprintf("authsdk: %d %s (%s)", e.StatusCode, e.Message, strings.Join(parts, "; "))
}

// IsStatus reports whether err is an *APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// IsUnauthorized reports a 401 from the service.
func IsUnauthorized(err error) bool { return IsStatus(err, http.StatusUnauthorized) }

// IsForbidden reports a 403 from the service.
func IsForbidden(err error) bool { return IsStatus(err, http.StatusForbidden) }

// parseErrorResponse builds an *APIError from a non-2xx response. Bodies
// that are not the service's JSON shape (e.g., from a proxy) are kept as
// the message verbatim.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		apiErr.Message = errResp.Error
		apiErr.Timestamp = errResp.Timestamp
		apiErr.Details = errResp.Details
		return apiErr
	}

	apiErr.Message = strings.TrimSpace(string(body))
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(resp.StatusCode)
	}
	return apiErr
}
