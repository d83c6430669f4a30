package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrUnauthorized matches any *Error carrying a 401 status.
var ErrUnauthorized = errors.New("api: authentication rejected")

// Error is a non-2xx answer from the storefront API.
type Error struct {
	StatusCode int
	Message    string // payload "error" field, may be empty
	Details    string
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Details != "":
		return fmt.Sprintf("API %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	case e.Message != "":
		return fmt.Sprintf("API %d: %s", e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("API %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Message returns the human-readable payload message carried by err, or
// fallback when err has none (network failures, timeouts, empty payloads).
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

type errorPayload struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	apiErr := &Error{StatusCode: resp.StatusCode}
	var payload errorPayload
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Message = payload.Error
		apiErr.Details = payload.Details
	} else if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 {
		apiErr.Details = s
	}
	return apiErr
}
