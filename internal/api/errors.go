package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/me/clinic/pkg/model"
)

// ErrSessionInvalid is returned (joined with the HTTPError) when the backend
// rejects the session token. Subscribers registered with OnSessionInvalid
// have already run by the time the caller sees it.
var ErrSessionInvalid = errors.New("session is no longer valid")

// maxMessageLen caps how much of a non-JSON error body is surfaced.
const maxMessageLen = 512

// HTTPError is a non-2xx backend response.
type HTTPError struct {
	StatusCode int
	// Message is the backend's error payload when present, else a generic
	// description of the status.
	Message string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsSessionInvalid reports whether err came from a rejected session token.
func IsSessionInvalid(err error) bool {
	return errors.Is(err, ErrSessionInvalid)
}

// IsAuthError reports whether err is an authentication or authorization failure.
func IsAuthError(err error) bool {
	if IsSessionInvalid(err) {
		return true
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusUnauthorized || he.StatusCode == http.StatusForbidden
	}
	return false
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var he *HTTPError
	return errors.As(err, &he) && he.StatusCode == http.StatusNotFound
}

// Message returns the backend's human-readable message for err, or fallback
// when err carries none (transport failures, for example).
func Message(err error, fallback string) string {
	var he *HTTPError
	if errors.As(err, &he) && he.Message != "" {
		return he.Message
	}
	return fallback
}

// messageFromBody extracts the error payload. The backend answers with a
// bare string ("Invalid password"), a JSON string, or a JSON object with a
// message or error field. Field details of a validation error are appended.
func messageFromBody(status int, body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return genericMessage(status)
	}

	var s string
	if json.Unmarshal(body, &s) == nil {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
		return genericMessage(status)
	}

	var apiErr model.APIError
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" && len(apiErr.Details) > 0 {
		parts := make([]string, 0, len(apiErr.Details))
		for _, d := range apiErr.Details {
			parts = append(parts, strings.TrimSpace(d.Field+" "+d.Message))
		}
		return apiErr.Message + ": " + strings.Join(parts, "; ")
	}

	var obj map[string]any
	if json.Unmarshal(body, &obj) == nil {
		for _, key := range []string{"message", "error"} {
			if v, ok := obj[key].(string); ok && v != "" {
				return v
			}
		}
		if nested, ok := obj["error"].(map[string]any); ok {
			if v, ok := nested["message"].(string); ok && v != "" {
				return v
			}
		}
		return genericMessage(status)
	}

	if len(text) > maxMessageLen {
		text = text[:maxMessageLen] + "..."
	}
	return text
}

func genericMessage(status int) string {
	if t := http.StatusText(status); t != "" {
		return "request failed: " + strings.ToLower(t)
	}
	return fmt.Sprintf("request failed with status %d", status)
}
