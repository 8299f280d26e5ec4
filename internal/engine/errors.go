package engine

import (
	"encoding/json"
	"fmt"
)

// APIError reports a non-2xx engine response. Code carries the engine's
// {"error": "..."} body when present.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Code       string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Code)
	}
	return fmt.Sprintf("api %s %s returned status %d", e.Method, e.Path, e.StatusCode)
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	apiErr := &APIError{Method: method, Path: path, StatusCode: status}
	var payload struct {
		Error string `json:"error"`
	}
	if len(body) > 0 && json.Unmarshal(body, &payload) == nil {
		apiErr.Code = payload.Error
	}
	return apiErr
}
