package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrEmptyResponse = errors.New("empty response")

const maxErrorBody = 500

// APIError is a failed upstream call. Message holds the provider's error
// message when the response body carried one, otherwise the raw body.
type APIError struct {
	StatusCode int
	Code       string
	Type       string
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		msg = fmt.Sprintf("%s (code: %s)", msg, e.Code)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%d %s", e.StatusCode, msg)
	}
	return msg
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// newStatusError builds an APIError for a non-2xx response.
func newStatusError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		Error struct {
			Message string          `json:"message"`
			Type    string          `json:"type"`
			Code    json.RawMessage `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		apiErr.Type = payload.Error.Type
		apiErr.Code = strings.Trim(string(payload.Error.Code), `"`)
		if apiErr.Code == "null" {
			apiErr.Code = ""
		}
		return apiErr
	}

	raw := strings.TrimSpace(string(body))
	if len(raw) > maxErrorBody {
		raw = raw[:maxErrorBody] + "..."
	}
	if raw == "" {
		raw = fmt.Sprintf("HTTP request failed with status code: %d", status)
	}
	apiErr.Message = raw
	return apiErr
}
