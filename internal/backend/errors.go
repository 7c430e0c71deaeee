package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fboessen22/jobdash/internal/protocol"
)

// HTTPError is a non-200 reply from the backend. Message carries the
// backend's {"error": ...} text when the body had one.
type HTTPError struct {
	Endpoint   string
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s rejected: status=%d error=%s", e.Endpoint, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s rejected: status=%d body=%s", e.Endpoint, e.StatusCode, e.Body)
}

func newHTTPError(endpoint string, status int, body []byte) *HTTPError {
	body = bytes.TrimSpace(body)
	herr := &HTTPError{Endpoint: endpoint, StatusCode: status, Body: string(body)}
	var payload protocol.ErrorResponse
	if json.Unmarshal(body, &payload) == nil {
		herr.Message = payload.Error
	}
	return herr
}
