package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/me/authkit/pkg/model"
)

// HTTPError is returned for any non-2xx response.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       []byte

	// Server is the decoded error body. It is nil when the body is empty or
	// is not a JSON object.
	Server *model.ServerError
}

func newHTTPError(method, path string, status int, body []byte) *HTTPError {
	e := &HTTPError{Method: method, Path: path, StatusCode: status, Body: body}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var se model.ServerError
		if err := json.Unmarshal(trimmed, &se); err == nil {
			e.Server = &se
		}
	}
	return e
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e.Server != nil && e.Server.Message != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Server.Message)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

// Code returns the server-supplied error code, or "" when there is none.
func (e *HTTPError) Code() string {
	if e.Server == nil {
		return ""
	}
	return e.Server.Message
}

// StatusCode returns the HTTP status of err, or 0 if err is not an *HTTPError.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.StatusCode
	}
	return 0
}
