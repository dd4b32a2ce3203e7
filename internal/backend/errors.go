package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrTransport wraps failures where no HTTP response was received.
	ErrTransport = errors.New("upstream unreachable")
	// ErrDecode marks a 2xx response whose body could not be decoded.
	ErrDecode = errors.New("upstream returned an unreadable body")
)

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Status  int
	Message string
	// HasBody is false when the response carried no usable JSON error body.
	HasBody bool
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Message)
}

// newStatusError reads the message the way the API reports it: "error" first,
// then "message", falling back to the HTTP status text.
func newStatusError(status int, body []byte) *StatusError {
	e := &StatusError{Status: status, Message: http.StatusText(status)}
	if e.Message == "" {
		e.Message = fmt.Sprintf("HTTP %d", status)
	}
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return e
	}
	var s string
	if len(payload.Error) > 0 && json.Unmarshal(payload.Error, &s) == nil && strings.TrimSpace(s) != "" {
		e.Message, e.HasBody = s, true
		return e
	}
	if strings.TrimSpace(payload.Message) != "" {
		e.Message, e.HasBody = payload.Message, true
	}
	return e
}

// Message returns the text to show a user for err, or fallback when err
// carries nothing better than a transport failure.
func Message(err error, fallback string) string {
	var se *StatusError
	if errors.As(err, &se) && se.HasBody {
		return se.Message
	}
	return fallback
}

// HTTPStatus is the status to answer the browser with for err: an upstream
// 4xx is mirrored, anything else is a bad gateway.
func HTTPStatus(err error) int {
	var se *StatusError
	if errors.As(err, &se) && se.Status >= 400 && se.Status < 500 {
		return se.Status
	}
	return http.StatusBadGateway
}
