// pkg/models/api.go
package models

import "github.com/google/uuid"

// Field-keyed validation error response
type ValidationErrorResponse struct {
	Message string              `json:"message" example:"Validation failed"`
	Errors  map[string][]string `json:"errors"`
	Notice  *Notice             `json:"notice,omitempty"`
}

// Generic error response (401/403/404/409/500/502)
type ErrorResponse struct {
	Error   bool   `json:"error" example:"true"`
	Message string `json:"message" example:"Forbidden"`
	Code    string `json:"code,omitempty" example:"FORBIDDEN"`
}

// NoticeKind is the state of a transient notification.
type NoticeKind string

const (
	NoticeLoading NoticeKind = "loading"
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is a transient notification (a toast) attached to mutation results.
// A loading notice and its outcome share the same ID.
type Notice struct {
	ID      string     `json:"id"`
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// NewNotice starts a notice sequence in the loading state.
func NewNotice(message string) *Notice {
	return &Notice{ID: uuid.NewString(), Kind: NoticeLoading, Message: message}
}

// Succeed resolves the notice as a success.
func (n *Notice) Succeed(message string) *Notice {
	n.Kind = NoticeSuccess
	n.Message = message
	return n
}

// Fail resolves the notice as an error.
func (n *Notice) Fail(message string) *Notice {
	n.Kind = NoticeError
	n.Message = message
	return n
}

// ErrorNotice is a standalone error notification (no loading phase).
func ErrorNotice(message string) *Notice {
	return &Notice{ID: uuid.NewString(), Kind: NoticeError, Message: message}
}
