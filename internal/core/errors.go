package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeUnauthorized      = "unauthorized"
	ErrCodeBadRequest        = "bad_request"
	ErrCodeNotFound          = "not_found"
	ErrCodePersistenceFailed = "persistence_failed"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrBadRequest   = errors.New("bad request")
)

// CoreError wraps a code and human-readable message. It is surfaced to the
// offending connection only; one connection's fault never touches another.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
