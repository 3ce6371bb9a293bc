package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for callers that need to react to it
// (HTTP status mapping, log level) without matching on messages.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindAuth
	KindForbidden
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindAuth:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// HTTPStatus returns the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindAuth:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified error with a message that is safe to show to clients.
// Err, when set, carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinel errors of the same kind and message, so a sentinel
// re-created through Wrap still satisfies errors.Is against the original.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Message == t.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a cause to a classified error, keeping the sentinel's kind and message.
func Wrap(sentinel *Error, cause error) *Error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, Fields: sentinel.Fields, Err: cause}
}

// Upstream classifies a collaborator failure (mail, object storage).
func Upstream(message string, cause error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: cause}
}

// Validation builds a field-level validation error.
func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
