package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthentication
	KindNotFound
	KindConflict
	KindBusinessLogic
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindBusinessLogic:
		return "business_logic"
	default:
		return "internal"
	}
}

// Error is the single error type returned by use cases. Only the fields
// relevant to its Kind are set.
type Error struct {
	Kind    Kind
	Message string

	// Field is the offending input field of a validation error.
	Field string
	// Resource and ID identify the missing entity of a not found error.
	Resource string
	ID       string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Kind == KindInternal {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation reports malformed or missing input.
func Validation(field, message string) error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

// Authentication reports a missing, invalid or expired credential.
func Authentication(message string) error {
	if message == "" {
		message = "Authentication failed"
	}
	return &Error{Kind: KindAuthentication, Message: message}
}

// NotFound reports that resource with the given id does not exist.
func NotFound(resource, id string) error {
	message := resource + " not found"
	if id != "" {
		message = fmt.Sprintf("%s with id %s not found", resource, id)
	}
	return &Error{Kind: KindNotFound, Resource: resource, ID: id, Message: message}
}

// Conflict reports a duplicate of a unique attribute.
func Conflict(message string) error {
	return &Error{Kind: KindConflict, Message: message}
}

// BusinessLogic reports a rule violation on well formed input.
func BusinessLogic(message string) error {
	return &Error{Kind: KindBusinessLogic, Message: message}
}

// Internal wraps an unexpected failure, usually coming from the store.
func Internal(message string, err error) error {
	if message == "" {
		message = "Internal server error"
	}
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err. Errors outside the taxonomy are internal.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindBusinessLogic:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
