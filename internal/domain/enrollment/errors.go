package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies an enrollment outcome for the request boundary
type ErrorKind string

const (
	KindInvalidInput    ErrorKind = "invalid_input"
	KindNotFound        ErrorKind = "not_found"
	KindActivityClosed  ErrorKind = "activity_closed"
	KindActivityFull    ErrorKind = "activity_full"
	KindAlreadyEnrolled ErrorKind = "already_enrolled"
	KindForbidden       ErrorKind = "forbidden"
	KindConflict        ErrorKind = "conflict"
	KindInternal        ErrorKind = "internal"
)

// Error is a structured, human-readable rejection
type Error struct {
	Kind    ErrorKind
	Message string
	// Status is the enrollment status that caused an AlreadyEnrolled rejection.
	Status   EnrollmentStatus
	Internal error
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Internal.Error())
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Internal
}

// Is matches on Kind so callers can compare against the sentinel errors below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// HTTPStatus maps the kind onto the status code the boundary renders.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindInvalidInput, KindActivityClosed, KindActivityFull:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyEnrolled, KindConflict:
		return http.StatusConflict
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

var (
	ErrInvalidInput    = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "not found"}
	ErrActivityClosed  = &Error{Kind: KindActivityClosed, Message: "Cannot enroll in past activities"}
	ErrActivityFull    = &Error{Kind: KindActivityFull, Message: "Activity is full"}
	ErrAlreadyEnrolled = &Error{Kind: KindAlreadyEnrolled, Message: "Already enrolled in this activity"}
	ErrForbidden       = &Error{Kind: KindForbidden, Message: "forbidden"}
	ErrConflict        = &Error{Kind: KindConflict, Message: "conflict"}
	ErrInternal        = &Error{Kind: KindInternal, Message: "internal error"}
)

// ErrDuplicateEnrollment is returned by enrollment stores when the
// (activity, user) unique constraint rejects an insert.
var ErrDuplicateEnrollment = errors.New("duplicate enrollment for activity and user")

func NewInvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

func NewNotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewActivityFull(message string) *Error {
	return &Error{Kind: KindActivityFull, Message: message}
}

func NewAlreadyEnrolled(status EnrollmentStatus) *Error {
	return &Error{Kind: KindAlreadyEnrolled, Message: ErrAlreadyEnrolled.Message, Status: status}
}

func NewForbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NewConflict(message string) *Error {
	return &Error{Kind: KindConflict, Message: message}
}

func NewInternal(message string, internal error) *Error {
	return &Error{Kind: KindInternal, Message: message, Internal: internal}
}

// AsError extracts a domain error, wrapping anything else as internal.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return NewInternal("unexpected failure", err)
}
