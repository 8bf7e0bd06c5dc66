package models

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable category of a domain failure
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindInvalidSeat    ErrorKind = "invalid_seat"
	KindDeadlinePassed ErrorKind = "deadline_passed"
	KindUnknownGuest   ErrorKind = "unknown_guest"
	KindSeatTaken      ErrorKind = "seat_taken"
	KindNotFound       ErrorKind = "not_found"
)

// Error is a domain failure. Two errors match under errors.Is when their
// kinds are equal, so callers compare against the Err* sentinels.
type Error struct {
	Kind    ErrorKind
	Message string
}

var (
	ErrValidation     = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrInvalidSeat    = &Error{Kind: KindInvalidSeat, Message: "Invalid seat"}
	ErrDeadlinePassed = &Error{Kind: KindDeadlinePassed, Message: "Seat selection deadline has passed"}
	ErrUnknownGuest   = &Error{Kind: KindUnknownGuest, Message: "Invalid user"}
	ErrSeatTaken      = &Error{Kind: KindSeatTaken, Message: "Seat is already taken"}
	ErrNotFound       = &Error{Kind: KindNotFound, Message: "not found"}
)

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Errorf builds an Error of the given kind with a formatted message
func Errorf(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first domain error in err's chain, or "".
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
