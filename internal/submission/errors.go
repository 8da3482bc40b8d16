package submission

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrInvalidPayload = errors.New("invalid payload")
	ErrOptionLookup   = errors.New("option lookup failure")
	ErrTransaction    = errors.New("transaction failure")
)

// Error describes a failed submission. Field names the offending payload field
// for invalid payloads.
type Error struct {
	Kind  error
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.Err != nil:
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Field, e.Err)
	case e.Field != "":
		return fmt.Sprintf("%v: %s", e.Kind, e.Field)
	case e.Err != nil:
		return fmt.Sprintf("%v: %v", e.Kind, e.Err)
	}
	return e.Kind.Error()
}

// Is matches the error kind.
func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Err }

func invalid(field string, err error) *Error {
	return &Error{Kind: ErrInvalidPayload, Field: field, Err: err}
}

func lookupFailed(err error) *Error {
	return &Error{Kind: ErrOptionLookup, Err: err}
}

func txFailed(err error) *Error {
	return &Error{Kind: ErrTransaction, Err: err}
}

// InvalidBody reports a request body that could not be read.
func InvalidBody(err error) error {
	return invalid("body", err)
}
