// Package lifecycle holds the error taxonomy shared by the procurement state machines.
package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition signals an operation that the current state does not allow.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrInvalidStatus signals a status value outside the known enumeration.
	ErrInvalidStatus = errors.New("invalid status value")
)

// TransitionError describes a rejected transition with the state it was attempted from.
type TransitionError struct {
	Entity string
	ID     string
	From   string
	Action string
	Reason string
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("cannot %s %s %s in status %q", e.Action, e.Entity, e.ID, e.From)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// StatusError reports an unknown status value for the named field.
type StatusError struct {
	Field string
	Value string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Field, e.Value)
}

func (e *StatusError) Unwrap() error { return ErrInvalidStatus }

// AsTransition extracts transition details from err.
func AsTransition(err error) (*TransitionError, bool) {
	var te *TransitionError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}
