package pricing

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrNotFound           = errors.New("not found")
	ErrStorage            = errors.New("storage error")
	ErrConflict           = errors.New("version conflict")
	ErrOverrideNotCreated = errors.New("override not created")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PartialEventError is returned when the calendar event was stored but its override was not.
type PartialEventError struct {
	Event CalendarEvent
	Err   error
}

func (e *PartialEventError) Error() string {
	return fmt.Sprintf("event %s created, override failed: %v", e.Event.ID, e.Err)
}

func (e *PartialEventError) Is(target error) bool {
	return target == ErrOverrideNotCreated
}

func (e *PartialEventError) Unwrap() error {
	return e.Err
}
