package service

import (
	"errors"
	"fmt"
)

// Errors returned by the reservation engine. Callers match them with
// errors.Is; the wrapped message carries the details.
var (
	ErrNotFound               = errors.New("not found")
	ErrValidation             = errors.New("validation error")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrClosedDay              = errors.New("restaurant is closed on this day")
	ErrOutsideBusinessHours   = errors.New("outside business hours")
	ErrSlotUnavailable        = errors.New("slot unavailable")
	ErrPolicyViolation        = errors.New("policy violation")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConcurrencyConflict    = errors.New("concurrency conflict")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrNotFound, "NotFound"},
	{ErrValidation, "ValidationError"},
	{ErrCapacityExceeded, "CapacityExceeded"},
	{ErrClosedDay, "ClosedDay"},
	{ErrOutsideBusinessHours, "OutsideBusinessHours"},
	{ErrSlotUnavailable, "SlotUnavailable"},
	{ErrPolicyViolation, "PolicyViolation"},
	{ErrInvalidStateTransition, "InvalidStateTransition"},
	{ErrConcurrencyConflict, "ConcurrencyConflict"},
}

// Kind returns the taxonomy name of an engine error, or "Internal" for
// anything the engine does not classify.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

// wrap attaches a formatted detail to one of the sentinels above.
func wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}
