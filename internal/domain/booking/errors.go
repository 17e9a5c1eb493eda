package booking

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindNotFound         Kind = "not_found"
	KindInvalidArgument  Kind = "invalid_argument"
	KindCapacityExceeded Kind = "capacity_exceeded"
	KindConflict         Kind = "conflict"
)

// Error is the failure type of every booking operation. Field is set for
// InvalidArgument, AvailableSeats for CapacityExceeded.
type Error struct {
	Kind           Kind
	Entity         string
	Field          string
	Message        string
	AvailableSeats int
	Err            error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(entity string) error {
	return &Error{Kind: KindNotFound, Entity: entity, Message: entity + " not found"}
}

func InvalidArgument(field, message string) error {
	return &Error{Kind: KindInvalidArgument, Field: field, Message: message}
}

func CapacityExceeded(available int) error {
	if available < 0 {
		available = 0
	}
	return &Error{
		Kind:           KindCapacityExceeded,
		AvailableSeats: available,
		Message:        fmt.Sprintf("not enough seats available, %d left for the selected time", available),
	}
}

func Conflict(err error) error {
	return &Error{Kind: KindConflict, Message: "concurrent booking activity, please retry", Err: err}
}

// KindOf returns the kind carried by err, or "" for foreign errors.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

func IsNotFound(err error) bool         { return KindOf(err) == KindNotFound }
func IsInvalidArgument(err error) bool  { return KindOf(err) == KindInvalidArgument }
func IsCapacityExceeded(err error) bool { return KindOf(err) == KindCapacityExceeded }
func IsConflict(err error) bool         { return KindOf(err) == KindConflict }

// ErrRetryable is wrapped by store implementations around failures that may
// succeed when the whole admission is run again (serialization failures,
// deadlocks, lock timeouts).
var ErrRetryable = errors.New("retryable store conflict")

// ErrActiveBookings is returned when a restaurant still has confirmed
// bookings ending in the future.
var ErrActiveBookings = errors.New("restaurant has active bookings")
