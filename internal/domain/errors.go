package domain

import (
	"errors"
	"fmt"
)

type UnauthorizedError struct {
	Msg string
	Err error
}

func (e UnauthorizedError) Error() string {
	if e.Msg == "" {
		return "unauthorized"
	}
	return e.Msg
}

func (e UnauthorizedError) Unwrap() error { return e.Err }

type ForbiddenError struct {
	Msg string
}

func (e ForbiddenError) Error() string {
	if e.Msg == "" {
		return "forbidden"
	}
	return e.Msg
}

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

// CapacityExceededError reports a reservation that does not fit the remaining seats of a spot.
type CapacityExceededError struct {
	SpotID    int64
	Requested int
	Remaining int
}

func (e CapacityExceededError) Error() string {
	switch e.Remaining {
	case 0:
		return fmt.Sprintf("spot %d is fully booked", e.SpotID)
	case 1:
		return fmt.Sprintf("only 1 seat remains, %d requested", e.Requested)
	default:
		return fmt.Sprintf("only %d seats remain, %d requested", e.Remaining, e.Requested)
	}
}

// InvalidTransitionError is returned for any status change missing from the transition tables,
// and for mutations attempted on an entity in a terminal state.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
	Msg    string
}

func (e InvalidTransitionError) Error() string {
	base := fmt.Sprintf("%s cannot move from %s to %s", e.Entity, e.From, e.To)
	if e.To == "" {
		base = fmt.Sprintf("%s is %s", e.Entity, e.From)
	}
	if e.Msg != "" {
		return base + ": " + e.Msg
	}
	return base
}

type AlreadyRefundedError struct {
	PaymentID int64
}

func (e AlreadyRefundedError) Error() string {
	return fmt.Sprintf("payment %d is already refunded", e.PaymentID)
}

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

func IsUnauthorized(err error) bool {
	var target UnauthorizedError
	return errors.As(err, &target)
}

func IsForbidden(err error) bool {
	var target ForbiddenError
	return errors.As(err, &target)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsCapacityExceeded(err error) bool {
	var target CapacityExceededError
	return errors.As(err, &target)
}

func IsInvalidTransition(err error) bool {
	var target InvalidTransitionError
	return errors.As(err, &target)
}

func IsAlreadyRefunded(err error) bool {
	var target AlreadyRefundedError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

// IsBusiness reports whether err is a rule violation that must reach the caller as-is.
func IsBusiness(err error) bool {
	return IsUnauthorized(err) || IsForbidden(err) || IsNotFound(err) || IsValidation(err) ||
		IsCapacityExceeded(err) || IsInvalidTransition(err) || IsAlreadyRefunded(err)
}
