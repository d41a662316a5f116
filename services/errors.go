package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrSweepInProgress     = errors.New("overdue sweep already running")
	ErrInvalidCredentials  = errors.New("invalid email or password")
)

// ValidationError is bad client input. Field names the offending input when known.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// ConflictError is a request that is valid but clashes with the current state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// InvariantViolation means stored state broke a rule that must always hold.
type InvariantViolation struct {
	Message string
	Err     error
}

func (e *InvariantViolation) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invariant violated: %s: %v", e.Message, e.Err)
	}
	return "invariant violated: " + e.Message
}

func (e *InvariantViolation) Unwrap() error { return e.Err }

// GatewayError wraps a checkout provider failure.
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string { return fmt.Sprintf("checkout %s: %v", e.Op, e.Err) }

func (e *GatewayError) Unwrap() error { return e.Err }
