package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is the sentinel wrapped by all lookup misses
var ErrNotFound = errors.New("not found")

// ValidationError indicates a request that can never succeed as given
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return e.Message
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError indicates a referenced entity does not exist
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InsufficientStockError indicates a checkout asked for more units than
// the product has. Available reflects the stock at the moment of the
// conditional decrement, so concurrent checkouts surface it correctly.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// InvalidTransitionError indicates a status change the state machine forbids
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move %s from %s to %s", e.Entity, e.From, e.To)
}
