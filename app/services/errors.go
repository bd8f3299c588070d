package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
	ErrConflict  = errors.New("conflict")

	// ErrInvalidItem marks an order line whose product is unknown or
	// inactive.
	ErrInvalidItem = errors.New("invalid order item")
	// ErrInsufficientStock marks an order line asking for more units than
	// are on hand.
	ErrInsufficientStock = errors.New("insufficient stock")

	ErrPaymentNotConfigured  = errors.New("payment method is not configured")
	ErrPaymentGateway        = errors.New("payment gateway error")
	ErrDocumentStoreDisabled = errors.New("document store is not configured")
)

// ValidationError carries field → message failures and maps to 422.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ItemError names the order line that aborted an order.
type ItemError struct {
	Err       error
	Index     int
	ProductID string
	Name      string
	Available int
}

func (e *ItemError) Error() string {
	name := e.Name
	if name == "" {
		name = e.ProductID
	}
	if errors.Is(e.Err, ErrInsufficientStock) {
		return fmt.Sprintf("Insufficient stock for %s (available: %d)", name, e.Available)
	}
	return fmt.Sprintf("Product %s is not available", name)
}

func (e *ItemError) Unwrap() error { return e.Err }

// notFound wraps ErrNotFound with the name of the missing thing, so the
// controller can answer "<what> not found".
func notFound(what string) error {
	return &NotFoundError{What: what}
}

// NotFoundError is an ErrNotFound naming the missing resource.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string { return e.What + " not found" }
func (e *NotFoundError) Unwrap() error { return ErrNotFound }
