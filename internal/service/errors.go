package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"storefront/internal/store"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence failure")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	ErrInsufficientStock       = fmt.Errorf("%w: insufficient stock", ErrConflict)
	ErrProductUnavailable      = fmt.Errorf("%w: product is not available", ErrConflict)
	ErrOrderNotCancellable     = fmt.Errorf("%w: order cannot be cancelled", ErrConflict)
	ErrInvalidStatusTransition = fmt.Errorf("%w: invalid status transition", ErrConflict)
	ErrCheckoutInProgress      = fmt.Errorf("%w: checkout already in progress", ErrConflict)
	ErrProductInUse            = fmt.Errorf("%w: product is referenced by orders", ErrConflict)
	ErrInvalidCredentials      = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)
	ErrAccountInactive         = fmt.Errorf("%w: account is inactive", ErrForbidden)
	ErrTooManyAttempts         = errors.New("too many attempts")
)

// ValidationError reports input problems keyed by field path, e.g.
// "items.0.product_id".
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError(field, message string) *ValidationError {
	ve := &ValidationError{}
	ve.Add(field, message)
	return ve
}

func (e *ValidationError) Add(field, message string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], message)
}

// OrNil returns nil when no field errors were added.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// mapStoreError translates store sentinels into the service taxonomy.
// Anything unrecognised becomes a persistence failure.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, store.ErrInsufficientStock):
		return ErrInsufficientStock
	case errors.Is(err, store.ErrProductUnavailable):
		return ErrProductUnavailable
	case errors.Is(err, store.ErrDuplicateEmail):
		return NewValidationError("email", "email has already been taken")
	case errors.Is(err, store.ErrReferenced):
		return ErrProductInUse
	default:
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
}
