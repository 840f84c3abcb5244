package bistro

import (
	"errors"
	"fmt"

	"github.com/xraph/bistro/inventory"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/types"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound     = errors.New("bistro: not found")
	ErrInvalidInput = errors.New("bistro: invalid input")
	ErrUnauthorized = errors.New("bistro: unauthorized")

	// Engine errors
	ErrNotStarted     = errors.New("bistro: engine not started")
	ErrStopped        = errors.New("bistro: engine stopped")
	ErrMissingTenant  = errors.New("bistro: missing tenant id")
	ErrPersistBacklog = errors.New("bistro: persist buffer full")

	// Store errors
	ErrStoreNotReady   = errors.New("bistro: store not ready")
	ErrStoreClosed     = errors.New("bistro: store is closed")
	ErrMigrationFailed = errors.New("bistro: migration failed")
	ErrNoStores        = errors.New("bistro: no stores configured")
)

// Domain errors, re-exported so callers can match everything against the
// root package.
var (
	ErrInvalidQuantity   = types.ErrInvalidQuantity
	ErrTenantMismatch    = types.ErrTenantMismatch
	ErrCurrencyMismatch  = types.ErrCurrencyMismatch
	ErrDuplicateOrderID  = order.ErrDuplicateOrderID
	ErrInvalidTransition = order.ErrInvalidTransition
	ErrOrderNotFound     = order.ErrOrderNotFound
	ErrEmptyCart         = order.ErrEmptyCart
	ErrAlreadyPaid       = order.ErrAlreadyPaid
	ErrBatchNotFound     = inventory.ErrBatchNotFound

	ErrInvalidPaymentAmount = order.ErrInvalidPaymentAmount
	ErrPaymentMismatch      = order.ErrPaymentMismatch
	ErrUnknownPaymentMethod = order.ErrUnknownPaymentMethod
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("bistro: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "bistro: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("bistro: %d errors occurred: %v", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrOrNil returns the multi-error, or nil when nothing was added.
func (e MultiError) ErrOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrBatchNotFound) ||
		errors.Is(err, order.ErrLineNotFound)
}

// IsValidation returns true for local input failures that should be shown
// to the operator rather than retried.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidPaymentAmount) ||
		errors.Is(err, ErrPaymentMismatch) ||
		errors.Is(err, ErrUnknownPaymentMethod) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrTenantMismatch) ||
		errors.Is(err, ErrDuplicateOrderID) ||
		errors.Is(err, ErrCurrencyMismatch) ||
		errors.Is(err, ErrEmptyCart)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistBacklog) ||
		errors.Is(err, ErrStoreNotReady)
}
