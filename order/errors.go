package order

import (
	"errors"

	"github.com/xraph/bistro/types"
)

var (
	ErrInvalidQuantity = types.ErrInvalidQuantity
	ErrTenantMismatch  = types.ErrTenantMismatch

	ErrInvalidPaymentAmount = errors.New("order: invalid payment amount")
	ErrPaymentMismatch      = errors.New("order: payments do not cover total")
	ErrUnknownPaymentMethod = errors.New("order: unknown payment method")
	ErrAlreadyPaid          = errors.New("order: already paid")
	ErrInvalidTransition    = errors.New("order: invalid transition")
	ErrDuplicateOrderID     = errors.New("order: duplicate order id")
	ErrOrderNotFound        = errors.New("order: not found")
	ErrEmptyCart            = errors.New("order: cart is empty")
	ErrLineNotFound         = errors.New("order: line not found")
	ErrMissingOrderID       = errors.New("order: missing order id")
	ErrNoDeductor           = errors.New("order: completion requires a stock deductor")
)
