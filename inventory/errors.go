package inventory

import (
	"errors"

	"github.com/xraph/bistro/types"
)

var (
	// ErrInvalidQuantity is returned for non-positive receive or consume quantities.
	ErrInvalidQuantity = types.ErrInvalidQuantity
	// ErrTenantMismatch is returned when a caller touches another tenant's ledger.
	ErrTenantMismatch = types.ErrTenantMismatch

	ErrInvalidUnitCost = errors.New("inventory: invalid unit cost")
	ErrInvalidKind     = errors.New("inventory: invalid batch kind")
	ErrMissingItemRef  = errors.New("inventory: missing item ref")
	ErrBatchNotFound   = errors.New("inventory: batch not found")
	ErrDuplicateBatch  = errors.New("inventory: duplicate batch id")
)
