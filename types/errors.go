package types

import (
	"errors"
	"fmt"
)

// Errors shared by the inventory and order packages.
var (
	ErrInvalidQuantity  = errors.New("bistro: invalid quantity")
	ErrTenantMismatch   = errors.New("bistro: tenant mismatch")
	ErrCurrencyMismatch = errors.New("bistro: currency mismatch")
)

// CheckTenant returns ErrTenantMismatch when got is not the owning tenant.
// An empty owner never matches, so unscoped ledgers reject every caller.
func CheckTenant(owner, got string) error {
	if owner == "" || owner != got {
		return fmt.Errorf("%w: ledger belongs to %q, got %q", ErrTenantMismatch, owner, got)
	}
	return nil
}
