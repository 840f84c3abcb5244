package order

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/menu"
	"github.com/xraph/bistro/tax"
	"github.com/xraph/bistro/types"
)

// Pricing is the priced view of a set of lines.
type Pricing struct {
	Subtotal  types.Money `json:"subtotal"`
	VATAmount types.Money `json:"vat_amount"`
	Total     types.Money `json:"total"`
}

// Cart is an order being built. It is mutable until submitted.
type Cart struct {
	TenantID      string
	Currency      string
	Table         string
	CustomerName  string
	CustomerPhone string

	// IncludeVAT adds tax on top of the subtotal. It defaults to true.
	IncludeVAT bool
	TaxRule    tax.Rule

	lines []Line
}

// NewCart starts an empty cart that includes VAT at the default rate.
func NewCart(tenantID, currency string) *Cart {
	return &Cart{
		TenantID:   tenantID,
		Currency:   strings.ToLower(currency),
		IncludeVAT: true,
		TaxRule:    tax.Default,
	}
}

// Add puts qty units of item in the cart, growing an existing line when
// the item is already present.
func (c *Cart) Add(item menu.Item, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: add %d of %s", ErrInvalidQuantity, qty, item.ID)
	}
	if item.TenantID != "" {
		if err := types.CheckTenant(c.TenantID, item.TenantID); err != nil {
			return err
		}
	}
	if err := item.UnitPrice.CheckCurrency(c.Currency); err != nil {
		return fmt.Errorf("item %s price: %w", item.ID, err)
	}
	if err := item.UnitCost.CheckCurrency(c.Currency); err != nil {
		return fmt.Errorf("item %s cost: %w", item.ID, err)
	}

	if i := c.index(item.ID); i >= 0 {
		c.lines[i].Quantity += qty
		return nil
	}
	c.lines = append(c.lines, Line{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		UnitCost:  item.UnitCost,
		Quantity:  qty,
	})
	return nil
}

// Remove takes qty units of itemID out of the cart. A line that reaches
// zero is dropped; asking for more than the line holds drops it too.
func (c *Cart) Remove(itemID string, qty int64) error {
	if qty <= 0 {
		return fmt.Errorf("%w: remove %d of %s", ErrInvalidQuantity, qty, itemID)
	}
	i := c.index(itemID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrLineNotFound, itemID)
	}
	c.lines[i].Quantity -= qty
	if c.lines[i].Quantity <= 0 {
		c.lines = slices.Delete(c.lines, i, i+1)
	}
	return nil
}

// Quantity returns how many units of itemID are in the cart.
func (c *Cart) Quantity(itemID string) int64 {
	if i := c.index(itemID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

// Lines returns a copy of the cart lines in the order they were added.
func (c *Cart) Lines() []Line { return slices.Clone(c.lines) }

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool { return len(c.lines) == 0 }

// Clear drops every line.
func (c *Cart) Clear() { c.lines = nil }

// Pricing totals the cart.
func (c *Cart) Pricing() Pricing {
	return price(c.lines, c.Currency, c.IncludeVAT, c.TaxRule)
}

func (c *Cart) index(itemID string) int {
	return slices.IndexFunc(c.lines, func(l Line) bool { return l.ItemID == itemID })
}

func price(lines []Line, currency string, includeVAT bool, rule tax.Rule) Pricing {
	subtotal := types.Zero(currency)
	for _, l := range lines {
		subtotal = subtotal.Add(l.Total())
	}
	vat := types.Zero(currency)
	if includeVAT {
		vat = rule.Tax(subtotal)
	}
	return Pricing{Subtotal: subtotal, VATAmount: vat, Total: subtotal.Add(vat)}
}

// Submit turns a cart into a new order, priced and reconciled against
// the payment. The cart is left untouched.
func Submit(c *Cart, p Payment, at time.Time) (*Order, error) {
	if c.Empty() {
		return nil, ErrEmptyCart
	}
	if err := c.TaxRule.Validate(); err != nil {
		return nil, err
	}

	pricing := c.Pricing()
	status, err := p.Reconcile(pricing.Total)
	if err != nil {
		return nil, err
	}

	return &Order{
		Entity:        types.NewEntity(at),
		ID:            id.NewOrderID(),
		TenantID:      c.TenantID,
		Table:         c.Table,
		CustomerName:  c.CustomerName,
		CustomerPhone: c.CustomerPhone,
		Lines:         c.Lines(),
		VATIncluded:   c.IncludeVAT,
		Subtotal:      pricing.Subtotal,
		VATAmount:     pricing.VATAmount,
		Total:         pricing.Total,
		PaymentMethod: p.Method,
		PaymentStatus: status,
		Payments:      p.entries(),
		Status:        StatusNew,
	}, nil
}
