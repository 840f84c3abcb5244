// Package receipt renders completed or open orders for the printer and
// for the web.
package receipt

import (
	"fmt"
	"strings"
	"time"

	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/tax"
	"github.com/xraph/bistro/types"
)

// Width is the character width of a text receipt, sized for 58mm paper.
const Width = 32

// Receipt is the printable view of an order.
type Receipt struct {
	Number   string
	Table    string
	Customer string
	IssuedAt time.Time

	Lines []Line

	Subtotal    types.Money
	VATIncluded bool
	VATRate     string
	VATAmount   types.Money
	Total       types.Money

	PaymentMethod order.PaymentMethod
	Payments      []order.PaymentEntry
	Tendered      types.Money
	Change        types.Money
	Paid          bool

	Status order.Status
}

// Line is one printed order line.
type Line struct {
	Name      string
	Quantity  int64
	UnitPrice types.Money
	Total     types.Money
}

// New builds the receipt view of o. rule is only used to label the VAT
// line.
func New(o *order.Order, rule tax.Rule) Receipt {
	r := Receipt{
		Number:        o.ID.String(),
		Table:         o.Table,
		Customer:      o.CustomerName,
		IssuedAt:      o.CreatedAt,
		Subtotal:      o.Subtotal,
		VATIncluded:   o.VATIncluded,
		VATRate:       rule.Percent(),
		VATAmount:     o.VATAmount,
		Total:         o.Total,
		PaymentMethod: o.PaymentMethod,
		Payments:      o.Payments,
		Paid:          o.Paid(),
		Status:        o.Status,
	}
	for _, l := range o.Lines {
		r.Lines = append(r.Lines, Line{
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total(),
		})
	}

	p := order.Payment{Method: o.PaymentMethod, Entries: o.Payments}
	r.Tendered = p.Tendered(o.Currency())
	r.Change = p.Change(o.Total)
	return r
}

// Text renders o as a fixed-width receipt using the default VAT rule.
func Text(o *order.Order) string {
	return renderReceipt(New(o, tax.Default))
}

func renderReceipt(r Receipt) string {
	var b strings.Builder
	rule := strings.Repeat("-", Width) + "\n"

	b.WriteString(center("RECEIPT"))
	fmt.Fprintf(&b, "No: %s\n", r.Number)
	fmt.Fprintf(&b, "Date: %s\n", r.IssuedAt.Format("2006-01-02 15:04"))
	if r.Table != "" {
		fmt.Fprintf(&b, "Table: %s\n", r.Table)
	}
	if r.Customer != "" {
		fmt.Fprintf(&b, "Customer: %s\n", r.Customer)
	}
	b.WriteString(rule)

	for _, l := range r.Lines {
		b.WriteString(l.Name + "\n")
		b.WriteString(row(fmt.Sprintf("  %d x %s", l.Quantity, l.UnitPrice), l.Total.String()))
	}
	b.WriteString(rule)

	b.WriteString(row("Subtotal", r.Subtotal.String()))
	if r.VATIncluded {
		b.WriteString(row("VAT "+r.VATRate, r.VATAmount.String()))
	}
	b.WriteString(row("TOTAL", r.Total.String()))
	b.WriteString(rule)

	switch {
	case len(r.Payments) > 0:
		for _, p := range r.Payments {
			b.WriteString(row(paymentLabel(p.Method), p.Amount.String()))
		}
		b.WriteString(row("Tendered", r.Tendered.String()))
		if r.Change.IsPositive() {
			b.WriteString(row("Change", r.Change.String()))
		}
	default:
		b.WriteString(row("Payment", paymentLabel(r.PaymentMethod)))
	}
	if !r.Paid {
		b.WriteString(row("Balance due", r.Total.String()))
	}

	b.WriteString(row("Status", statusLabel(r.Status)))
	return b.String()
}

// row right-aligns value against label on one line.
func row(label, value string) string {
	pad := Width - runeLen(label) - runeLen(value)
	if pad < 1 {
		pad = 1
	}
	return label + strings.Repeat(" ", pad) + value + "\n"
}

func center(s string) string {
	pad := max((Width-runeLen(s))/2, 0)
	return strings.Repeat(" ", pad) + s + "\n"
}

func runeLen(s string) int { return len([]rune(s)) }

func paymentLabel(m order.PaymentMethod) string {
	switch m {
	case order.MethodCash:
		return "Cash"
	case order.MethodCard:
		return "Card"
	case order.MethodMobile:
		return "Mobile"
	case order.MethodMulti:
		return "Split"
	case order.MethodDeferred:
		return "On account"
	default:
		return string(m)
	}
}

func statusLabel(s order.Status) string {
	switch s {
	case order.StatusNew:
		return "New"
	case order.StatusInPreparation:
		return "In preparation"
	case order.StatusReadyForPickup:
		return "Ready for pickup"
	case order.StatusCompleted:
		return "Completed"
	case order.StatusCancelled:
		return "Cancelled"
	default:
		return string(s)
	}
}
