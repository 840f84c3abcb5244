package receipt

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/tax"
)

// HTML renders o as a self-contained receipt fragment using the default
// VAT rule.
func HTML(o *order.Order) templ.Component {
	return htmlReceipt(New(o, tax.Default))
}

func htmlReceipt(r Receipt) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		ew := &errWriter{w: w}

		ew.printf(`<article class="receipt" data-order=%q>`, templ.EscapeString(r.Number))
		ew.printf(`<header><h1>Receipt</h1><p class="receipt-no">%s</p><time datetime=%q>%s</time>`,
			templ.EscapeString(r.Number),
			r.IssuedAt.Format("2006-01-02T15:04:05Z07:00"),
			r.IssuedAt.Format("2006-01-02 15:04"),
		)
		if r.Table != "" {
			ew.printf(`<p class="table">Table %s</p>`, templ.EscapeString(r.Table))
		}
		if r.Customer != "" {
			ew.printf(`<p class="customer">%s</p>`, templ.EscapeString(r.Customer))
		}
		ew.printf(`</header>`)

		ew.printf(`<table class="lines"><tbody>`)
		for _, l := range r.Lines {
			ew.printf(`<tr><td class="name">%s</td><td class="qty">%d</td><td class="unit">%s</td><td class="total">%s</td></tr>`,
				templ.EscapeString(l.Name), l.Quantity,
				templ.EscapeString(l.UnitPrice.String()),
				templ.EscapeString(l.Total.String()),
			)
		}
		ew.printf(`</tbody></table>`)

		ew.printf(`<dl class="totals">`)
		ew.pair("Subtotal", r.Subtotal.String())
		if r.VATIncluded {
			ew.pair("VAT "+r.VATRate, r.VATAmount.String())
		}
		ew.pair("Total", r.Total.String())
		for _, p := range r.Payments {
			ew.pair(paymentLabel(p.Method), p.Amount.String())
		}
		if len(r.Payments) == 0 {
			ew.pair("Payment", paymentLabel(r.PaymentMethod))
		}
		if r.Change.IsPositive() {
			ew.pair("Change", r.Change.String())
		}
		if !r.Paid {
			ew.pair("Balance due", r.Total.String())
		}
		ew.printf(`</dl>`)

		ew.printf(`<footer class="status status-%s">%s</footer></article>`,
			templ.EscapeString(string(r.Status)),
			templ.EscapeString(statusLabel(r.Status)),
		)
		return ew.err
	})
}

// errWriter stops writing after the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) pair(label, value string) {
	e.printf(`<dt>%s</dt><dd>%s</dd>`, templ.EscapeString(label), templ.EscapeString(value))
}
