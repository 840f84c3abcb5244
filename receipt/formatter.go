package receipt

import (
	"context"
	"io"

	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/plugin"
	"github.com/xraph/bistro/tax"
)

var (
	_ plugin.ReceiptFormatter = (*TextFormatter)(nil)
	_ plugin.ReceiptFormatter = (*HTMLFormatter)(nil)
)

// TextFormatter prints fixed-width receipts.
type TextFormatter struct {
	Rule tax.Rule
}

// NewTextFormatter returns a text formatter labelled with rule.
func NewTextFormatter(rule tax.Rule) *TextFormatter { return &TextFormatter{Rule: rule} }

func (f *TextFormatter) Name() string   { return "receipt-text" }
func (f *TextFormatter) Format() string { return "text" }

// Render writes the receipt for o to w.
func (f *TextFormatter) Render(_ context.Context, o *order.Order, w io.Writer) error {
	_, err := io.WriteString(w, renderReceipt(New(o, f.Rule)))
	return err
}

// HTMLFormatter renders receipts as HTML fragments.
type HTMLFormatter struct {
	Rule tax.Rule
}

// NewHTMLFormatter returns an HTML formatter labelled with rule.
func NewHTMLFormatter(rule tax.Rule) *HTMLFormatter { return &HTMLFormatter{Rule: rule} }

func (f *HTMLFormatter) Name() string   { return "receipt-html" }
func (f *HTMLFormatter) Format() string { return "html" }

// Render writes the receipt for o to w.
func (f *HTMLFormatter) Render(ctx context.Context, o *order.Order, w io.Writer) error {
	return htmlReceipt(New(o, f.Rule)).Render(ctx, w)
}
