package receipt

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/bistro/menu"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/plugin"
	"github.com/xraph/bistro/tax"
	"github.com/xraph/bistro/types"
)

const tenant = "tenant-001"

func sampleOrder(t *testing.T, p order.Payment) *order.Order {
	t.Helper()
	c := order.NewCart(tenant, "try")
	c.Table = "T4"
	c.CustomerName = "Ayşe <VIP>"
	require.NoError(t, c.Add(menu.Item{ID: "pide", Name: "Pide", UnitPrice: types.TRY(500), UnitCost: types.TRY(200)}, 2))
	o, err := order.Submit(c, p, time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	return o
}

func TestTextReceipt(t *testing.T) {
	o := sampleOrder(t, order.Split(
		order.Entry(order.MethodCash, types.TRY(1000)),
		order.Entry(order.MethodCard, types.TRY(300)),
	))

	out := Text(o)
	for _, want := range []string{
		"RECEIPT",
		"Table: T4",
		"Pide",
		"2 x ₺5.00",
		"₺10.00",
		"VAT 18%",
		"₺1.80",
		"₺11.80",
		"Tendered",
		"₺13.00",
		"Change",
		"₺1.20",
		"Status",
		"New",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, "Balance due")

	for _, line := range strings.Split(strings.TrimRight(out, "\n"), "\n") {
		if strings.HasPrefix(line, "Subtotal") || strings.HasPrefix(line, "TOTAL") {
			assert.Equal(t, Width, runeLen(line), "totals are right aligned: %q", line)
		}
	}
}

func TestTextReceiptDeferred(t *testing.T) {
	o := sampleOrder(t, order.Deferred())
	out := Text(o)
	assert.Contains(t, out, "On account")
	assert.Contains(t, out, "Balance due")
}

func TestHTMLEscapes(t *testing.T) {
	o := sampleOrder(t, order.Cash())

	var buf bytes.Buffer
	require.NoError(t, HTML(o).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `<article class="receipt"`)
	assert.Contains(t, html, "Ayşe &lt;VIP&gt;")
	assert.NotContains(t, html, "<VIP>")
	assert.Contains(t, html, "<dt>Total</dt><dd>₺11.80</dd>")
}

func TestFormattersRegister(t *testing.T) {
	r := plugin.NewRegistry()
	require.NoError(t, r.Register(NewTextFormatter(tax.Default)))
	require.NoError(t, r.Register(NewHTMLFormatter(tax.Default)))
	assert.Equal(t, []string{"html", "text"}, r.ReceiptFormats())

	o := sampleOrder(t, order.Card())
	var buf bytes.Buffer
	require.NoError(t, r.ReceiptFormatter("text").Render(context.Background(), o, &buf))
	assert.Contains(t, buf.String(), "Card")
}
