package bistro_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/bistro"
	"github.com/xraph/bistro/menu"
	"github.com/xraph/bistro/order"
	"github.com/xraph/bistro/store/memory"
	"github.com/xraph/bistro/tax"
	"github.com/xraph/bistro/types"
)

// TestDocumentationExamples verifies that the package documentation flows work.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		store := memory.New()

		b := bistro.New(store,
			bistro.WithLogger(slog.Default()),
			bistro.WithCurrency("TRY"),
			bistro.WithTaxRule(tax.Default),
			bistro.WithPersistConfig(64, 50*time.Millisecond),
		)

		ctx := context.Background()
		if err := b.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer b.Stop()

		sess, err := b.Open(ctx, "tenant-001")
		if err != nil {
			t.Fatal(err)
		}

		kebab := menu.Item{ID: "kebab", TenantID: "tenant-001", Name: "Adana", UnitPrice: types.TRY(50000), UnitCost: types.TRY(20000)}
		if _, err := sess.Receive(ctx, "tenant-001", "kebab", 10, types.TRY(18000)); err != nil {
			t.Fatal(err)
		}

		cart := sess.NewCart()
		if err := cart.Add(kebab, 2); err != nil {
			t.Fatal(err)
		}
		o, err := sess.Submit(ctx, "tenant-001", cart, bistro.Cash())
		if err != nil {
			t.Fatal(err)
		}
		if o.Status != order.StatusNew {
			t.Fatalf("expected new order, got %s", o.Status)
		}

		for _, step := range []func(context.Context, string, bistro.OrderID) (*order.Order, error){
			sess.SendToKitchen,
			sess.MarkReady,
			sess.Complete,
		} {
			if o, err = step(ctx, "tenant-001", o.ID); err != nil {
				t.Fatal(err)
			}
		}

		if o.Status != order.StatusCompleted {
			t.Errorf("expected completed, got %s", o.Status)
		}
		if profit, ok := o.Profit(); !ok || profit.Amount != 100000-36000 {
			t.Errorf("expected profit 640.00, got %v (known=%v)", profit, ok)
		}

		stock, err := sess.CurrentStock("tenant-001", "kebab")
		if err != nil {
			t.Fatal(err)
		}
		if stock != 8 {
			t.Errorf("expected 8 left, got %d", stock)
		}
	})

	t.Run("FIFOCompletionExample", func(t *testing.T) {
		ctx := context.Background()
		b := bistro.New(memory.New())
		if err := b.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer b.Stop()

		sess, err := b.Open(ctx, "tenant-001")
		if err != nil {
			t.Fatal(err)
		}

		batchA, err := sess.Receive(ctx, "tenant-001", "x", 10, types.TRY(100))
		if err != nil {
			t.Fatal(err)
		}
		batchB, err := sess.Receive(ctx, "tenant-001", "x", 5, types.TRY(120))
		if err != nil {
			t.Fatal(err)
		}

		cart := sess.NewCart()
		if err := cart.Add(menu.Item{ID: "x", Name: "X", UnitPrice: types.TRY(500), UnitCost: types.TRY(100)}, 12); err != nil {
			t.Fatal(err)
		}
		o, err := sess.Submit(ctx, "tenant-001", cart, bistro.Card())
		if err != nil {
			t.Fatal(err)
		}
		for _, step := range []func(context.Context, string, bistro.OrderID) (*order.Order, error){
			sess.SendToKitchen,
			sess.MarkReady,
			sess.Complete,
		} {
			if o, err = step(ctx, "tenant-001", o.ID); err != nil {
				t.Fatal(err)
			}
		}

		if o.RealizedCost == nil || o.RealizedCost.Amount != 1240 {
			t.Errorf("expected realized cost 1240, got %v", o.RealizedCost)
		}

		batches, err := sess.Batches("tenant-001")
		if err != nil {
			t.Fatal(err)
		}
		left := map[string]int64{}
		for _, bt := range batches {
			left[bt.ID.String()] = bt.Quantity
		}
		if left[batchA.ID.String()] != 0 || left[batchB.ID.String()] != 3 {
			t.Errorf("expected A=0 B=3, got A=%d B=%d", left[batchA.ID.String()], left[batchB.ID.String()])
		}
	})

	t.Run("VATAndSplitPaymentExample", func(t *testing.T) {
		ctx := context.Background()
		b := bistro.New(memory.New())
		if err := b.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer b.Stop()

		sess, err := b.Open(ctx, "tenant-001")
		if err != nil {
			t.Fatal(err)
		}

		cart := sess.NewCart()
		if err := cart.Add(menu.Item{ID: "meze", Name: "Meze", UnitPrice: types.TRY(1000), UnitCost: types.TRY(400)}, 1); err != nil {
			t.Fatal(err)
		}
		p := cart.Pricing()
		if p.VATAmount.Amount != 180 || p.Total.Amount != 1180 {
			t.Fatalf("expected vat 180 total 1180, got %v %v", p.VATAmount, p.Total)
		}

		_, err = sess.Submit(ctx, "tenant-001", cart, bistro.Split(
			bistro.Entry(order.MethodCash, types.TRY(700)),
			bistro.Entry(order.MethodCard, types.TRY(400)),
		))
		if !bistro.IsValidation(err) {
			t.Fatalf("expected payment mismatch, got %v", err)
		}

		o, err := sess.Submit(ctx, "tenant-001", cart, bistro.Split(
			bistro.Entry(order.MethodCash, types.TRY(700)),
			bistro.Entry(order.MethodCard, types.TRY(480)),
		))
		if err != nil {
			t.Fatal(err)
		}
		if !o.Paid() {
			t.Errorf("expected split order to be paid")
		}
	})
}
