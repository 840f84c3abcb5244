package inventory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xraph/bistro/id"
	"github.com/xraph/bistro/types"
)

const tenant = "tenant-001"

// steppingClock returns a clock that advances one minute per call.
func steppingClock() func() time.Time {
	t := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func newLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := NewLedger(tenant, "try", nil, WithClock(steppingClock()))
	require.NoError(t, err)
	return l
}

func TestConsumeFIFOAcrossBatches(t *testing.T) {
	l := newLedger(t)
	a, err := l.Receive(tenant, "X", 10, types.TRY(100))
	require.NoError(t, err)
	b, err := l.Receive(tenant, "X", 5, types.TRY(120))
	require.NoError(t, err)

	c, err := l.ConsumeFIFO(tenant, "X", 12)
	require.NoError(t, err)

	assert.Equal(t, int64(12), c.Consumed)
	assert.Equal(t, int64(0), c.Shortfall)
	assert.Equal(t, types.TRY(1240), c.RealizedCost)
	require.Len(t, c.Allocations, 2)
	assert.Equal(t, a, c.Allocations[0].BatchID)
	assert.Equal(t, int64(10), c.Allocations[0].Quantity)
	assert.Equal(t, int64(2), c.Allocations[1].Quantity)

	batchA, err := l.Batch(a)
	require.NoError(t, err)
	assert.Equal(t, int64(0), batchA.Quantity)
	batchB, err := l.Batch(b)
	require.NoError(t, err)
	assert.Equal(t, int64(3), batchB.Quantity)

	stock, err := l.CurrentStock(tenant, "X")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stock)

	value, err := l.Valuation(tenant, "X")
	require.NoError(t, err)
	assert.Equal(t, types.TRY(360), value)

	// exhausted batches stay for audit
	assert.Len(t, l.Batches(), 2)
}

func TestConsumeFIFOPrefersEarliestReceipt(t *testing.T) {
	l := newLedger(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late, err := l.Receive(tenant, "X", 5, types.TRY(200), WithReceivedAt(base.Add(time.Hour)))
	require.NoError(t, err)
	early, err := l.Receive(tenant, "X", 5, types.TRY(100), WithReceivedAt(base))
	require.NoError(t, err)

	c, err := l.ConsumeFIFO(tenant, "X", 3)
	require.NoError(t, err)
	assert.Equal(t, types.TRY(300), c.RealizedCost)

	lateBatch, _ := l.Batch(late)
	earlyBatch, _ := l.Batch(early)
	assert.Equal(t, int64(5), lateBatch.Quantity)
	assert.Equal(t, int64(2), earlyBatch.Quantity)
}

func TestConsumeFIFOTieBreaksOnInsertionOrder(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLedger(t)
	first, err := l.Receive(tenant, "X", 2, types.TRY(10), WithReceivedAt(at))
	require.NoError(t, err)
	_, err = l.Receive(tenant, "X", 2, types.TRY(20), WithReceivedAt(at))
	require.NoError(t, err)

	c, err := l.ConsumeFIFO(tenant, "X", 2)
	require.NoError(t, err)
	require.Len(t, c.Allocations, 1)
	assert.Equal(t, first, c.Allocations[0].BatchID)
	assert.Equal(t, types.TRY(20), c.RealizedCost)
}

func TestConsumeFIFOShortfallIsNotAnError(t *testing.T) {
	l := newLedger(t)
	_, err := l.Receive(tenant, "X", 4, types.TRY(50))
	require.NoError(t, err)

	c, err := l.ConsumeFIFO(tenant, "X", 10)
	require.NoError(t, err)
	assert.True(t, c.Short())
	assert.Equal(t, int64(4), c.Consumed)
	assert.Equal(t, int64(6), c.Shortfall)
	assert.Equal(t, types.TRY(200), c.RealizedCost)

	none, err := l.ConsumeFIFO(tenant, "unknown", 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), none.Shortfall)
	assert.True(t, none.RealizedCost.IsZero())
}

func TestReceiveValidation(t *testing.T) {
	tests := []struct {
		name    string
		tenant  string
		item    string
		qty     int64
		cost    types.Money
		opts    []ReceiveOption
		wantErr error
	}{
		{"zero quantity", tenant, "X", 0, types.TRY(1), nil, ErrInvalidQuantity},
		{"negative quantity", tenant, "X", -3, types.TRY(1), nil, ErrInvalidQuantity},
		{"negative cost", tenant, "X", 1, types.TRY(-1), nil, ErrInvalidUnitCost},
		{"foreign currency", tenant, "X", 1, types.USD(1), nil, types.ErrCurrencyMismatch},
		{"foreign tenant", "tenant-002", "X", 1, types.TRY(1), nil, ErrTenantMismatch},
		{"missing item", tenant, "", 1, types.TRY(1), nil, ErrMissingItemRef},
		{"bad kind", tenant, "X", 1, types.TRY(1), []ReceiveOption{WithKind("gadget")}, ErrInvalidKind},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLedger(t)
			_, err := l.Receive(tt.tenant, tt.item, tt.qty, tt.cost, tt.opts...)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, l.Batches())
		})
	}
}

func TestReceiveZeroCostIsAllowed(t *testing.T) {
	l := newLedger(t)
	bid, err := l.Receive(tenant, "napkins", 100, types.TRY(0),
		WithKind(KindRawMaterial), WithReference("PO-17"))
	require.NoError(t, err)

	b, err := l.Batch(bid)
	require.NoError(t, err)
	assert.Equal(t, KindRawMaterial, b.Kind)
	assert.Equal(t, "PO-17", b.Reference)
	assert.Equal(t, tenant, b.TenantID)
}

func TestTenantMismatch(t *testing.T) {
	l := newLedger(t)
	_, err := l.Receive(tenant, "X", 3, types.TRY(10))
	require.NoError(t, err)

	_, err = l.CurrentStock("other", "X")
	assert.ErrorIs(t, err, ErrTenantMismatch)
	_, err = l.Valuation("other", "X")
	assert.ErrorIs(t, err, ErrTenantMismatch)
	_, err = l.ConsumeFIFO("other", "X", 1)
	assert.ErrorIs(t, err, ErrTenantMismatch)
	_, err = l.Levels("other")
	assert.ErrorIs(t, err, ErrTenantMismatch)

	stock, err := l.CurrentStock(tenant, "X")
	require.NoError(t, err)
	assert.Equal(t, int64(3), stock)
}

func TestNewLedgerRejectsForeignBatches(t *testing.T) {
	foreign := &Batch{ID: id.NewBatchID(), TenantID: "other", ItemRef: "X", Quantity: 1, UnitCost: types.TRY(1)}
	_, err := NewLedger(tenant, "try", []*Batch{foreign})
	assert.ErrorIs(t, err, ErrTenantMismatch)

	_, err = NewLedger("", "try", nil)
	assert.ErrorIs(t, err, ErrTenantMismatch)

	dup := &Batch{ID: id.NewBatchID(), TenantID: tenant, ItemRef: "X", Quantity: 1, UnitCost: types.TRY(1)}
	_, err = NewLedger(tenant, "try", []*Batch{dup, dup})
	assert.ErrorIs(t, err, ErrDuplicateBatch)
}

func TestNewLedgerRejectsOtherCurrency(t *testing.T) {
	b := &Batch{ID: id.NewBatchID(), TenantID: tenant, ItemRef: "X", Quantity: 10, UnitCost: types.TRY(100)}

	_, err := NewLedger(tenant, "usd", []*Batch{b})
	require.ErrorIs(t, err, types.ErrCurrencyMismatch)
	assert.Equal(t, int64(10), b.Quantity)

	l, err := NewLedger(tenant, "TRY", []*Batch{b})
	require.NoError(t, err)
	v, err := l.Valuation(tenant, "X")
	require.NoError(t, err)
	assert.Equal(t, types.TRY(1000), v)
}

func TestNewLedgerCopiesInput(t *testing.T) {
	b := &Batch{ID: id.NewBatchID(), TenantID: tenant, ItemRef: "X", Quantity: 5, UnitCost: types.TRY(1)}
	l, err := NewLedger(tenant, "try", []*Batch{b})
	require.NoError(t, err)

	_, err = l.ConsumeFIFO(tenant, "X", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), b.Quantity, "caller's batch must not be mutated")
}

func TestDeleteBatch(t *testing.T) {
	l := newLedger(t)
	a, err := l.Receive(tenant, "X", 3, types.TRY(10))
	require.NoError(t, err)
	_, err = l.Receive(tenant, "X", 4, types.TRY(10))
	require.NoError(t, err)

	removed, err := l.DeleteBatch(tenant, a)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed.Quantity)

	stock, _ := l.CurrentStock(tenant, "X")
	assert.Equal(t, int64(4), stock)

	_, err = l.DeleteBatch(tenant, a)
	assert.ErrorIs(t, err, ErrBatchNotFound)
	_, err = l.DeleteBatch("other", a)
	assert.ErrorIs(t, err, ErrTenantMismatch)
}

func TestLevels(t *testing.T) {
	l := newLedger(t)
	_, _ = l.Receive(tenant, "tomato", 10, types.TRY(5), WithKind(KindRawMaterial))
	_, _ = l.Receive(tenant, "burger", 2, types.TRY(300))
	_, _ = l.Receive(tenant, "burger", 1, types.TRY(320))
	_, _ = l.Receive(tenant, "ayran", 1, types.TRY(40))
	_, err := l.ConsumeFIFO(tenant, "ayran", 1)
	require.NoError(t, err)

	levels, err := l.Levels(tenant)
	require.NoError(t, err)
	require.Len(t, levels, 2)
	assert.Equal(t, "burger", levels[0].ItemRef)
	assert.Equal(t, int64(3), levels[0].Quantity)
	assert.Equal(t, types.TRY(920), levels[0].Valuation)
	assert.Equal(t, 2, levels[0].Batches)
	assert.Equal(t, KindRawMaterial, levels[1].Kind)

	items, err := l.Items(tenant)
	require.NoError(t, err)
	assert.Equal(t, []string{"burger", "tomato"}, items)
}

func TestConsumeInvalidQuantity(t *testing.T) {
	l := newLedger(t)
	_, err := l.ConsumeFIFO(tenant, "X", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

// ──────────────────────────────────────────────────
// Properties
// ──────────────────────────────────────────────────

func TestConservationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l, err := NewLedger(tenant, "try", nil, WithClock(steppingClock()))
		if err != nil {
			t.Fatal(err)
		}

		var received, consumed int64
		steps := rapid.IntRange(1, 40).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			qty := rapid.Int64Range(1, 50).Draw(t, "qty")
			if rapid.Bool().Draw(t, "receive") {
				cost := rapid.Int64Range(0, 1000).Draw(t, "cost")
				if _, err := l.Receive(tenant, "X", qty, types.TRY(cost)); err != nil {
					t.Fatal(err)
				}
				received += qty
				continue
			}
			c, err := l.ConsumeFIFO(tenant, "X", qty)
			if err != nil {
				t.Fatal(err)
			}
			if c.Consumed+c.Shortfall != qty {
				t.Fatalf("consumed %d + shortfall %d != requested %d", c.Consumed, c.Shortfall, qty)
			}
			consumed += c.Consumed
		}

		stock, err := l.CurrentStock(tenant, "X")
		if err != nil {
			t.Fatal(err)
		}
		if received-consumed != stock {
			t.Fatalf("received %d - consumed %d != stock %d", received, consumed, stock)
		}
	})
}

func TestFIFOOrderProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		l, err := NewLedger(tenant, "try", nil, WithClock(steppingClock()))
		if err != nil {
			t.Fatal(err)
		}
		qtys := rapid.SliceOfN(rapid.Int64Range(1, 20), 2, 6).Draw(t, "batches")
		for _, q := range qtys {
			if _, err := l.Receive(tenant, "X", q, types.TRY(q*10)); err != nil {
				t.Fatal(err)
			}
		}
		before := l.Batches()

		want := rapid.Int64Range(1, 120).Draw(t, "consume")
		if _, err := l.ConsumeFIFO(tenant, "X", want); err != nil {
			t.Fatal(err)
		}
		after := l.Batches()

		// A batch may only be touched once every older batch is exhausted.
		remaining := want
		for i := range before {
			took := before[i].Quantity - after[i].Quantity
			expect := min(before[i].Quantity, remaining)
			if took != expect {
				t.Fatalf("batch %d: took %d, want %d", i, took, expect)
			}
			remaining -= took
		}
	})
}
