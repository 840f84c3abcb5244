package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xraph/bistro/types"
)

func TestReconcile(t *testing.T) {
	total := types.TRY(1180)

	tests := []struct {
		name    string
		payment Payment
		status  PaymentStatus
		wantErr error
	}{
		{"cash", Cash(), PaymentPaid, nil},
		{"card", Card(), PaymentPaid, nil},
		{"mobile", Mobile(), PaymentPaid, nil},
		{"deferred", Deferred(), PaymentPending, nil},
		{"split exact", Split(Entry(MethodCash, types.TRY(700)), Entry(MethodCard, types.TRY(480))), PaymentPaid, nil},
		{"split over", Split(Entry(MethodCash, types.TRY(1000)), Entry(MethodMobile, types.TRY(500))), PaymentPaid, nil},
		{"split short", Split(Entry(MethodCash, types.TRY(700)), Entry(MethodCard, types.TRY(400))), "", ErrPaymentMismatch},
		{"split empty", Split(), "", ErrPaymentMismatch},
		{"zero entry", Split(Entry(MethodCash, types.TRY(1180)), Entry(MethodCard, types.TRY(0))), "", ErrInvalidPaymentAmount},
		{"negative entry", Split(Entry(MethodCash, types.TRY(2000)), Entry(MethodCard, types.TRY(-820))), "", ErrInvalidPaymentAmount},
		{"nested multi", Split(Entry(MethodMulti, types.TRY(1180))), "", ErrUnknownPaymentMethod},
		{"foreign currency", Split(Entry(MethodCash, types.USD(1180))), "", types.ErrCurrencyMismatch},
		{"unknown method", Payment{Method: "barter"}, "", ErrUnknownPaymentMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, err := tt.payment.Reconcile(total)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.status, status)
		})
	}
}

func TestPaymentChange(t *testing.T) {
	total := types.TRY(1180)
	assert.Equal(t, types.TRY(320), Split(Entry(MethodCash, types.TRY(1500))).Change(total))
	assert.Equal(t, types.TRY(0), Split(Entry(MethodCash, types.TRY(1180))).Change(total))
	assert.Equal(t, types.TRY(0), Cash().Change(total))
}

func TestSubmitKeepsSplitEntries(t *testing.T) {
	c := NewCart(tenant, "try")
	require.NoError(t, c.Add(burger, 2))
	require.NoError(t, c.Add(ayran, 2))

	o, err := Submit(c, Split(
		PaymentEntry{Method: MethodCash, Amount: types.TRY(700)},
		PaymentEntry{Method: MethodCard, Amount: types.TRY(480)},
	), at)
	require.NoError(t, err)
	require.Len(t, o.Payments, 2)
	for _, p := range o.Payments {
		assert.False(t, p.ID.IsNil(), "entries get payment ids")
	}
	assert.Equal(t, MethodMulti, o.PaymentMethod)
}

func TestPaymentSumGateProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := types.TRY(rapid.Int64Range(1, 100_000).Draw(t, "total"))
		amounts := rapid.SliceOfN(rapid.Int64Range(1, 50_000), 1, 5).Draw(t, "amounts")

		entries := make([]PaymentEntry, len(amounts))
		var sum int64
		for i, a := range amounts {
			entries[i] = Entry(MethodCash, types.TRY(a))
			sum += a
		}

		_, err := Split(entries...).Reconcile(total)
		if sum >= total.Amount && err != nil {
			t.Fatalf("sum %d >= total %d rejected: %v", sum, total.Amount, err)
		}
		if sum < total.Amount && err == nil {
			t.Fatalf("sum %d < total %d accepted", sum, total.Amount)
		}
	})
}
