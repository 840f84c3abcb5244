package tax

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/xraph/bistro/types"
)

func TestTax(t *testing.T) {
	tests := []struct {
		name string
		net  int64
		want int64
	}{
		{"subtotal 1000", 1000, 180},
		{"zero", 0, 0},
		{"round down", 2, 0},       // 0.36
		{"round half up", 25, 5},   // 4.5
		{"just below half", 24, 4}, // 4.32
		{"negative half", -25, -5}, // -4.5
		{"one unit", 1, 0},
		{"large", 123456789, 22222222},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tax(types.TRY(tt.net))
			assert.Equal(t, types.TRY(tt.want), got)
		})
	}
}

func TestLargeAmountsDoNotOverflow(t *testing.T) {
	tests := []struct {
		name string
		fn   func(types.Money) types.Money
		in   int64
		want int64
	}{
		{"tax", Tax, 900_000_000_000_000_000, 162_000_000_000_000_000},
		{"negative tax", Tax, -900_000_000_000_000_000, -162_000_000_000_000_000},
		{"net from gross", NetFromGross, 1_180_000_000_000_000_000, 1_000_000_000_000_000_000},
		{"max int64", Tax, math.MaxInt64, 1_660_206_966_633_859_645},
		{"min int64", Tax, math.MinInt64, -1_660_206_966_633_859_645},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, types.TRY(tt.want), tt.fn(types.TRY(tt.in)))
		})
	}

	// 1e16+5 at 10% is 1e15 + 0.5, which rounds away from zero.
	ten := Rule{BasisPoints: 1000}
	assert.Equal(t, types.TRY(1_000_000_000_000_001), ten.Tax(types.TRY(10_000_000_000_000_005)))
	assert.Equal(t, types.TRY(-1_000_000_000_000_001), ten.Tax(types.TRY(-10_000_000_000_000_005)))
}

func TestTaxOnWholeUnitsIsExact(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		// k*10000 spans the whole positive int64 range.
		k := rapid.Int64Range(0, math.MaxInt64/basisPointsPerUnit).Draw(t, "k")
		bps := rapid.Int64Range(0, basisPointsPerUnit).Draw(t, "bps")
		got := Rule{BasisPoints: bps}.Tax(types.TRY(k * basisPointsPerUnit))
		if got.Amount != k*bps {
			t.Fatalf("tax of %d units at %d bps = %d, want %d", k, bps, got.Amount, k*bps)
		}
	})
}

func TestGrossAndNet(t *testing.T) {
	assert.Equal(t, types.TRY(1180), GrossFromNet(types.TRY(1000)))
	assert.Equal(t, types.TRY(1000), NetFromGross(types.TRY(1180)))
	assert.Equal(t, types.TRY(85), NetFromGross(types.TRY(100))) // 84.746
}

func TestRulePercent(t *testing.T) {
	assert.Equal(t, "18%", Default.Percent())
	assert.Equal(t, "8.5%", Rule{BasisPoints: 850}.Percent())
	assert.Equal(t, "7.25%", Rule{BasisPoints: 725}.Percent())
	assert.Error(t, Rule{BasisPoints: -1}.Validate())
	assert.NoError(t, Rule{}.Validate())
}

// maxRoundTrip keeps the gross side of a round trip inside int64 at 18%.
const maxRoundTrip = math.MaxInt64 / 2

func TestNetRoundTripWithinOneUnit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		net := types.TRY(rapid.Int64Range(0, maxRoundTrip).Draw(t, "net"))
		back := NetFromGross(GrossFromNet(net))
		if d := back.Amount - net.Amount; d < -1 || d > 1 {
			t.Fatalf("net %d came back as %d", net.Amount, back.Amount)
		}
	})
}

func TestGrossRoundTripWithinOneUnit(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		gross := types.TRY(rapid.Int64Range(0, maxRoundTrip).Draw(t, "gross"))
		back := GrossFromNet(NetFromGross(gross))
		if d := back.Amount - gross.Amount; d < -1 || d > 1 {
			t.Fatalf("gross %d came back as %d", gross.Amount, back.Amount)
		}
	})
}

func TestTaxIsSymmetric(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(0, 1_000_000_000).Draw(t, "n")
		pos := Tax(types.TRY(n))
		neg := Tax(types.TRY(-n))
		if pos.Amount != -neg.Amount {
			t.Fatalf("tax(%d)=%d but tax(-%d)=%d", n, pos.Amount, n, neg.Amount)
		}
	})
}
