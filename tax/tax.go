// Package tax implements the VAT rule applied to order subtotals.
//
// Rates are expressed in basis points so every computation stays in integer
// minor units. Results are rounded half-up (half away from zero for
// negative amounts), which makes gross/net conversions lose at most one
// minor unit on a round trip.
//
// Intermediate products are exact for any int64 amount; only the result
// has to fit in an int64.
package tax

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/xraph/bistro/types"
)

// StandardBasisPoints is the 18% VAT rate.
const StandardBasisPoints int64 = 1800

const basisPointsPerUnit int64 = 10000

// Default is the rule used by the package-level helpers.
var Default = Rule{BasisPoints: StandardBasisPoints}

// Rule is a single flat tax rate.
type Rule struct {
	BasisPoints int64 `json:"basis_points" yaml:"basis_points"`
}

// Validate rejects negative rates.
func (r Rule) Validate() error {
	if r.BasisPoints < 0 {
		return fmt.Errorf("tax: negative rate %d bps", r.BasisPoints)
	}
	return nil
}

// Percent renders the rate for receipts, e.g. "18%" or "8.5%".
func (r Rule) Percent() string {
	whole, frac := r.BasisPoints/100, r.BasisPoints%100
	switch {
	case frac == 0:
		return fmt.Sprintf("%d%%", whole)
	case frac%10 == 0:
		return fmt.Sprintf("%d.%d%%", whole, frac/10)
	default:
		return fmt.Sprintf("%d.%02d%%", whole, frac)
	}
}

// Tax returns the tax owed on a net amount.
func (r Rule) Tax(net types.Money) types.Money {
	return types.Money{
		Amount:   mulDivRound(net.Amount, r.BasisPoints, basisPointsPerUnit),
		Currency: net.Currency,
	}
}

// GrossFromNet returns net plus its tax.
func (r Rule) GrossFromNet(net types.Money) types.Money {
	return net.Add(r.Tax(net))
}

// NetFromGross backs the tax out of a gross amount.
func (r Rule) NetFromGross(gross types.Money) types.Money {
	return types.Money{
		Amount:   mulDivRound(gross.Amount, basisPointsPerUnit, basisPointsPerUnit+r.BasisPoints),
		Currency: gross.Currency,
	}
}

// Tax applies the default rule.
func Tax(net types.Money) types.Money { return Default.Tax(net) }

// GrossFromNet applies the default rule.
func GrossFromNet(net types.Money) types.Money { return Default.GrossFromNet(net) }

// NetFromGross applies the default rule.
func NetFromGross(gross types.Money) types.Money { return Default.NetFromGross(gross) }

// mulDivRound returns a*b/den rounded half away from zero. b and den are
// positive. Products that overflow int64 are computed in decimal.
func mulDivRound(a, b, den int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a != math.MinInt64 && abs(a) <= math.MaxInt64/b {
		return divRound(a*b, den)
	}

	d := decimal.NewFromInt(den)
	q, r := decimal.NewFromInt(a).Mul(decimal.NewFromInt(b)).QuoRem(d, 0)
	if r.Abs().Add(r.Abs()).Cmp(d) >= 0 {
		if r.Sign() < 0 {
			q = q.Sub(decimal.NewFromInt(1))
		} else {
			q = q.Add(decimal.NewFromInt(1))
		}
	}
	return q.IntPart()
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}

// divRound divides num by a positive den, rounding half away from zero.
func divRound(num, den int64) int64 {
	q, r := num/den, num%den
	if r < 0 {
		r = -r
	}
	if 2*r >= den {
		if num < 0 {
			q--
		} else {
			q++
		}
	}
	return q
}
