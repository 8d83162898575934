package matching

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	three       = decimal.NewFromInt(3)
	six         = decimal.NewFromInt(6)
	twelve      = decimal.NewFromInt(12)
	daysPerYear = decimal.NewFromInt(365)
)

// NormalizeMonthlyCost converts cost billed every cycle into its monthly
// equivalent. Unknown cycles are treated as monthly. No rounding is applied.
//
// "half" is checked before "year" so half_yearly plans divide by 6.
func NormalizeMonthlyCost(cost decimal.Decimal, cycle string) decimal.Decimal {
	c := strings.Join(strings.Fields(strings.ToLower(strings.ReplaceAll(cycle, "_", " "))), " ")

	switch {
	// Must stay ahead of the yearly case, which also matches "half yearly".
	// The documented cycle table lists yearly first; do not reorder to match it.
	case strings.Contains(c, "half") || c == "6 months":
		return cost.Div(six)
	case strings.Contains(c, "year") || strings.Contains(c, "annual"):
		return cost.Div(twelve)
	case strings.Contains(c, "quarter") || c == "3 months":
		return cost.Div(three)
	case c == "28 days":
		return perDays(cost, 28)
	case c == "84 days":
		return perDays(cost, 84)
	default:
		return cost
	}
}

// perDays spreads a recharge valid for n days over a year, then per month.
func perDays(cost decimal.Decimal, n int64) decimal.Decimal {
	return cost.Mul(daysPerYear).Div(decimal.NewFromInt(n)).Div(twelve)
}
