package ledger

import "github.com/shopspring/decimal"

// Demo fee schedule: a flat minimum with a proportional rate above it.
var (
	DefaultMinFee  = decimal.NewFromInt(10)
	DefaultFeeRate = decimal.RequireFromString("0.015")
)

// defaultFee computes max(minFee, round(amount*rate, 2)). Rounding is
// half-away-from-zero, which is what decimal.Round does.
func defaultFee(amount, minFee, rate decimal.Decimal) decimal.Decimal {
	return decimal.Max(minFee, amount.Mul(rate).Round(2))
}

// QuoteFee returns the fee the engine would charge for amount when the
// caller supplies none. Front-ends use it for previews and overdraft
// warnings.
func (l *Ledger) QuoteFee(amount decimal.Decimal) decimal.Decimal {
	return defaultFee(amount, l.minFee, l.feeRate)
}
