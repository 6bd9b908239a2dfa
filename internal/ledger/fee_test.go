package ledger

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDefaultFee(t *testing.T) {
	cases := []struct {
		amount string
		want   string
	}{
		{"100", "10"},     // 1.5 rounds under the minimum
		{"0", "10"},       // minimum applies to zero amounts
		{"666.66", "10"},  // 9.9999 -> 10.00, still the minimum
		{"666.67", "10"},  // 10.00005 rounds to 10.00
		{"1000", "15"},    // rate wins above the break-even point
		{"677", "10.16"},  // 10.155 rounds half away from zero
		{"2000.33", "30"}, // 30.00495 -> 30.00
		{"123456.78", "1851.85"},
	}
	for _, c := range cases {
		got := defaultFee(decimal.RequireFromString(c.amount), DefaultMinFee, DefaultFeeRate)
		if !got.Equal(decimal.RequireFromString(c.want)) {
			t.Errorf("defaultFee(%s) = %s, want %s", c.amount, got, c.want)
		}
	}
}
