package shared

import "github.com/shopspring/decimal"

// Sum adds amounts exactly and returns the float rounded to cents.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(2).InexactFloat64()
}

// Round2 rounds a monetary amount to cents.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// WholeCents reports whether v has no more than two decimal places.
func WholeCents(v float64) bool {
	d := decimal.NewFromFloat(v)
	return d.Equal(d.Round(2))
}

// Balanced reports whether debit and credit agree within BalanceTolerance.
// The returned difference is debit minus credit, rounded to cents.
func Balanced(debits, credits []float64) (totalDebit, totalCredit, diff float64, ok bool) {
	d := decimal.Zero
	for _, v := range debits {
		d = d.Add(decimal.NewFromFloat(v))
	}
	c := decimal.Zero
	for _, v := range credits {
		c = c.Add(decimal.NewFromFloat(v))
	}
	gap := d.Sub(c)
	ok = gap.Abs().LessThanOrEqual(decimal.NewFromFloat(BalanceTolerance))
	return d.Round(2).InexactFloat64(), c.Round(2).InexactFloat64(), gap.Round(2).InexactFloat64(), ok
}

// Ratio divides num by den and yields 0 when den is zero.
func Ratio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return decimal.NewFromFloat(num).Div(decimal.NewFromFloat(den)).Round(6).InexactFloat64()
}
