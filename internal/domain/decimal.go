package domain

import "math"

// Fixed-point rounding boundaries. The engine keeps all monetary values in
// binary64 and rounds to these widths at the boundaries named in the spec:
// price to 8 fractional digits, quantity and fees to 6.
const (
	PriceDigits = 8
	QtyDigits   = 6

	// dustEpsilon is the residual under which a fill is treated as complete,
	// so floating point noise never leaves a sliver resting on the book.
	dustEpsilon = 1e-6
)

var (
	priceScale = math.Pow10(PriceDigits)
	qtyScale   = math.Pow10(QtyDigits)
)

// RoundPrice rounds v to the book's price precision.
func RoundPrice(v float64) float64 {
	return math.Round(v*priceScale) / priceScale
}

// RoundQty rounds v to the book's quantity/fee precision.
func RoundQty(v float64) float64 {
	return math.Round(v*qtyScale) / qtyScale
}

// IsDust reports whether remaining is small enough to treat an order as
// fully filled, absorbing floating point rounding noise.
func IsDust(remaining float64) bool {
	return remaining < dustEpsilon
}

// Fee computes feeRate * qty * price rounded to quantity precision.
func Fee(feeRate, qty, price float64) float64 {
	return RoundQty(feeRate * qty * price)
}
