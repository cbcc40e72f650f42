// Package quantity provides exact decimal arithmetic for order quantities.
// Source CSVs use either '.' or ',' as the decimal separator; floats would
// accumulate rounding error across a day's aggregation, so everything is
// shopspring/decimal.
package quantity

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrNotNumeric is returned when the quantity column holds a value that is
// not a number. Callers drop the line; a parse failure is never zero.
var ErrNotNumeric = errors.New("quantity: not numeric")

// Parse reads a decimal quantity, accepting ',' or '.' as the decimal
// separator.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrNotNumeric
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrNotNumeric
	}
	return d, nil
}

// Format renders a quantity for a cell or a label suffix: integer values
// lose the trailing ".0", fractional values keep their exact digits.
func Format(d decimal.Decimal) string {
	if d.IsInteger() {
		return d.Truncate(0).String()
	}
	return d.String()
}

// Number returns the float value written into numeric grid cells. Excel
// stores numbers as float64; the exactness requirement applies to the
// aggregation, which stays decimal until this final conversion.
func Number(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
