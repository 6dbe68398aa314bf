package money

import (
	"math"
	"strings"

	gomoney "github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var maxMinorUnits = decimal.NewFromInt(math.MaxInt64)

// Format renders d in the currency's display format, rounded HALF_UP to its minor units.
// Unknown currencies and amounts that overflow minor units fall back to "<amount> <CODE>".
func Format(d decimal.Decimal, currency string) string {
	code := strings.ToUpper(currency)
	cur := gomoney.GetCurrency(code)
	if cur == nil {
		return d.Round(2).StringFixed(2) + " " + code
	}

	places := int32(cur.Fraction)
	rounded := d.Round(places)
	minor := rounded.Shift(places)
	if minor.Abs().GreaterThan(maxMinorUnits) {
		return rounded.StringFixed(places) + " " + code
	}
	return cur.Formatter().Format(minor.IntPart())
}
