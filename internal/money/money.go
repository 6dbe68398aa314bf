package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places every engine figure is rounded to.
const Scale = 6

// divisionPrecision is the number of places kept by Div before the caller rounds.
const divisionPrecision = 18

var hundred = decimal.NewFromInt(100)

var (
	// ErrDivisionByZero is returned when a divisor is zero.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidRoundingMode is returned for an unknown RoundingMode.
	ErrInvalidRoundingMode = errors.New("invalid rounding mode")
)

// Error reports a failed arithmetic operation.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *Error) Unwrap() error { return e.Err }

// RoundingMode selects how a value is rounded to a fixed number of places.
type RoundingMode int

const (
	// HalfEven is banker's rounding. It is the default for all engine math.
	HalfEven RoundingMode = iota
	// HalfUp rounds half away from zero, used for currency display.
	HalfUp
)

func (m RoundingMode) String() string {
	switch m {
	case HalfEven:
		return "HALF_EVEN"
	case HalfUp:
		return "HALF_UP"
	default:
		return fmt.Sprintf("RoundingMode(%d)", int(m))
	}
}

// ParseRoundingMode maps "HALF_EVEN" / "HALF_UP" (case-insensitive) to a RoundingMode.
func ParseRoundingMode(s string) (RoundingMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "HALF_EVEN":
		return HalfEven, nil
	case "HALF_UP":
		return HalfUp, nil
	default:
		return 0, &Error{Op: "parse rounding mode " + s, Err: ErrInvalidRoundingMode}
	}
}

// Round rounds d to Scale places.
func Round(d decimal.Decimal, mode RoundingMode) (decimal.Decimal, error) {
	return RoundTo(d, Scale, mode)
}

// RoundTo rounds d to the given number of places.
func RoundTo(d decimal.Decimal, places int32, mode RoundingMode) (decimal.Decimal, error) {
	switch mode {
	case HalfEven:
		return d.RoundBank(places), nil
	case HalfUp:
		return d.Round(places), nil
	default:
		return decimal.Zero, &Error{Op: "round", Err: ErrInvalidRoundingMode}
	}
}

// Div divides a by b keeping 18 places. The result is not rounded to Scale.
func Div(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, &Error{Op: fmt.Sprintf("divide %s by zero", a), Err: ErrDivisionByZero}
	}
	return a.DivRound(b, divisionPrecision), nil
}

// Percent returns part / whole × 100 rounded to Scale with banker's rounding.
func Percent(part, whole decimal.Decimal) (decimal.Decimal, error) {
	q, err := Div(part.Mul(hundred), whole)
	if err != nil {
		return decimal.Zero, err
	}
	return q.RoundBank(Scale), nil
}

// ApplyRate returns amount × ratePct / 100 rounded to Scale with banker's rounding.
func ApplyRate(amount, ratePct decimal.Decimal) decimal.Decimal {
	return amount.Mul(ratePct).Div(hundred).RoundBank(Scale)
}

// Sum adds all values. An empty call returns zero.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	return lo.Reduce(values, func(acc decimal.Decimal, v decimal.Decimal, _ int) decimal.Decimal {
		return acc.Add(v)
	}, decimal.Zero)
}

// WithinTolerance reports whether |a − b| ≤ tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

// Unit returns 10^-Scale, the smallest representable engine increment.
func Unit() decimal.Decimal {
	return decimal.New(1, -Scale)
}

// Parse parses a decimal string strictly. Empty and malformed input is an error.
func Parse(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal value")
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing decimal %q: %w", value, err)
	}
	return d, nil
}
