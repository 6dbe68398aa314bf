package fee

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/money"
	"github.com/mtlprog/fundbook/internal/ownership"
)

// ErrInvalidRate is returned for fee rates outside [0, 100].
var ErrInvalidRate = errors.New("fee rate must be between 0 and 100")

var (
	hundred = decimal.NewFromInt(100)
	// percentUnit is the relative error one rounded ownership percentage carries.
	percentUnit = decimal.New(1, -(money.Scale + 2))
)

// Share is one investor's part of the performance fee.
type Share struct {
	InvestorID       uuid.UUID       `json:"investorId"`
	OwnershipPercent decimal.Decimal `json:"ownershipPercent"`
	Fee              decimal.Decimal `json:"fee"`
}

// Allocation is the fee charged on a profit and its split across investors.
// Rate and Total are null when no rate was supplied.
type Allocation struct {
	Rate   decimal.NullDecimal `json:"rate"`
	Profit decimal.Decimal     `json:"profit"`
	Total  decimal.NullDecimal `json:"total"`
	Shares []Share             `json:"shares"`
}

// FeeFor returns the fee allocated to the investor, or zero when none.
func (a Allocation) FeeFor(id uuid.UUID) decimal.NullDecimal {
	if !a.Total.Valid {
		return decimal.NullDecimal{}
	}
	for _, s := range a.Shares {
		if s.InvestorID == id {
			return decimal.NewNullDecimal(s.Fee)
		}
	}
	return decimal.NewNullDecimal(decimal.Zero)
}

// ValidateRate rejects negative rates and rates above 100 percent.
func ValidateRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return fmt.Errorf("%w: got %s", ErrInvalidRate, rate)
	}
	return nil
}

// Allocate applies rate (a percentage, 20 meaning 20%) to profit and splits the fee
// pro rata to ownership. Each share is computed independently from the rounded total.
//
// With a nil rate nothing is charged and Total stays null. With a zero rate or
// non-positive profit the total and every share are zero; there are no negative fees.
//
// An investor with a non-positive ownership percent (withdrawals above deposits) owes
// nothing. When any percent is negative the fee is split over the positive percents
// only, so the shares still add up to the total.
func Allocate(profit decimal.Decimal, rate *decimal.Decimal, stakes []ownership.Stake) Allocation {
	a := Allocation{Profit: profit}
	if rate == nil {
		return a
	}

	a.Rate = decimal.NewNullDecimal(*rate)
	total := decimal.Zero
	if rate.IsPositive() && profit.IsPositive() {
		total = money.ApplyRate(profit, *rate)
	}
	a.Total = decimal.NewNullDecimal(total)

	base := allocationBase(stakes)
	a.Shares = make([]Share, 0, len(stakes))
	for _, s := range stakes {
		a.Shares = append(a.Shares, Share{
			InvestorID:       s.InvestorID,
			OwnershipPercent: s.OwnershipPercent,
			Fee:              shareOf(total, s.OwnershipPercent, base),
		})
	}
	return a
}

// allocationBase is 100 unless a stake is negative, then the sum of positive percents.
func allocationBase(stakes []ownership.Stake) decimal.Decimal {
	positive := decimal.Zero
	negative := false
	for _, s := range stakes {
		switch {
		case s.OwnershipPercent.IsPositive():
			positive = positive.Add(s.OwnershipPercent)
		case s.OwnershipPercent.IsNegative():
			negative = true
		}
	}
	if !negative {
		return hundred
	}
	return positive
}

func shareOf(total, pct, base decimal.Decimal) decimal.Decimal {
	if !pct.IsPositive() || !base.IsPositive() {
		return decimal.Zero
	}
	if base.Equal(hundred) {
		return money.ApplyRate(total, pct)
	}
	return total.Mul(pct).DivRound(base, 18).RoundBank(money.Scale)
}

// TotalShares sums all allocated shares.
func (a Allocation) TotalShares() decimal.Decimal {
	total := decimal.Zero
	for _, s := range a.Shares {
		total = total.Add(s.Fee)
	}
	return total
}

// SumTolerance bounds |TotalShares − Total| for n investors:
// n × (10^-6 + |total| × 10^-8), one rounding unit per share plus the error of a
// rounded ownership percentage.
func SumTolerance(total decimal.Decimal, n int) decimal.Decimal {
	perShare := money.Unit().Add(total.Abs().Mul(percentUnit))
	return perShare.Mul(decimal.NewFromInt(int64(n)))
}

// ProfitBase selects what the fee is charged on.
type ProfitBase string

const (
	// CapitalBase charges on NAV minus total investor capital.
	CapitalBase ProfitBase = "capital"
	// HighWaterMarkBase charges on NAV minus the greater of the previous peak NAV and
	// total investor capital.
	HighWaterMarkBase ProfitBase = "hwm"
)

// ParseProfitBase maps a config string to a ProfitBase.
func ParseProfitBase(s string) (ProfitBase, error) {
	switch ProfitBase(strings.ToLower(strings.TrimSpace(s))) {
	case "", CapitalBase:
		return CapitalBase, nil
	case HighWaterMarkBase:
		return HighWaterMarkBase, nil
	default:
		return "", fmt.Errorf("unknown profit base %q", s)
	}
}

// Profit returns the amount the fee is charged on. highWaterMark is the highest NAV of
// earlier snapshots and is ignored by CapitalBase.
func (b ProfitBase) Profit(nav, totalCapital decimal.Decimal, highWaterMark decimal.NullDecimal) decimal.Decimal {
	base := totalCapital
	if b == HighWaterMarkBase && highWaterMark.Valid && highWaterMark.Decimal.GreaterThan(base) {
		base = highWaterMark.Decimal
	}
	return nav.Sub(base)
}
