package ownership

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/domain"
	"github.com/mtlprog/fundbook/internal/money"
)

// Stake is one investor's capital basis and share of the fund.
type Stake struct {
	InvestorID       uuid.UUID       `json:"investorId"`
	Name             string          `json:"name"`
	CapitalAmount    decimal.Decimal `json:"capitalAmount"`
	OwnershipPercent decimal.Decimal `json:"ownershipPercent"`
}

// Result is the ownership table as of a date.
type Result struct {
	AsOf         time.Time       `json:"asOf"`
	TotalCapital decimal.Decimal `json:"totalCapital"`
	Stakes       []Stake         `json:"stakes"`
}

// Compute derives each investor's capital basis (deposits − withdrawals) and ownership
// percentage. Percentages are rounded independently to money.Scale places, so their sum
// may differ from 100 by up to SumTolerance(len(investors)). When total capital is not
// positive every percentage is zero.
//
// Callers pass cashflows already filtered to the as-of date. A cashflow referencing an
// investor not in the list is a domain.NotFoundError.
func Compute(investors []domain.Investor, cashflows []domain.InvestorCashflow) ([]Stake, decimal.Decimal, error) {
	capital := make(map[uuid.UUID]decimal.Decimal, len(investors))
	for _, inv := range investors {
		capital[inv.ID] = decimal.Zero
	}

	for _, cf := range cashflows {
		if err := cf.Validate(); err != nil {
			return nil, decimal.Zero, err
		}
		basis, ok := capital[cf.InvestorID]
		if !ok {
			return nil, decimal.Zero, fmt.Errorf("cashflow %s: %w", cf.ID, domain.NewNotFound("investor", cf.InvestorID))
		}
		capital[cf.InvestorID] = basis.Add(cf.Signed())
	}

	total := money.Sum(lo.Values(capital)...)

	stakes := make([]Stake, 0, len(investors))
	for _, inv := range investors {
		pct := decimal.Zero
		if total.IsPositive() {
			p, err := money.Percent(capital[inv.ID], total)
			if err != nil {
				return nil, decimal.Zero, err
			}
			pct = p
		}
		stakes = append(stakes, Stake{
			InvestorID:       inv.ID,
			Name:             inv.Name,
			CapitalAmount:    capital[inv.ID],
			OwnershipPercent: pct,
		})
	}

	sort.Slice(stakes, func(i, j int) bool {
		if stakes[i].Name != stakes[j].Name {
			return stakes[i].Name < stakes[j].Name
		}
		return stakes[i].InvestorID.String() < stakes[j].InvestorID.String()
	})
	return stakes, total, nil
}

// TotalPercent sums ownership percentages.
func TotalPercent(stakes []Stake) decimal.Decimal {
	return lo.Reduce(stakes, func(acc decimal.Decimal, s Stake, _ int) decimal.Decimal {
		return acc.Add(s.OwnershipPercent)
	}, decimal.Zero)
}

// SumTolerance is the maximum deviation of TotalPercent from 100 for n investors:
// n × 10^-6.
func SumTolerance(n int) decimal.Decimal {
	return money.Unit().Mul(decimal.NewFromInt(int64(n)))
}
