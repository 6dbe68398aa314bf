package nav

import (
	"sort"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/domain"
	"github.com/mtlprog/fundbook/internal/ledger"
)

// Subtotal is one line of a NAV breakdown.
type Subtotal struct {
	Key    string          `json:"key"`
	Amount decimal.Decimal `json:"amount"`
	Count  int             `json:"count"`
}

// Breakdown groups the NAV inputs for reporting. It does not affect the NAV figure.
type Breakdown struct {
	ByAssetType []Subtotal `json:"byAssetType"`
	// ByCurrency reports bank balances per currency. The bank total itself is a flat
	// sum across currencies with no FX conversion.
	ByCurrency  []Subtotal `json:"byCurrency"`
	ByLiability []Subtotal `json:"byLiability"`
}

// Result is a point-in-time NAV statement.
type Result struct {
	AsOf             time.Time       `json:"asOf"`
	TotalAssetValue  decimal.Decimal `json:"totalAssetValue"`
	TotalBankBalance decimal.Decimal `json:"totalBankBalance"`
	TotalLiabilities decimal.Decimal `json:"totalLiabilities"`
	NAV              decimal.Decimal `json:"nav"`
	Breakdown        Breakdown       `json:"breakdown"`
}

// Compute derives NAV = assets + bank − liabilities as of asOf. Only assets held at asOf
// count, and bank balances are reduced to the latest per account first. Empty inputs
// yield zero.
func Compute(asOf time.Time, assets []domain.Asset, balances []domain.BankBalance, liabilities []domain.Liability) Result {
	active := lo.Filter(assets, func(a domain.Asset, _ int) bool { return a.HeldAt(asOf) })
	latest := ledger.LatestPerAccount(balances)

	totalAssets := lo.Reduce(active, func(acc decimal.Decimal, a domain.Asset, _ int) decimal.Decimal {
		return acc.Add(a.CurrentValue)
	}, decimal.Zero)

	totalBank := lo.Reduce(latest, func(acc decimal.Decimal, b domain.BankBalance, _ int) decimal.Decimal {
		return acc.Add(b.Amount)
	}, decimal.Zero)

	totalLiabilities := lo.Reduce(liabilities, func(acc decimal.Decimal, l domain.Liability, _ int) decimal.Decimal {
		return acc.Add(l.CurrentBalance)
	}, decimal.Zero)

	return Result{
		AsOf:             asOf,
		TotalAssetValue:  totalAssets,
		TotalBankBalance: totalBank,
		TotalLiabilities: totalLiabilities,
		NAV:              totalAssets.Add(totalBank).Sub(totalLiabilities),
		Breakdown: Breakdown{
			ByAssetType: subtotals(active, func(a domain.Asset) (string, decimal.Decimal) {
				return string(a.Type), a.CurrentValue
			}),
			ByCurrency: subtotals(latest, func(b domain.BankBalance) (string, decimal.Decimal) {
				return b.Currency, b.Amount
			}),
			ByLiability: subtotals(liabilities, func(l domain.Liability) (string, decimal.Decimal) {
				name := l.Name
				if name == "" {
					name = l.ID.String()
				}
				return name, l.CurrentBalance
			}),
		},
	}
}

// subtotals groups items by key, sorted by key.
func subtotals[T any](items []T, keyAmount func(T) (string, decimal.Decimal)) []Subtotal {
	byKey := make(map[string]*Subtotal)
	for _, item := range items {
		key, amount := keyAmount(item)
		st, ok := byKey[key]
		if !ok {
			st = &Subtotal{Key: key, Amount: decimal.Zero}
			byKey[key] = st
		}
		st.Amount = st.Amount.Add(amount)
		st.Count++
	}

	result := lo.MapToSlice(byKey, func(_ string, st *Subtotal) Subtotal { return *st })
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result
}
