package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mtlprog/fundbook/internal/domain"
)

// Reader is the read-only persistence port the calculators depend on.
// Implementations must not mutate state.
type Reader interface {
	// ActiveAssets returns assets held at asOf: created on or before asOf and either
	// ACTIVE or sold after asOf.
	ActiveAssets(ctx context.Context, asOf time.Time) ([]domain.Asset, error)
	// SoldAssets returns SOLD assets whose sale date is on or before asOf.
	SoldAssets(ctx context.Context, asOf time.Time) ([]domain.Asset, error)
	// Asset returns one asset or a domain.NotFoundError.
	Asset(ctx context.Context, id uuid.UUID) (domain.Asset, error)
	// AssetEvents returns the asset's events in chronological order.
	AssetEvents(ctx context.Context, assetID uuid.UUID) ([]domain.AssetEvent, error)
	// Liabilities returns liabilities created on or before asOf.
	Liabilities(ctx context.Context, asOf time.Time) ([]domain.Liability, error)
	// LatestBankBalancesPerAccount returns, for each (accountName, bankName),
	// the most recent balance dated on or before asOf.
	LatestBankBalancesPerAccount(ctx context.Context, asOf time.Time) ([]domain.BankBalance, error)
	// Investors returns every investor.
	Investors(ctx context.Context) ([]domain.Investor, error)
	// Cashflows returns investor cashflows dated on or before upto.
	Cashflows(ctx context.Context, upto time.Time) ([]domain.InvestorCashflow, error)
}

// LatestPerAccount keeps only the most recent balance of each (accountName, bankName).
// Same-date rows are resolved by the greater ID so the result is deterministic.
// Output is sorted by bank name then account name.
func LatestPerAccount(balances []domain.BankBalance) []domain.BankBalance {
	latest := lo.Values(lo.Reduce(balances, func(acc map[domain.AccountKey]domain.BankBalance, b domain.BankBalance, _ int) map[domain.AccountKey]domain.BankBalance {
		cur, ok := acc[b.Key()]
		if !ok || newer(b, cur) {
			acc[b.Key()] = b
		}
		return acc
	}, make(map[domain.AccountKey]domain.BankBalance)))

	sort.Slice(latest, func(i, j int) bool {
		if latest[i].BankName != latest[j].BankName {
			return latest[i].BankName < latest[j].BankName
		}
		return latest[i].AccountName < latest[j].AccountName
	})
	return latest
}

func newer(a, b domain.BankBalance) bool {
	if !a.Date.Equal(b.Date) {
		return a.Date.After(b.Date)
	}
	return a.ID.String() > b.ID.String()
}
