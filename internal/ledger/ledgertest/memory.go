package ledgertest

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/fundbook/internal/domain"
	"github.com/mtlprog/fundbook/internal/ledger"
)

// Memory is an in-memory ledger.Reader applying the same as-of rules as the PostgreSQL
// reader. Err, when set, is returned from every call.
type Memory struct {
	Assets        []domain.Asset
	Events        []domain.AssetEvent
	LiabilityRows []domain.Liability
	Balances      []domain.BankBalance
	InvestorRows  []domain.Investor
	CashflowRows  []domain.InvestorCashflow
	Err           error

	Calls int
}

var _ ledger.Reader = (*Memory)(nil)

func (m *Memory) ActiveAssets(_ context.Context, asOf time.Time) ([]domain.Asset, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.Asset
	for _, a := range m.Assets {
		if a.HeldAt(asOf) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) SoldAssets(_ context.Context, asOf time.Time) ([]domain.Asset, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.Asset
	for _, a := range m.Assets {
		if a.Status == domain.AssetStatusSold && a.SaleDate != nil && !a.SaleDate.After(asOf) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *Memory) Asset(_ context.Context, id uuid.UUID) (domain.Asset, error) {
	m.Calls++
	if m.Err != nil {
		return domain.Asset{}, m.Err
	}
	for _, a := range m.Assets {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Asset{}, domain.NewNotFound("asset", id)
}

func (m *Memory) AssetEvents(_ context.Context, assetID uuid.UUID) ([]domain.AssetEvent, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.AssetEvent
	for _, e := range m.Events {
		if e.AssetID == assetID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) Liabilities(_ context.Context, asOf time.Time) ([]domain.Liability, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.Liability
	for _, l := range m.LiabilityRows {
		if !l.CreatedAt.After(asOf) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *Memory) LatestBankBalancesPerAccount(_ context.Context, asOf time.Time) ([]domain.BankBalance, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var dated []domain.BankBalance
	for _, b := range m.Balances {
		if !b.Date.After(asOf) {
			dated = append(dated, b)
		}
	}
	return ledger.LatestPerAccount(dated), nil
}

func (m *Memory) Investors(_ context.Context) ([]domain.Investor, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return append([]domain.Investor(nil), m.InvestorRows...), nil
}

func (m *Memory) Cashflows(_ context.Context, upto time.Time) ([]domain.InvestorCashflow, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	var out []domain.InvestorCashflow
	for _, c := range m.CashflowRows {
		if !c.Date.After(upto) {
			out = append(out, c)
		}
	}
	return out, nil
}
