package nav

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/clock"
	"github.com/mtlprog/fundbook/internal/domain"
	"github.com/mtlprog/fundbook/internal/ledger"
)

// Service computes NAV figures from the ledger.
type Service struct {
	ledger ledger.Reader
	clock  clock.Clock
}

// NewService creates a new NAV Service. All dependencies are required.
func NewService(reader ledger.Reader, clk clock.Clock) *Service {
	if reader == nil {
		panic("nav.NewService: ledger is nil")
	}
	if clk == nil {
		panic("nav.NewService: clock is nil")
	}
	return &Service{ledger: reader, clock: clk}
}

// Calculate returns the NAV statement as of asOf, or as of now when asOf is nil.
func (s *Service) Calculate(ctx context.Context, asOf *time.Time) (Result, error) {
	at := clock.AsOf(s.clock, asOf)

	assets, err := s.ledger.ActiveAssets(ctx, at)
	if err != nil {
		return Result{}, fmt.Errorf("reading active assets: %w", err)
	}
	balances, err := s.ledger.LatestBankBalancesPerAccount(ctx, at)
	if err != nil {
		return Result{}, fmt.Errorf("reading bank balances: %w", err)
	}
	liabilities, err := s.ledger.Liabilities(ctx, at)
	if err != nil {
		return Result{}, fmt.Errorf("reading liabilities: %w", err)
	}

	return Compute(at, assets, balances, liabilities), nil
}

// RealizedItem is the realized P&L of one sold asset.
type RealizedItem struct {
	AssetID       uuid.UUID           `json:"assetId"`
	Name          string              `json:"name"`
	Type          domain.AssetType    `json:"type"`
	AcquiredPrice decimal.NullDecimal `json:"acquiredPrice"`
	SalePrice     decimal.Decimal     `json:"salePrice"`
	SaleDate      time.Time           `json:"saleDate"`
	PnL           decimal.NullDecimal `json:"pnl"`
}

// Realized summarizes realized P&L from sales dated on or before AsOf.
type Realized struct {
	AsOf  time.Time      `json:"asOf"`
	Items []RealizedItem `json:"items"`
	// Total excludes assets without an acquired price.
	Total decimal.Decimal `json:"total"`
}

// RealizedPnL reports salePrice − acquiredPrice for assets sold on or before asOf.
func (s *Service) RealizedPnL(ctx context.Context, asOf *time.Time) (Realized, error) {
	at := clock.AsOf(s.clock, asOf)

	sold, err := s.ledger.SoldAssets(ctx, at)
	if err != nil {
		return Realized{}, fmt.Errorf("reading sold assets: %w", err)
	}

	result := Realized{AsOf: at, Items: make([]RealizedItem, 0, len(sold)), Total: decimal.Zero}
	for _, a := range sold {
		if err := a.Validate(); err != nil {
			return Realized{}, err
		}
		item := RealizedItem{
			AssetID:       a.ID,
			Name:          a.Name,
			Type:          a.Type,
			AcquiredPrice: a.AcquiredPrice,
			SalePrice:     a.SalePrice.Decimal,
			SaleDate:      *a.SaleDate,
		}
		if pnl, ok := a.RealizedPnL(); ok {
			item.PnL = decimal.NewNullDecimal(pnl)
			result.Total = result.Total.Add(pnl)
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

// History is an asset with its audit trail.
type History struct {
	Asset  domain.Asset        `json:"asset"`
	Events []domain.AssetEvent `json:"events"`
}

// AssetHistory returns the asset and its events in chronological order.
func (s *Service) AssetHistory(ctx context.Context, assetID uuid.UUID) (History, error) {
	asset, err := s.ledger.Asset(ctx, assetID)
	if err != nil {
		return History{}, err
	}

	events, err := s.ledger.AssetEvents(ctx, assetID)
	if err != nil {
		return History{}, fmt.Errorf("reading events for asset %s: %w", assetID, err)
	}
	if events == nil {
		events = []domain.AssetEvent{}
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].Date.Before(events[j].Date) })

	return History{Asset: asset, Events: events}, nil
}
