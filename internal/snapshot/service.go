package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/clock"
	"github.com/mtlprog/fundbook/internal/domain"
	"github.com/mtlprog/fundbook/internal/fee"
	"github.com/mtlprog/fundbook/internal/money"
	"github.com/mtlprog/fundbook/internal/nav"
	"github.com/mtlprog/fundbook/internal/ownership"
)

const (
	defaultListLimit = 30
	maxListLimit     = 365
)

// ErrInvalidFilter indicates a malformed list filter.
var ErrInvalidFilter = errors.New("invalid snapshot filter")

// NAVCalculator computes the fund's NAV statement.
type NAVCalculator interface {
	Calculate(ctx context.Context, asOf *time.Time) (nav.Result, error)
}

// OwnershipCalculator computes the investors' ownership table.
type OwnershipCalculator interface {
	Calculate(ctx context.Context, asOf *time.Time) (ownership.Result, error)
}

// AfterCreateHook runs after a snapshot has been committed. Its failure does not undo the
// snapshot.
type AfterCreateHook interface {
	SnapshotCreated(ctx context.Context, snap domain.PeriodSnapshot) error
}

// Options tunes snapshot creation.
type Options struct {
	// ProfitBase selects the profit the performance fee is charged on.
	ProfitBase fee.ProfitBase
	// RejectDuplicateDates makes Create fail with domain.ErrDuplicateSnapshotDate when a
	// snapshot already exists for the date. By default duplicates are permitted and each
	// call appends a new snapshot.
	RejectDuplicateDates bool
}

// Service creates and retrieves period snapshots.
type Service struct {
	nav       NAVCalculator
	ownership OwnershipCalculator
	repo      Repository
	clock     clock.Clock
	opts      Options
	hooks     []AfterCreateHook
}

// NewService creates a new snapshot Service. Hooks run in order after every commit.
func NewService(navCalc NAVCalculator, own OwnershipCalculator, repo Repository, clk clock.Clock, opts Options, hooks ...AfterCreateHook) *Service {
	if navCalc == nil || own == nil || repo == nil || clk == nil {
		panic("snapshot.NewService: nil dependency")
	}
	if opts.ProfitBase == "" {
		opts.ProfitBase = fee.CapitalBase
	}
	return &Service{nav: navCalc, ownership: own, repo: repo, clock: clk, opts: opts, hooks: hooks}
}

// Create computes NAV, ownership and the optional performance fee for the calendar day
// of date and commits one PeriodSnapshot with all its InvestorSnapshot rows atomically.
// Ledger reads include everything dated on that day.
func (s *Service) Create(ctx context.Context, date time.Time, feeRate *decimal.Decimal) (domain.PeriodSnapshot, error) {
	if feeRate != nil {
		if err := fee.ValidateRate(*feeRate); err != nil {
			return domain.PeriodSnapshot{}, err
		}
	}

	day := clock.Date(date)
	asOf := clock.EndOfDay(day)

	if s.opts.RejectDuplicateDates {
		exists, err := s.repo.ExistsForDate(ctx, day)
		if err != nil {
			return domain.PeriodSnapshot{}, fmt.Errorf("checking existing snapshot: %w", err)
		}
		if exists {
			return domain.PeriodSnapshot{}, fmt.Errorf("%w: %s", domain.ErrDuplicateSnapshotDate, day.Format(time.DateOnly))
		}
	}

	navResult, err := s.nav.Calculate(ctx, &asOf)
	if err != nil {
		return domain.PeriodSnapshot{}, fmt.Errorf("calculating NAV: %w", err)
	}

	own, err := s.ownership.Calculate(ctx, &asOf)
	if err != nil {
		return domain.PeriodSnapshot{}, fmt.Errorf("calculating ownership: %w", err)
	}

	var allocation fee.Allocation
	if feeRate != nil {
		var hwm decimal.NullDecimal
		if s.opts.ProfitBase == fee.HighWaterMarkBase {
			if hwm, err = s.repo.HighWaterMark(ctx, day); err != nil {
				return domain.PeriodSnapshot{}, fmt.Errorf("reading high-water mark: %w", err)
			}
		}
		profit := s.opts.ProfitBase.Profit(navResult.NAV, own.TotalCapital, hwm)
		if !own.TotalCapital.IsPositive() {
			// nobody holds a share to allocate the fee to
			profit = decimal.Zero
		}
		allocation = fee.Allocate(profit, feeRate, own.Stakes)
	}

	draft := buildDraft(day, s.clock.Now(), navResult, own, allocation)
	if err := verify(draft, own.TotalCapital); err != nil {
		return domain.PeriodSnapshot{}, err
	}

	if err := s.repo.Insert(ctx, draft); err != nil {
		return domain.PeriodSnapshot{}, fmt.Errorf("saving snapshot: %w", err)
	}

	slog.Info("snapshot committed",
		"id", draft.ID,
		"date", day.Format(time.DateOnly),
		"nav", draft.NAV.String(),
		"investors", len(draft.Investors),
	)

	for _, h := range s.hooks {
		if err := h.SnapshotCreated(ctx, draft); err != nil {
			slog.Error("snapshot hook failed", "id", draft.ID, "error", err)
		}
	}

	return draft, nil
}

func buildDraft(day, now time.Time, n nav.Result, own ownership.Result, alloc fee.Allocation) domain.PeriodSnapshot {
	snap := domain.PeriodSnapshot{
		ID:                  uuid.New(),
		Date:                day,
		TotalAssetValue:     n.TotalAssetValue,
		TotalBankBalance:    n.TotalBankBalance,
		TotalLiabilities:    n.TotalLiabilities,
		NAV:                 n.NAV,
		PerformanceFeeRate:  alloc.Rate,
		TotalPerformanceFee: alloc.Total,
		CreatedAt:           now,
		Investors:           make([]domain.InvestorSnapshot, 0, len(own.Stakes)),
	}
	for _, stake := range own.Stakes {
		snap.Investors = append(snap.Investors, domain.InvestorSnapshot{
			ID:               uuid.New(),
			SnapshotID:       snap.ID,
			InvestorID:       stake.InvestorID,
			InvestorName:     stake.Name,
			CapitalAmount:    stake.CapitalAmount,
			OwnershipPercent: stake.OwnershipPercent,
			PerformanceFee:   alloc.FeeFor(stake.InvestorID),
		})
	}
	return snap
}

// verify checks the cross-row invariants of a draft before it is written.
func verify(snap domain.PeriodSnapshot, totalCapital decimal.Decimal) error {
	if !snap.NAV.Equal(snap.TotalAssetValue.Add(snap.TotalBankBalance).Sub(snap.TotalLiabilities)) {
		return domain.Inconsistent("nav %s does not equal assets + bank - liabilities", snap.NAV)
	}

	n := len(snap.Investors)
	if totalCapital.IsPositive() {
		pct := decimal.Zero
		for _, inv := range snap.Investors {
			pct = pct.Add(inv.OwnershipPercent)
		}
		if !money.WithinTolerance(pct, decimal.NewFromInt(100), ownership.SumTolerance(n)) {
			return domain.Inconsistent("ownership sums to %s across %d investors", pct, n)
		}
	}

	if snap.TotalPerformanceFee.Valid {
		fees := decimal.Zero
		for _, inv := range snap.Investors {
			fees = fees.Add(inv.PerformanceFee.Decimal)
		}
		total := snap.TotalPerformanceFee.Decimal
		if !money.WithinTolerance(fees, total, fee.SumTolerance(total, n)) {
			return domain.Inconsistent("investor fees sum to %s, total fee is %s", fees, total)
		}
	}
	return nil
}

// Get retrieves a snapshot with its investor rows.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.PeriodSnapshot, error) {
	return s.repo.Get(ctx, id)
}

// ExistsForDate reports whether a snapshot was already committed for date's calendar day.
func (s *Service) ExistsForDate(ctx context.Context, date time.Time) (bool, error) {
	return s.repo.ExistsForDate(ctx, clock.Date(date))
}

// Latest retrieves the most recent snapshot.
func (s *Service) Latest(ctx context.Context) (domain.PeriodSnapshot, error) {
	return s.repo.Latest(ctx)
}

// List retrieves snapshots newest first. It never recomputes figures.
func (s *Service) List(ctx context.Context, f Filter) ([]domain.PeriodSnapshot, error) {
	f, err := f.normalize()
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, f)
}

// Filter selects a page of snapshots within an optional inclusive date range.
type Filter struct {
	Limit  int
	Offset int
	From   *time.Time
	To     *time.Time
}

func (f Filter) normalize() (Filter, error) {
	if f.Limit <= 0 {
		f.Limit = defaultListLimit
	}
	f.Limit = min(f.Limit, maxListLimit)
	if f.Offset < 0 {
		return f, fmt.Errorf("%w: negative offset %d", ErrInvalidFilter, f.Offset)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, fmt.Errorf("%w: from %s is after to %s", ErrInvalidFilter,
			f.From.Format(time.DateOnly), f.To.Format(time.DateOnly))
	}
	return f, nil
}
