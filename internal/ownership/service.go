package ownership

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/fundbook/internal/clock"
	"github.com/mtlprog/fundbook/internal/ledger"
)

// Service computes the ownership table from the ledger.
type Service struct {
	ledger ledger.Reader
	clock  clock.Clock
}

// NewService creates a new ownership Service. All dependencies are required.
func NewService(reader ledger.Reader, clk clock.Clock) *Service {
	if reader == nil {
		panic("ownership.NewService: ledger is nil")
	}
	if clk == nil {
		panic("ownership.NewService: clock is nil")
	}
	return &Service{ledger: reader, clock: clk}
}

// Calculate returns each investor's capital and ownership as of asOf, or now when nil.
func (s *Service) Calculate(ctx context.Context, asOf *time.Time) (Result, error) {
	at := clock.AsOf(s.clock, asOf)

	investors, err := s.ledger.Investors(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading investors: %w", err)
	}
	cashflows, err := s.ledger.Cashflows(ctx, at)
	if err != nil {
		return Result{}, fmt.Errorf("reading cashflows: %w", err)
	}

	stakes, total, err := Compute(investors, cashflows)
	if err != nil {
		return Result{}, fmt.Errorf("computing ownership: %w", err)
	}
	return Result{AsOf: at, TotalCapital: total, Stakes: stakes}, nil
}
