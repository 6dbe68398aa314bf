package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/clock"
	"github.com/mtlprog/fundbook/internal/domain"
)

// SnapshotCreator creates period snapshots.
type SnapshotCreator interface {
	Create(ctx context.Context, date time.Time, feeRate *decimal.Decimal) (domain.PeriodSnapshot, error)
	ExistsForDate(ctx context.Context, date time.Time) (bool, error)
}

// SnapshotWorker snapshots the fund once per UTC day. Ticks on a day that already has a
// snapshot are skipped.
type SnapshotWorker struct {
	creator  SnapshotCreator
	interval time.Duration
	feeRate  *decimal.Decimal
	clock    clock.Clock
}

// NewSnapshotWorker creates a SnapshotWorker. A nil feeRate snapshots without a fee.
func NewSnapshotWorker(creator SnapshotCreator, interval time.Duration, feeRate *decimal.Decimal, clk clock.Clock) *SnapshotWorker {
	return &SnapshotWorker{
		creator:  creator,
		interval: interval,
		feeRate:  feeRate,
		clock:    clk,
	}
}

func (w *SnapshotWorker) tick(ctx context.Context) {
	day := clock.Date(w.clock.Now())
	exists, err := w.creator.ExistsForDate(ctx, day)
	if err != nil {
		slog.Error("SnapshotWorker: checking existing snapshot failed", "date", day.Format(time.DateOnly), "error", err)
		return
	}
	if exists {
		slog.Debug("SnapshotWorker: snapshot already exists", "date", day.Format(time.DateOnly))
		return
	}

	snap, err := w.creator.Create(ctx, day, w.feeRate)
	if err != nil {
		slog.Error("SnapshotWorker: snapshot failed", "date", day.Format(time.DateOnly), "error", err)
		return
	}
	slog.Info("SnapshotWorker: snapshot created", "id", snap.ID, "date", day.Format(time.DateOnly))
}

// Run starts the worker loop. It blocks until the context is cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting", "interval", w.interval)

	w.tick(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}
