package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/fundbook/internal/clock"
	"github.com/mtlprog/fundbook/internal/domain"
)

type mockSnapshotCreator struct {
	callCount atomic.Int32
	err       error
	existsErr error
	// remember makes committed dates report as existing
	remember bool
	exists   bool

	mu    sync.Mutex
	dates []time.Time
	rates []*decimal.Decimal
}

func (m *mockSnapshotCreator) Create(_ context.Context, date time.Time, feeRate *decimal.Decimal) (domain.PeriodSnapshot, error) {
	m.callCount.Add(1)
	m.mu.Lock()
	m.dates = append(m.dates, date)
	m.rates = append(m.rates, feeRate)
	m.mu.Unlock()
	return domain.PeriodSnapshot{Date: date}, m.err
}

func (m *mockSnapshotCreator) ExistsForDate(_ context.Context, date time.Time) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	if m.exists {
		return true, nil
	}
	if !m.remember || m.err != nil {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.dates {
		if d.Equal(date) {
			return true, nil
		}
	}
	return false, nil
}

func TestSnapshotWorkerRunsAndShutdown(t *testing.T) {
	mock := &mockSnapshotCreator{}
	w := NewSnapshotWorker(mock, 50*time.Millisecond, nil, clock.System{})

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	assert.GreaterOrEqual(t, mock.callCount.Load(), int32(2), "initial run plus ticks")
}

func TestSnapshotWorkerUsesCurrentDayAndRate(t *testing.T) {
	mock := &mockSnapshotCreator{}
	now := time.Date(2024, 3, 31, 17, 45, 0, 0, time.UTC)
	rate := decimal.NewFromInt(20)
	w := NewSnapshotWorker(mock, time.Hour, &rate, clock.Fixed(now))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	require.Equal(t, int32(1), mock.callCount.Load())
	assert.Equal(t, time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC), mock.dates[0])
	require.NotNil(t, mock.rates[0])
	assert.True(t, mock.rates[0].Equal(rate), "fee rate = %s", mock.rates[0])
}

func TestSnapshotWorkerContinuesAfterFailure(t *testing.T) {
	mock := &mockSnapshotCreator{err: errors.New("ledger unavailable")}
	w := NewSnapshotWorker(mock, 30*time.Millisecond, nil, clock.System{})

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	assert.GreaterOrEqual(t, mock.callCount.Load(), int32(2), "keeps ticking after failures")
}

func TestSnapshotWorkerCreatesOncePerDay(t *testing.T) {
	mock := &mockSnapshotCreator{remember: true}
	now := time.Date(2024, 3, 31, 9, 0, 0, 0, time.UTC)
	w := NewSnapshotWorker(mock, 10*time.Millisecond, nil, clock.Fixed(now))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	w.Run(ctx)

	assert.Equal(t, int32(1), mock.callCount.Load(), "one snapshot for the day")
}

func TestSnapshotWorkerSkipsWhenCheckFails(t *testing.T) {
	mock := &mockSnapshotCreator{existsErr: errors.New("db down")}
	w := NewSnapshotWorker(mock, time.Hour, nil, clock.Fixed(time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	assert.Zero(t, mock.callCount.Load())
}

func TestSnapshotWorkerSkipsExistingDay(t *testing.T) {
	mock := &mockSnapshotCreator{exists: true}
	w := NewSnapshotWorker(mock, time.Hour, nil, clock.Fixed(time.Now()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.Run(ctx)

	assert.Zero(t, mock.callCount.Load())
}
