package snapshot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/fundbook/internal/domain"
)

// fakeDB stages writes per transaction and only exposes them in committed once the
// transaction commits.
type fakeDB struct {
	committed map[uuid.UUID]int

	// failInvestorInsert fails the n-th investor insert (1-based); 0 disables.
	failInvestorInsert int
	// investorRowsAffected overrides the tag of investor inserts when non-nil.
	investorRowsAffected *int64
	// countDelta is added to the child count the transaction reports.
	countDelta int
	commitErr  error

	lastTx *fakeTx
}

func newFakeDB() *fakeDB {
	return &fakeDB{committed: make(map[uuid.UUID]int)}
}

func (f *fakeDB) Begin(_ context.Context) (pgx.Tx, error) {
	f.lastTx = &fakeTx{db: f, children: make(map[uuid.UUID]int)}
	return f.lastTx, nil
}

func (f *fakeDB) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, errors.New("fakeDB: Query not supported")
}

func (f *fakeDB) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	return fakeRow{err: errors.New("fakeDB: QueryRow not supported")}
}

type fakeTx struct {
	pgx.Tx
	db *fakeDB

	parents    []uuid.UUID
	children   map[uuid.UUID]int
	inserts    int
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	switch {
	case strings.Contains(sql, "INSERT INTO period_snapshots"):
		t.parents = append(t.parents, args[0].(uuid.UUID))
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.Contains(sql, "INSERT INTO investor_snapshots"):
		t.inserts++
		if t.db.failInvestorInsert == t.inserts {
			return pgconn.CommandTag{}, errors.New("connection reset by peer")
		}
		if t.db.investorRowsAffected != nil && *t.db.investorRowsAffected != 1 {
			return pgconn.NewCommandTag("INSERT 0 0"), nil
		}
		t.children[args[1].(uuid.UUID)]++
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	}
	return pgconn.CommandTag{}, errors.New("fakeTx: unexpected statement")
}

func (t *fakeTx) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	if strings.Contains(sql, "count(*)") {
		return fakeRow{value: t.children[args[0].(uuid.UUID)] + t.db.countDelta}
	}
	return fakeRow{err: errors.New("fakeTx: unexpected query")}
}

func (t *fakeTx) Commit(_ context.Context) error {
	if t.rolledBack {
		return pgx.ErrTxClosed
	}
	if t.db.commitErr != nil {
		return t.db.commitErr
	}
	t.committed = true
	for _, id := range t.parents {
		t.db.committed[id] = t.children[id]
	}
	return nil
}

func (t *fakeTx) Rollback(_ context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeRow struct {
	value int
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*int) = r.value
	return nil
}

func draftSnapshot(investors int) domain.PeriodSnapshot {
	snap := domain.PeriodSnapshot{
		ID:        uuid.New(),
		Date:      time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		NAV:       decimal.NewFromInt(475000),
		CreatedAt: time.Now(),
	}
	for i := 0; i < investors; i++ {
		snap.Investors = append(snap.Investors, domain.InvestorSnapshot{
			ID:         uuid.New(),
			SnapshotID: snap.ID,
			InvestorID: uuid.New(),
		})
	}
	return snap
}

func TestInsertCommitsAllRows(t *testing.T) {
	db := newFakeDB()
	repo := &PgRepository{db: db}
	snap := draftSnapshot(3)

	require.NoError(t, repo.Insert(context.Background(), snap))

	assert.True(t, db.lastTx.committed)
	assert.Equal(t, 3, db.committed[snap.ID])
}

func TestInsertRollsBackWhenInvestorInsertFails(t *testing.T) {
	db := newFakeDB()
	db.failInvestorInsert = 1
	repo := &PgRepository{db: db}
	snap := draftSnapshot(2)

	err := repo.Insert(context.Background(), snap)

	require.Error(t, err)
	assert.True(t, db.lastTx.rolledBack, "transaction must be rolled back")
	assert.False(t, db.lastTx.committed)
	assert.Empty(t, db.committed, "no period snapshot may be visible after rollback")
}

func TestInsertRollsBackMidway(t *testing.T) {
	db := newFakeDB()
	db.failInvestorInsert = 3
	repo := &PgRepository{db: db}

	err := repo.Insert(context.Background(), draftSnapshot(5))

	require.Error(t, err)
	assert.Empty(t, db.committed)
}

func TestInsertZeroRowsIsConsistencyError(t *testing.T) {
	db := newFakeDB()
	zero := int64(0)
	db.investorRowsAffected = &zero
	repo := &PgRepository{db: db}

	err := repo.Insert(context.Background(), draftSnapshot(2))

	require.Error(t, err)
	assert.True(t, domain.IsConsistency(err), "got %v", err)
	assert.Empty(t, db.committed)
}

func TestInsertChildCountMismatchIsConsistencyError(t *testing.T) {
	db := newFakeDB()
	db.countDelta = -1
	repo := &PgRepository{db: db}

	err := repo.Insert(context.Background(), draftSnapshot(2))

	require.Error(t, err)
	assert.True(t, domain.IsConsistency(err), "got %v", err)
	assert.Empty(t, db.committed)
}

func TestInsertCommitFailure(t *testing.T) {
	db := newFakeDB()
	db.commitErr = errors.New("serialization failure")
	repo := &PgRepository{db: db}

	err := repo.Insert(context.Background(), draftSnapshot(1))

	require.Error(t, err)
	assert.Empty(t, db.committed)
}

func TestInsertWithoutInvestors(t *testing.T) {
	db := newFakeDB()
	repo := &PgRepository{db: db}
	snap := draftSnapshot(0)

	require.NoError(t, repo.Insert(context.Background(), snap))

	count, ok := db.committed[snap.ID]
	assert.True(t, ok)
	assert.Zero(t, count)
}
