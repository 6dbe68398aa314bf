package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/domain"
)

// Repository defines persistent storage for snapshots.
type Repository interface {
	// Insert writes the snapshot and all of its investor rows in one transaction.
	Insert(ctx context.Context, snap domain.PeriodSnapshot) error
	Get(ctx context.Context, id uuid.UUID) (domain.PeriodSnapshot, error)
	Latest(ctx context.Context) (domain.PeriodSnapshot, error)
	List(ctx context.Context, f Filter) ([]domain.PeriodSnapshot, error)
	ExistsForDate(ctx context.Context, date time.Time) (bool, error)
	// HighWaterMark returns the highest NAV of snapshots dated before date.
	HighWaterMark(ctx context.Context, before time.Time) (decimal.NullDecimal, error)
}

// db is the subset of *pgxpool.Pool the repository uses.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PgRepository implements Repository with PostgreSQL.
type PgRepository struct {
	db db
}

// NewPgRepository creates a new PostgreSQL snapshot repository.
func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{db: pool}
}

const snapshotColumns = `id, date, total_asset_value, total_bank_balance, total_liabilities, nav,
	performance_fee_rate, total_performance_fee, created_at`

// Insert commits the parent row and every child row, or nothing. A child insert that
// does not write exactly one row, or a child count that differs from the draft after
// writing, is a domain.ConsistencyError and rolls the transaction back.
func (r *PgRepository) Insert(ctx context.Context, snap domain.PeriodSnapshot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning snapshot transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO period_snapshots (`+snapshotColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		snap.ID, snap.Date, snap.TotalAssetValue, snap.TotalBankBalance, snap.TotalLiabilities, snap.NAV,
		snap.PerformanceFeeRate, snap.TotalPerformanceFee, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting period snapshot: %w", err)
	}
	if tag.RowsAffected() != 1 {
		return domain.Inconsistent("period snapshot %s: %d rows written", snap.ID, tag.RowsAffected())
	}

	for _, inv := range snap.Investors {
		tag, err := tx.Exec(ctx,
			`INSERT INTO investor_snapshots
			   (id, snapshot_id, investor_id, capital_amount, ownership_percent, performance_fee)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			inv.ID, snap.ID, inv.InvestorID, inv.CapitalAmount, inv.OwnershipPercent, inv.PerformanceFee)
		if err != nil {
			return fmt.Errorf("inserting investor snapshot for %s: %w", inv.InvestorID, err)
		}
		if tag.RowsAffected() != 1 {
			return domain.Inconsistent("investor snapshot for %s: %d rows written", inv.InvestorID, tag.RowsAffected())
		}
	}

	var written int
	if err := tx.QueryRow(ctx,
		`SELECT count(*) FROM investor_snapshots WHERE snapshot_id = $1`, snap.ID).Scan(&written); err != nil {
		return fmt.Errorf("counting investor snapshots: %w", err)
	}
	if written != len(snap.Investors) {
		return domain.Inconsistent("snapshot %s: %d of %d investor rows written", snap.ID, written, len(snap.Investors))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing snapshot: %w", err)
	}
	return nil
}

func (r *PgRepository) Get(ctx context.Context, id uuid.UUID) (domain.PeriodSnapshot, error) {
	return r.getOne(ctx, `SELECT `+snapshotColumns+` FROM period_snapshots WHERE id = $1`, id)
}

func (r *PgRepository) Latest(ctx context.Context) (domain.PeriodSnapshot, error) {
	return r.getOne(ctx,
		`SELECT `+snapshotColumns+`
		 FROM period_snapshots
		 ORDER BY date DESC, created_at DESC
		 LIMIT 1`)
}

func (r *PgRepository) List(ctx context.Context, f Filter) ([]domain.PeriodSnapshot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+snapshotColumns+`
		 FROM period_snapshots
		 WHERE ($1::date IS NULL OR date >= $1::date)
		   AND ($2::date IS NULL OR date <= $2::date)
		 ORDER BY date DESC, created_at DESC
		 LIMIT $3 OFFSET $4`, f.From, f.To, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	snapshots := []domain.PeriodSnapshot{}
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		snapshots = append(snapshots, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}

	for i := range snapshots {
		if snapshots[i].Investors, err = r.investors(ctx, snapshots[i].ID); err != nil {
			return nil, err
		}
	}
	return snapshots, nil
}

func (r *PgRepository) ExistsForDate(ctx context.Context, date time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM period_snapshots WHERE date = $1::date)`, date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking snapshot for %s: %w", date.Format(time.DateOnly), err)
	}
	return exists, nil
}

func (r *PgRepository) HighWaterMark(ctx context.Context, before time.Time) (decimal.NullDecimal, error) {
	var hwm decimal.NullDecimal
	err := r.db.QueryRow(ctx,
		`SELECT MAX(nav) FROM period_snapshots WHERE date < $1::date`, before).Scan(&hwm)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("reading high-water mark: %w", err)
	}
	return hwm, nil
}

func (r *PgRepository) getOne(ctx context.Context, query string, args ...any) (domain.PeriodSnapshot, error) {
	s, err := scanSnapshot(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if len(args) > 0 {
				return domain.PeriodSnapshot{}, &domain.NotFoundError{Entity: "snapshot", ID: fmt.Sprint(args[0])}
			}
			return domain.PeriodSnapshot{}, &domain.NotFoundError{Entity: "snapshot", ID: "latest"}
		}
		return domain.PeriodSnapshot{}, fmt.Errorf("getting snapshot: %w", err)
	}

	if s.Investors, err = r.investors(ctx, s.ID); err != nil {
		return domain.PeriodSnapshot{}, err
	}
	return s, nil
}

func (r *PgRepository) investors(ctx context.Context, snapshotID uuid.UUID) ([]domain.InvestorSnapshot, error) {
	rows, err := r.db.Query(ctx,
		`SELECT s.id, s.snapshot_id, s.investor_id, COALESCE(i.name, ''), s.capital_amount,
		        s.ownership_percent, s.performance_fee
		 FROM investor_snapshots s
		 LEFT JOIN investors i ON i.id = s.investor_id
		 WHERE s.snapshot_id = $1
		 ORDER BY i.name, s.investor_id`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("querying investor snapshots: %w", err)
	}
	defer rows.Close()

	investors := []domain.InvestorSnapshot{}
	for rows.Next() {
		var inv domain.InvestorSnapshot
		if err := rows.Scan(&inv.ID, &inv.SnapshotID, &inv.InvestorID, &inv.InvestorName,
			&inv.CapitalAmount, &inv.OwnershipPercent, &inv.PerformanceFee); err != nil {
			return nil, fmt.Errorf("scanning investor snapshot: %w", err)
		}
		investors = append(investors, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating investor snapshots: %w", err)
	}
	return investors, nil
}

func scanSnapshot(row pgx.Row) (domain.PeriodSnapshot, error) {
	var s domain.PeriodSnapshot
	err := row.Scan(&s.ID, &s.Date, &s.TotalAssetValue, &s.TotalBankBalance, &s.TotalLiabilities, &s.NAV,
		&s.PerformanceFeeRate, &s.TotalPerformanceFee, &s.CreatedAt)
	return s, err
}
