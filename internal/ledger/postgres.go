package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/fundbook/internal/domain"
)

const assetColumns = `id, name, type, current_value, status, acquired_price, sale_price, sale_date, created_at`

// PgReader implements Reader with PostgreSQL.
type PgReader struct {
	pool *pgxpool.Pool
}

// NewPgReader creates a new PostgreSQL ledger reader.
func NewPgReader(pool *pgxpool.Pool) *PgReader {
	return &PgReader{pool: pool}
}

func (r *PgReader) ActiveAssets(ctx context.Context, asOf time.Time) ([]domain.Asset, error) {
	return r.queryAssets(ctx,
		`SELECT `+assetColumns+`
		 FROM assets
		 WHERE created_at <= $1 AND (status = 'ACTIVE' OR sale_date > $1)
		 ORDER BY type, name, id`, asOf)
}

func (r *PgReader) SoldAssets(ctx context.Context, asOf time.Time) ([]domain.Asset, error) {
	return r.queryAssets(ctx,
		`SELECT `+assetColumns+`
		 FROM assets
		 WHERE status = 'SOLD' AND sale_date <= $1
		 ORDER BY sale_date, id`, asOf)
}

func (r *PgReader) Asset(ctx context.Context, id uuid.UUID) (domain.Asset, error) {
	a, err := scanAsset(r.pool.QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Asset{}, domain.NewNotFound("asset", id)
		}
		return domain.Asset{}, fmt.Errorf("getting asset %s: %w", id, err)
	}
	return a, nil
}

func (r *PgReader) AssetEvents(ctx context.Context, assetID uuid.UUID) ([]domain.AssetEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, asset_id, type, amount, date, note
		 FROM asset_events
		 WHERE asset_id = $1
		 ORDER BY date, id`, assetID)
	if err != nil {
		return nil, fmt.Errorf("querying asset events: %w", err)
	}
	defer rows.Close()

	var events []domain.AssetEvent
	for rows.Next() {
		var e domain.AssetEvent
		if err := rows.Scan(&e.ID, &e.AssetID, &e.Type, &e.Amount, &e.Date, &e.Note); err != nil {
			return nil, fmt.Errorf("scanning asset event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating asset events: %w", err)
	}
	return events, nil
}

func (r *PgReader) Liabilities(ctx context.Context, asOf time.Time) ([]domain.Liability, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, current_balance, interest_rate, maturity_date, created_at
		 FROM liabilities
		 WHERE created_at <= $1
		 ORDER BY name, id`, asOf)
	if err != nil {
		return nil, fmt.Errorf("querying liabilities: %w", err)
	}
	defer rows.Close()

	var liabilities []domain.Liability
	for rows.Next() {
		var l domain.Liability
		if err := rows.Scan(&l.ID, &l.Name, &l.CurrentBalance, &l.InterestRate, &l.MaturityDate, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning liability: %w", err)
		}
		liabilities = append(liabilities, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating liabilities: %w", err)
	}
	return liabilities, nil
}

// LatestBankBalancesPerAccount selects one row per (account_name, bank_name): the newest
// dated on or before asOf. Historical rows are never summed.
func (r *PgReader) LatestBankBalancesPerAccount(ctx context.Context, asOf time.Time) ([]domain.BankBalance, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT ON (bank_name, account_name)
		        id, account_name, bank_name, amount, currency, date
		 FROM bank_balances
		 WHERE date <= $1
		 ORDER BY bank_name, account_name, date DESC, id::text DESC`, asOf)
	if err != nil {
		return nil, fmt.Errorf("querying bank balances: %w", err)
	}
	defer rows.Close()

	var balances []domain.BankBalance
	for rows.Next() {
		var b domain.BankBalance
		if err := rows.Scan(&b.ID, &b.AccountName, &b.BankName, &b.Amount, &b.Currency, &b.Date); err != nil {
			return nil, fmt.Errorf("scanning bank balance: %w", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bank balances: %w", err)
	}
	return balances, nil
}

func (r *PgReader) Investors(ctx context.Context) ([]domain.Investor, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, created_at FROM investors ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("querying investors: %w", err)
	}
	defer rows.Close()

	var investors []domain.Investor
	for rows.Next() {
		var inv domain.Investor
		if err := rows.Scan(&inv.ID, &inv.Name, &inv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning investor: %w", err)
		}
		investors = append(investors, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating investors: %w", err)
	}
	return investors, nil
}

func (r *PgReader) Cashflows(ctx context.Context, upto time.Time) ([]domain.InvestorCashflow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, investor_id, type, amount, date, note
		 FROM investor_cashflows
		 WHERE date <= $1
		 ORDER BY date, id`, upto)
	if err != nil {
		return nil, fmt.Errorf("querying cashflows: %w", err)
	}
	defer rows.Close()

	var cashflows []domain.InvestorCashflow
	for rows.Next() {
		var c domain.InvestorCashflow
		if err := rows.Scan(&c.ID, &c.InvestorID, &c.Type, &c.Amount, &c.Date, &c.Note); err != nil {
			return nil, fmt.Errorf("scanning cashflow: %w", err)
		}
		cashflows = append(cashflows, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cashflows: %w", err)
	}
	return cashflows, nil
}

func (r *PgReader) queryAssets(ctx context.Context, query string, args ...any) ([]domain.Asset, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying assets: %w", err)
	}
	defer rows.Close()

	var assets []domain.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning asset: %w", err)
		}
		assets = append(assets, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assets: %w", err)
	}
	return assets, nil
}

func scanAsset(row pgx.Row) (domain.Asset, error) {
	var a domain.Asset
	err := row.Scan(&a.ID, &a.Name, &a.Type, &a.CurrentValue, &a.Status,
		&a.AcquiredPrice, &a.SalePrice, &a.SaleDate, &a.CreatedAt)
	return a, err
}
