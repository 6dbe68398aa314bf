package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mtlprog/fundbook/internal/clock"
	"github.com/mtlprog/fundbook/internal/config"
	"github.com/mtlprog/fundbook/internal/database"
	"github.com/mtlprog/fundbook/internal/export"
	"github.com/mtlprog/fundbook/internal/ledger"
	"github.com/mtlprog/fundbook/internal/nav"
	"github.com/mtlprog/fundbook/internal/ownership"
	"github.com/mtlprog/fundbook/internal/snapshot"
)

// services bundles everything a command needs.
type services struct {
	pool      *pgxpool.Pool
	clock     clock.Clock
	nav       *nav.Service
	ownership *ownership.Service
	snapshots *snapshot.Service
}

func (s *services) Close() { s.pool.Close() }

func connect(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	migrationsSub, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("creating migrations sub-fs: %w", err)
	}
	if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
		pool.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return pool, nil
}

func openServices(ctx context.Context, cfg config.Config) (*services, error) {
	pool, err := connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	clk := clock.System{}
	reader := ledger.NewPgReader(pool)
	navSvc := nav.NewService(reader, clk)
	ownSvc := ownership.NewService(reader, clk)

	var hooks []snapshot.AfterCreateHook
	if cfg.SheetsEnabled() {
		sheets, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("creating sheets writer: %w", err)
		}
		hooks = append(hooks, sheets)
	}

	snapshotSvc := snapshot.NewService(navSvc, ownSvc, snapshot.NewPgRepository(pool), clk,
		snapshot.Options{
			ProfitBase:           cfg.ProfitBase,
			RejectDuplicateDates: cfg.RejectDuplicateSnapshotDates,
		},
		hooks...)

	return &services{
		pool:      pool,
		clock:     clk,
		nav:       navSvc,
		ownership: ownSvc,
		snapshots: snapshotSvc,
	}, nil
}
