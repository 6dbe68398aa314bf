package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/fundbook/internal/api"
	"github.com/mtlprog/fundbook/internal/clock"
	"github.com/mtlprog/fundbook/internal/config"
	"github.com/mtlprog/fundbook/internal/export"
	"github.com/mtlprog/fundbook/internal/money"
	"github.com/mtlprog/fundbook/internal/snapshot"
	"github.com/mtlprog/fundbook/internal/worker"
)

var (
	dateFlag = &cli.StringFlag{Name: "date", Usage: "as-of calendar day (YYYY-MM-DD), default today"}
	jsonFlag = &cli.BoolFlag{Name: "json", Usage: "print JSON instead of a table"}
)

func serveCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and the optional snapshot worker",
		Action: func(c *cli.Context) error {
			ctx := c.Context
			svc, err := openServices(ctx, cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			if cfg.SnapshotWorkerInterval > 0 {
				w := worker.NewSnapshotWorker(svc.snapshots, cfg.SnapshotWorkerInterval, cfg.DefaultFeeRate, svc.clock)
				go w.Run(ctx)
			} else {
				slog.Info("snapshot worker disabled")
			}

			if cfg.AdminAPIKey == "" {
				slog.Warn("ADMIN_API_KEY not set, snapshot creation endpoint is unprotected")
			}

			handler := api.NewHandler(svc.nav, svc.ownership, svc.snapshots, export.XLSXWriter{}, svc.clock)
			srv := api.NewServer(cfg.HTTPPort, handler, cfg.AdminAPIKey)

			errCh := make(chan error, 1)
			go func() {
				slog.Info("HTTP server listening", "port", cfg.HTTPPort)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
			case err := <-errCh:
				return fmt.Errorf("HTTP server: %w", err)
			}
			slog.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				slog.Error("HTTP server shutdown error", "error", err)
			}
			slog.Info("shutdown complete")
			return nil
		},
	}
}

func migrateCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply pending database migrations",
		Action: func(c *cli.Context) error {
			pool, err := connect(c.Context, cfg)
			if err != nil {
				return err
			}
			pool.Close()
			slog.Info("migrations up to date")
			return nil
		},
	}
}

func navCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "nav",
		Usage: "print the NAV statement",
		Flags: []cli.Flag{dateFlag, jsonFlag},
		Action: func(c *cli.Context) error {
			asOf, err := asOfFlag(c)
			if err != nil {
				return err
			}
			svc, err := openServices(c.Context, cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			result, err := svc.nav.Calculate(c.Context, asOf)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(os.Stdout, result)
			}
			return printNAV(os.Stdout, result)
		},
	}
}

func ownershipCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "ownership",
		Usage: "print the investors' ownership table",
		Flags: []cli.Flag{dateFlag, jsonFlag},
		Action: func(c *cli.Context) error {
			asOf, err := asOfFlag(c)
			if err != nil {
				return err
			}
			svc, err := openServices(c.Context, cfg)
			if err != nil {
				return err
			}
			defer svc.Close()

			result, err := svc.ownership.Calculate(c.Context, asOf)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(os.Stdout, result)
			}
			return printOwnership(os.Stdout, result)
		},
	}
}

func snapshotCommand(cfg config.Config) *cli.Command {
	return &cli.Command{
		Name:  "snapshot",
		Usage: "create, list and export period snapshots",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "commit a snapshot for a calendar day",
				Flags: []cli.Flag{
					dateFlag,
					&cli.StringFlag{Name: "fee-rate", Usage: "performance fee rate in percent (e.g. 20); omit for no fee"},
					jsonFlag,
				},
				Action: func(c *cli.Context) error {
					feeRate, err := feeRateFlag(c)
					if err != nil {
						return err
					}
					date, err := parseDay(c.String("date"))
					if err != nil {
						return err
					}
					svc, err := openServices(c.Context, cfg)
					if err != nil {
						return err
					}
					defer svc.Close()

					if date == nil {
						today := clock.Date(svc.clock.Now())
						date = &today
					}
					snap, err := svc.snapshots.Create(c.Context, *date, feeRate)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(os.Stdout, snap)
					}
					return printSnapshot(os.Stdout, snap)
				},
			},
			{
				Name:  "list",
				Usage: "list snapshots newest first",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 30, Usage: "maximum snapshots to print"},
					&cli.IntFlag{Name: "offset", Usage: "snapshots to skip"},
					&cli.StringFlag{Name: "from", Usage: "earliest date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "to", Usage: "latest date (YYYY-MM-DD)"},
					jsonFlag,
				},
				Action: func(c *cli.Context) error {
					f := snapshot.Filter{Limit: c.Int("limit"), Offset: c.Int("offset")}
					var err error
					if f.From, err = parseDay(c.String("from")); err != nil {
						return err
					}
					if f.To, err = parseDay(c.String("to")); err != nil {
						return err
					}
					svc, err := openServices(c.Context, cfg)
					if err != nil {
						return err
					}
					defer svc.Close()

					snaps, err := svc.snapshots.List(c.Context, f)
					if err != nil {
						return err
					}
					if c.Bool("json") {
						return printJSON(os.Stdout, snaps)
					}
					return printSnapshotList(os.Stdout, snaps)
				},
			},
			{
				Name:  "export",
				Usage: "write a snapshot statement as XLSX",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true, Usage: "snapshot id"},
					&cli.StringFlag{Name: "out", Usage: "output file, default snapshot-<date>.xlsx"},
				},
				Action: func(c *cli.Context) error {
					id, err := uuid.Parse(c.String("id"))
					if err != nil {
						return cli.Exit(fmt.Sprintf("invalid snapshot id %q", c.String("id")), 2)
					}
					svc, err := openServices(c.Context, cfg)
					if err != nil {
						return err
					}
					defer svc.Close()

					snap, err := svc.snapshots.Get(c.Context, id)
					if err != nil {
						return err
					}
					return writeStatement(c.String("out"), snap)
				},
			},
		},
	}
}

// parseDay parses an optional YYYY-MM-DD flag value.
func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s), 2)
	}
	return &d, nil
}

// asOfFlag reads --date as the end of that day; absent means now.
func asOfFlag(c *cli.Context) (*time.Time, error) {
	d, err := parseDay(c.String("date"))
	if err != nil || d == nil {
		return nil, err
	}
	end := clock.EndOfDay(*d)
	return &end, nil
}

func feeRateFlag(c *cli.Context) (*decimal.Decimal, error) {
	s := c.String("fee-rate")
	if s == "" {
		return nil, nil
	}
	rate, err := money.Parse(s)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("invalid fee rate %q", s), 2)
	}
	return &rate, nil
}
