package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/domain"
	"github.com/mtlprog/fundbook/internal/export"
	"github.com/mtlprog/fundbook/internal/money"
	"github.com/mtlprog/fundbook/internal/nav"
	"github.com/mtlprog/fundbook/internal/ownership"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printNAV(w io.Writer, r nav.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "As of\t%s\t\n", r.AsOf.Format(time.RFC3339))
	fmt.Fprintf(tw, "Assets\t%s\t\n", r.TotalAssetValue)
	fmt.Fprintf(tw, "Bank balances\t%s\t\n", r.TotalBankBalance)
	fmt.Fprintf(tw, "Liabilities\t%s\t\n", r.TotalLiabilities)
	fmt.Fprintf(tw, "NAV\t%s\t\n", r.NAV)

	if len(r.Breakdown.ByAssetType) > 0 {
		fmt.Fprintln(tw, "\t\t")
		for _, s := range r.Breakdown.ByAssetType {
			fmt.Fprintf(tw, "  %s (%d)\t%s\t\n", s.Key, s.Count, s.Amount)
		}
	}
	if len(r.Breakdown.ByCurrency) > 0 {
		fmt.Fprintln(tw, "\t\t")
		for _, s := range r.Breakdown.ByCurrency {
			fmt.Fprintf(tw, "  %s (%d accounts)\t%s\t\n", s.Key, s.Count, money.Format(s.Amount, s.Key))
		}
	}
	return tw.Flush()
}

func printOwnership(w io.Writer, r ownership.Result) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INVESTOR\tCAPITAL\tOWNERSHIP %")
	for _, s := range r.Stakes {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, s.CapitalAmount, s.OwnershipPercent)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t%s\n", r.TotalCapital, ownership.TotalPercent(r.Stakes))
	return tw.Flush()
}

func printSnapshot(w io.Writer, s domain.PeriodSnapshot) error {
	fmt.Fprintf(w, "Snapshot %s for %s\n", s.ID, s.Date.Format(time.DateOnly))
	fmt.Fprintf(w, "NAV %s = assets %s + bank %s - liabilities %s\n",
		s.NAV, s.TotalAssetValue, s.TotalBankBalance, s.TotalLiabilities)
	if s.TotalPerformanceFee.Valid {
		fmt.Fprintf(w, "Performance fee %s at %s%%\n", s.TotalPerformanceFee.Decimal, s.PerformanceFeeRate.Decimal)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INVESTOR\tCAPITAL\tOWNERSHIP %\tFEE")
	for _, inv := range s.Investors {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", inv.InvestorName, inv.CapitalAmount, inv.OwnershipPercent, orDash(inv.PerformanceFee))
	}
	return tw.Flush()
}

func printSnapshotList(w io.Writer, snaps []domain.PeriodSnapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tNAV\tFEE\tINVESTORS")
	for _, s := range snaps {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n",
			s.ID, s.Date.Format(time.DateOnly), s.NAV, orDash(s.TotalPerformanceFee), len(s.Investors))
	}
	return tw.Flush()
}

func orDash(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}

// writeStatement writes the XLSX statement to path, or to snapshot-<date>.xlsx.
func writeStatement(path string, snap domain.PeriodSnapshot) (err error) {
	if path == "" {
		path = fmt.Sprintf("snapshot-%s.xlsx", snap.Date.Format(time.DateOnly))
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if err := (export.XLSXWriter{}).Write(f, snap); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %s\n", path)
	return nil
}
