package export

import (
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/fundbook/internal/domain"
)

const (
	summarySheet   = "SUMMARY"
	investorsSheet = "INVESTORS"
	snapshotsSheet = "SNAPSHOTS"
)

// summaryHeader is shared by the SUMMARY statement and the SNAPSHOTS history sheet.
var summaryHeader = []any{
	"Snapshot ID", "Date", "Total Asset Value", "Total Bank Balance", "Total Liabilities",
	"NAV", "Performance Fee Rate", "Total Performance Fee", "Total Capital", "Investors", "Created At",
}

var investorHeader = []any{
	"Investor ID", "Investor", "Capital", "Ownership %", "Performance Fee",
}

// summaryRow flattens the snapshot header. Amounts are decimal strings.
func summaryRow(snap domain.PeriodSnapshot) []any {
	return []any{
		snap.ID.String(),
		snap.Date.Format(time.DateOnly),
		snap.TotalAssetValue.String(),
		snap.TotalBankBalance.String(),
		snap.TotalLiabilities.String(),
		snap.NAV.String(),
		nullString(snap.PerformanceFeeRate),
		nullString(snap.TotalPerformanceFee),
		snap.TotalCapital().String(),
		len(snap.Investors),
		snap.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func investorRows(snap domain.PeriodSnapshot) [][]any {
	rows := make([][]any, 0, len(snap.Investors)+1)
	rows = append(rows, investorHeader)
	rows = append(rows, lo.Map(snap.Investors, func(inv domain.InvestorSnapshot, _ int) []any {
		return []any{
			inv.InvestorID.String(),
			inv.InvestorName,
			inv.CapitalAmount.String(),
			inv.OwnershipPercent.String(),
			nullString(inv.PerformanceFee),
		}
	})...)
	return rows
}

// nullString renders a missing value as an empty cell.
func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
