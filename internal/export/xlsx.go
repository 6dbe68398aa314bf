package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/fundbook/internal/domain"
)

// XLSXWriter renders one snapshot as a workbook with a SUMMARY and an INVESTORS sheet.
type XLSXWriter struct{}

// Write streams the workbook for snap to w.
func (XLSXWriter) Write(w io.Writer, snap domain.PeriodSnapshot) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), summarySheet); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}
	if _, err := f.NewSheet(investorsSheet); err != nil {
		return fmt.Errorf("adding %s sheet: %w", investorsSheet, err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	// SUMMARY is a two-column label/value list.
	values := summaryRow(snap)
	for i, label := range summaryHeader {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		row := []any{label, values[i]}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", summarySheet, i+1, err)
		}
	}
	if err := f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summaryHeader)), bold); err != nil {
		return fmt.Errorf("styling %s: %w", summarySheet, err)
	}
	if err := f.SetColWidth(summarySheet, "A", "B", 40); err != nil {
		return fmt.Errorf("sizing %s: %w", summarySheet, err)
	}

	for i, row := range investorRows(snap) {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(investorsSheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", investorsSheet, i+1, err)
		}
	}
	if err := f.SetCellStyle(investorsSheet, "A1", "E1", bold); err != nil {
		return fmt.Errorf("styling %s: %w", investorsSheet, err)
	}
	if err := f.SetColWidth(investorsSheet, "A", "E", 24); err != nil {
		return fmt.Errorf("sizing %s: %w", investorsSheet, err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
