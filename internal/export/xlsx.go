package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheetName = "Transactions"

// WriteXLSX writes the report to an XLSX workbook at path. The workbook has a
// single sheet with a bold frozen header row and a formatted amount column.
func WriteXLSX(path string, report Report) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", xlsxSheetName); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	// Built-in format 4 is #,##0.00.
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	header := Header()
	headerRow := make([]any, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(xlsxSheetName, "A1", &headerRow); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	lastCol, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return fmt.Errorf("failed to compute header range: %w", err)
	}
	if err := f.SetCellStyle(xlsxSheetName, "A1", lastCol, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range report.Rows {
		cell := fmt.Sprintf("A%d", i+2)
		values := []any{
			row.CardholderName,
			row.TransactionDate.Format("2006-01-02"),
			row.PostingDate.Format("2006-01-02"),
			row.Merchant,
			row.Description,
			row.Amount,
			row.GLAccount,
			row.JobCode,
			row.Phase,
			row.CostType,
			row.EquipmentCode,
			row.EquipmentCostCode,
			row.Notes,
			string(row.Status),
			row.CodedBy,
			row.ReviewedBy,
			row.TransactionID,
		}
		if err := f.SetSheetRow(xlsxSheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	// Amount lives in column F.
	if len(report.Rows) > 0 {
		last := fmt.Sprintf("F%d", len(report.Rows)+1)
		if err := f.SetCellStyle(xlsxSheetName, "F2", last, amountStyle); err != nil {
			return fmt.Errorf("failed to style amount column: %w", err)
		}
	}

	widths := map[string]float64{"A": 24, "D": 28, "E": 36, "M": 32, "Q": 38}
	for col, width := range widths {
		if err := f.SetColWidth(xlsxSheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	if err := f.SetPanes(xlsxSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	return nil
}
