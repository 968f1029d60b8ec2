package output

import (
	"fmt"

	"github.com/rumor-ml/ledgermerge/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Ledger"

var columnWidths = map[string]float64{
	"A": 12, // date
	"B": 14, // account
	"C": 42, // description
	"D": 9,  // currency
	"E": 12, // amount
	"F": 16, // category
	"G": 16, // subcategory
	"H": 28, // note
}

// WriteWorkbook writes the ledger as a styled xlsx workbook: bold
// frozen header row, ISO dates, two-decimal amounts with negatives in
// red.
func WriteWorkbook(records []domain.Record, path string) (err error) {
	f := excelize.NewFile()
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close workbook: %w", closeErr)
		}
	}()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: strPtr("yyyy-mm-dd"),
	})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{
		CustomNumFmt: strPtr("#,##0.00;[Red]-#,##0.00"),
	})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	for i, name := range Columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, name); err != nil {
			return fmt.Errorf("failed to write header cell %s: %w", cell, err)
		}
	}
	if err := f.SetCellStyle(sheetName, "A1", "H1", headerStyle); err != nil {
		return fmt.Errorf("failed to style header row: %w", err)
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header row: %w", err)
	}
	for col, width := range columnWidths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set width of column %s: %w", col, err)
		}
	}

	for i := range records {
		r := &records[i]
		row := i + 2
		values := []interface{}{
			r.Date,
			r.AccountID,
			r.Description,
			r.Currency,
			r.Amount,
			r.Category,
			r.Subcategory,
			r.Note,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return fmt.Errorf("failed to compute cell for row %d: %w", row, err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
		dateCell := fmt.Sprintf("A%d", row)
		if err := f.SetCellStyle(sheetName, dateCell, dateCell, dateStyle); err != nil {
			return fmt.Errorf("failed to style date cell %s: %w", dateCell, err)
		}
		amountCell := fmt.Sprintf("E%d", row)
		if err := f.SetCellStyle(sheetName, amountCell, amountCell, amountStyle); err != nil {
			return fmt.Errorf("failed to style amount cell %s: %w", amountCell, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func strPtr(s string) *string { return &s }
