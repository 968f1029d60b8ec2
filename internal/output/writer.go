// Package output renders the final ledger. The core pipeline hands
// over records and never formats them itself; everything about display
// and persistence lives here.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rumor-ml/ledgermerge/internal/domain"
)

// Columns is the master ledger column set, in output order. The signed
// amount is the only carrier of credit/debit direction.
var Columns = []string{
	"Transaction Date",
	"Transaction Account",
	"Transaction Description",
	"Currency",
	"Amount",
	"Category",
	"Subcategory",
	"Note",
}

// rowValues projects one record onto the master columns
func rowValues(r *domain.Record) []string {
	return []string{
		r.DateString(),
		r.AccountID,
		r.Description,
		r.Currency,
		strconv.FormatFloat(r.Amount, 'f', 2, 64),
		r.Category,
		r.Subcategory,
		r.Note,
	}
}

// WriteCSV writes the ledger as delimited text
func WriteCSV(records []domain.Record, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i := range records {
		if err := cw.Write(rowValues(&records[i])); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the ledger as delimited text to a file
func WriteCSVFile(records []domain.Record, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", path, closeErr)
		}
	}()

	if err = WriteCSV(records, f); err != nil {
		return fmt.Errorf("failed to write ledger to %s: %w", path, err)
	}
	return nil
}

// WriteMaster writes the ledger to the destination implied by the path
// extension: .xlsx for a styled workbook, .db/.sqlite/.sqlite3 for a
// sqlite database, anything else as delimited text.
//
// A failed workbook write (destination locked, disk full) degrades to a
// plain CSV next to the requested path rather than losing computed
// data; the returned path is where the ledger actually landed.
func WriteMaster(records []domain.Record, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		if err := WriteWorkbook(records, path); err != nil {
			fallback := strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
			if csvErr := WriteCSVFile(records, fallback); csvErr != nil {
				return "", fmt.Errorf("workbook write failed (%v) and CSV fallback failed: %w", err, csvErr)
			}
			return fallback, nil
		}
		return path, nil
	case ".db", ".sqlite", ".sqlite3":
		if err := WriteSQLite(records, path); err != nil {
			return "", err
		}
		return path, nil
	default:
		if err := WriteCSVFile(records, path); err != nil {
			return "", err
		}
		return path, nil
	}
}
