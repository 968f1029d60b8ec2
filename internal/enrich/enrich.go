// Package enrich populates category and subcategory fields on ledger
// records from a lookup table keyed by transaction description. It runs
// after reconciliation and never changes identity fields.
package enrich

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rumor-ml/ledgermerge/internal/domain"
	"github.com/xuri/excelize/v2"
)

const lookupSheetName = "Transactions"

// Lookup column headers expected in the mapping file.
const (
	matchHeader       = "Transaction Description"
	categoryHeader    = "Category"
	subcategoryHeader = "Subcategory"
)

type mapping struct {
	category    string
	subcategory string
}

// Categorizer assigns categories to records by exact description match.
// When the lookup table lists a description more than once, the first
// occurrence wins.
type Categorizer struct {
	byDescription map[string]mapping
}

// LoadCategorizer reads a lookup table from path. An .xlsx file is read
// from its Transactions sheet (falling back to the first sheet);
// anything else is read as delimited text. The table needs the
// Transaction Description, Category and Subcategory columns.
func LoadCategorizer(path string) (*Categorizer, error) {
	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		rows, err = readWorkbookRows(path)
	} else {
		rows, err = readCSVRows(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read categories file %s: %w", path, err)
	}
	return newCategorizer(rows)
}

func readWorkbookRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheet := lookupSheetName
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	return f.GetRows(sheet)
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func newCategorizer(rows [][]string) (*Categorizer, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("categories table is empty")
	}

	matchIdx, catIdx, subIdx := -1, -1, -1
	for i, h := range rows[0] {
		switch strings.TrimSpace(h) {
		case matchHeader:
			matchIdx = i
		case categoryHeader:
			catIdx = i
		case subcategoryHeader:
			subIdx = i
		}
	}
	if matchIdx < 0 || catIdx < 0 {
		return nil, fmt.Errorf("categories table missing required columns %q and %q", matchHeader, categoryHeader)
	}

	byDescription := make(map[string]mapping)
	for _, row := range rows[1:] {
		if matchIdx >= len(row) {
			continue
		}
		desc := strings.TrimSpace(row[matchIdx])
		if desc == "" {
			continue
		}
		if _, seen := byDescription[desc]; seen {
			continue // first occurrence wins
		}
		m := mapping{}
		if catIdx < len(row) {
			m.category = strings.TrimSpace(row[catIdx])
		}
		if subIdx >= 0 && subIdx < len(row) {
			m.subcategory = strings.TrimSpace(row[subIdx])
		}
		byDescription[desc] = m
	}
	return &Categorizer{byDescription: byDescription}, nil
}

// Len returns the number of distinct descriptions in the lookup table
func (c *Categorizer) Len() int {
	return len(c.byDescription)
}

// Apply fills category and subcategory on every record whose trimmed
// description matches a lookup entry exactly. Records without a match
// keep whatever they already carry. Returns the number of records
// updated.
func (c *Categorizer) Apply(records []domain.Record) int {
	updated := 0
	for i := range records {
		m, ok := c.byDescription[strings.TrimSpace(records[i].Description)]
		if !ok {
			continue
		}
		records[i].Category = m.category
		records[i].Subcategory = m.subcategory
		updated++
	}
	return updated
}

// WriteLookupTemplate writes an empty lookup table so users can seed
// their own mapping file.
func WriteLookupTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{matchHeader, categoryHeader, subcategoryHeader}); err != nil {
		return fmt.Errorf("failed to write template header: %w", err)
	}
	cw.Flush()
	return cw.Error()
}
