// Package installment realigns installment purchases on credit-card
// statements that bill installment plans one month in arrears: the
// statement lists each installment under the billing month, while the
// ledger wants it under its original purchase month.
package installment

import (
	"regexp"
	"strings"
	"time"

	"github.com/rumor-ml/ledgermerge/internal/domain"
	"github.com/rumor-ml/ledgermerge/internal/window"
)

// Types are the transaction-type labels that mark installment rows.
var Types = []string{
	"תשלומים",
	"קרדיט",
	"installments",
}

// Meta is the billing metadata extracted from the statement preamble.
type Meta struct {
	AccountID string    // trailing digit run of the account metadata cell
	Billing   time.Time // statement billing date
	Label     string    // text before the first colon of the billing cell
}

// PurchaseMonth returns the prior calendar month of the billing date,
// rolling the year back across January.
func (m *Meta) PurchaseMonth() (time.Month, int) {
	month := m.Billing.Month()
	year := m.Billing.Year()
	if month == time.January {
		return time.December, year - 1
	}
	return month - 1, year
}

var (
	trailingDigits = regexp.MustCompile(`(\d+)\s*$`)
	embeddedDate   = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{2,4}`)
)

// ExtractMeta scans the preamble rows for the two metadata cells: one
// ending in a digit run (the account identifier) and one carrying a
// label, a colon and an embedded day/month/year date (the billing
// date). Returns false when either cell is absent or unparseable;
// metadata presence varies by statement layout version, so this is
// never an error.
func ExtractMeta(preamble [][]string) (*Meta, bool) {
	meta := &Meta{}

	for _, row := range preamble {
		for _, cell := range row {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}

			if meta.AccountID == "" {
				// The account cell ends in the card's numeric run but
				// carries no date of its own.
				if m := trailingDigits.FindStringSubmatch(cell); m != nil && !embeddedDate.MatchString(cell) {
					meta.AccountID = m[1]
					continue
				}
			}

			if meta.Billing.IsZero() {
				if raw := embeddedDate.FindString(cell); raw != "" {
					if d, ok := window.ParseDate(raw); ok {
						meta.Billing = d
						if i := strings.Index(cell, ":"); i > 0 {
							meta.Label = strings.TrimSpace(cell[:i])
						}
					}
				}
			}
		}
	}

	if meta.AccountID == "" || meta.Billing.IsZero() {
		return nil, false
	}
	return meta, true
}

// isInstallmentType reports whether a transaction-type label marks an
// installment row.
func isInstallmentType(txnType string) bool {
	t := strings.TrimSpace(txnType)
	for _, known := range Types {
		if strings.EqualFold(t, known) {
			return true
		}
	}
	return false
}

// Apply rewrites the month and year of every installment-typed record
// to the purchase month (day unchanged) and appends the metadata label
// to the record's note, preserving any existing note content. txnTypes
// runs parallel to records; rows not flagged as installments pass
// through untouched. Returns the corrected records and the number of
// rows rewritten.
func Apply(meta *Meta, records []domain.Record, txnTypes []string) ([]domain.Record, int) {
	if meta == nil {
		return records, 0
	}

	month, year := meta.PurchaseMonth()
	out := make([]domain.Record, len(records))
	corrected := 0

	for i, rec := range records {
		if i < len(txnTypes) && isInstallmentType(txnTypes[i]) {
			rec.Date = time.Date(year, month, rec.Date.Day(), 0, 0, 0, 0, time.UTC)
			if meta.Label != "" {
				if rec.Note != "" {
					rec.Note = rec.Note + " " + meta.Label
				} else {
					rec.Note = meta.Label
				}
			}
			corrected++
		}
		out[i] = rec
	}

	return out, corrected
}
