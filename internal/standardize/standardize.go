// Package standardize turns one statement file into canonical records:
// loading, header normalization, window trimming, amount resolution and
// installment correction, in that order.
package standardize

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rumor-ml/ledgermerge/internal/amount"
	"github.com/rumor-ml/ledgermerge/internal/domain"
	"github.com/rumor-ml/ledgermerge/internal/formats"
	"github.com/rumor-ml/ledgermerge/internal/installment"
	"github.com/rumor-ml/ledgermerge/internal/normalize"
	"github.com/rumor-ml/ledgermerge/internal/table"
	"github.com/rumor-ml/ledgermerge/internal/window"
)

// Stats are the per-file processing statistics. Immutable once
// computed; aggregated globally by summation.
type Stats struct {
	FileName        string
	OriginalRows    int // canonical rows emitted for this file
	InstallmentRows int
	TrimmedRows     int // rows removed by the window trims
	ExcludedRows    int // rows dropped for an unparseable date after trimming
	AccountID       string
	Currency        string
	AccountKind     domain.AccountKind
}

// Result is the outcome of standardizing one file.
type Result struct {
	Records  []domain.Record
	Stats    Stats
	Warnings []string
}

// File standardizes a single statement file against its descriptor.
// Cell-level parse failures degrade per the amount/date policies and
// surface as warnings; only whole-file failures (unreadable file,
// missing required columns) return an error, and even those abort only
// this file, not the run.
func File(ctx context.Context, path string, desc *formats.Descriptor) (*Result, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var (
		tbl *table.Table
		err error
	)
	switch desc.FileKind {
	case formats.FileKindSpreadsheet:
		tbl, err = table.LoadXLSX(path, desc.HeaderOffset)
	default:
		tbl, err = table.LoadCSV(path, desc.HeaderOffset, desc.Encoding)
	}
	if err != nil {
		return nil, err
	}

	if err := normalize.Apply(tbl, desc); err != nil {
		return nil, err
	}

	result := &Result{
		Stats: Stats{
			FileName:    filepath.Base(path),
			Currency:    desc.Currency,
			AccountKind: desc.AccountKind,
		},
	}

	dates, _ := tbl.Column(formats.FieldDate)
	keep := window.Trim(dates)
	result.Stats.TrimmedRows = tbl.Len() - keep
	tbl.Truncate(keep)

	accountID := desc.ResolvedAccountID()
	var meta *installment.Meta
	if desc.Installments {
		if m, ok := installment.ExtractMeta(tbl.Preamble()); ok {
			meta = m
			accountID = m.AccountID
		} else {
			result.warnf("%s: installment metadata not found; dates pass through unmodified", result.Stats.FileName)
		}
	}
	result.Stats.AccountID = accountID

	var txnTypes []string
	for i := 0; i < tbl.Len(); i++ {
		rec, txnType, ok := result.projectRow(tbl, desc, i, accountID)
		if !ok {
			continue
		}
		result.Records = append(result.Records, *rec)
		txnTypes = append(txnTypes, txnType)
	}

	if meta != nil {
		corrected := 0
		result.Records, corrected = installment.Apply(meta, result.Records, txnTypes)
		result.Stats.InstallmentRows = corrected
	}

	result.Stats.OriginalRows = len(result.Records)
	return result, nil
}

// projectRow maps one trimmed table row onto a canonical record.
// Returns ok=false when the row cannot become a record (unparseable
// date, blank description); the exclusion is counted and warned, never
// silent.
func (r *Result) projectRow(tbl *table.Table, desc *formats.Descriptor, i int, accountID string) (*domain.Record, string, bool) {
	dateCell, _ := tbl.Cell(i, formats.FieldDate)
	date, ok := window.ParseDate(dateCell)
	if !ok {
		r.Stats.ExcludedRows++
		r.warnf("%s: row %d: unparseable date %q, row excluded", r.Stats.FileName, i, dateCell)
		return nil, "", false
	}

	var signed float64
	var amountErr error
	if desc.Paired() {
		debitCell, _ := tbl.Cell(i, formats.FieldDebit)
		creditCell, _ := tbl.Cell(i, formats.FieldCredit)
		signed, amountErr = amount.ResolvePaired(desc.AccountKind, debitCell, creditCell)
	} else {
		amountCell, _ := tbl.Cell(i, formats.FieldAmount)
		signed, amountErr = amount.ResolveSingle(desc.AccountKind, amountCell)
	}
	if amountErr != nil {
		// Zero amount, row retained: dropping it would corrupt counts
		r.warnf("%s: row %d: %v, amount set to 0", r.Stats.FileName, i, amountErr)
	}

	description, _ := tbl.Cell(i, formats.FieldDescription)
	rec, err := domain.NewRecord(date, accountID, description, desc.Currency, signed)
	if err != nil {
		r.Stats.ExcludedRows++
		r.warnf("%s: row %d: %v, row excluded", r.Stats.FileName, i, err)
		return nil, "", false
	}

	if note, ok := tbl.Cell(i, formats.FieldNote); ok {
		rec.Note = note
	}
	txnType, _ := tbl.Cell(i, formats.FieldType)
	return rec, txnType, true
}

func (r *Result) warnf(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
