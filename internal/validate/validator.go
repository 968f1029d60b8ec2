// Package validate checks a finished ledger and its run summary for
// internal consistency before anything is written to disk.
package validate

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rumor-ml/ledgermerge/internal/domain"
	"github.com/rumor-ml/ledgermerge/internal/report"
)

// ValidationResult contains all validation errors and warnings for a run
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// Valid reports whether the run passed validation
func (r *ValidationResult) Valid() bool {
	return len(r.Errors) == 0
}

// ValidationError represents a validation error
type ValidationError struct {
	Entity  string // "record", "summary"
	Index   int    // record index, -1 for summary-level errors
	Field   string
	Value   string
	Message string
}

// ValidationWarning represents a non-critical validation issue
type ValidationWarning struct {
	Entity  string
	Index   int
	Field   string
	Value   string
	Message string
}

// ValidateLedger checks every record against the canonical model
// constraints and, when a summary is given, checks that its row
// accounting balances. Returns all errors and warnings found.
func ValidateLedger(records []domain.Record, summary *report.Summary) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	for i := range records {
		validateRecord(result, i, &records[i])
	}

	if summary != nil {
		validateSummary(result, summary, len(records))
	}

	return result
}

func validateRecord(result *ValidationResult, i int, r *domain.Record) {
	if r.Date.IsZero() {
		result.Errors = append(result.Errors, ValidationError{
			Entity:  "record",
			Index:   i,
			Field:   "Date",
			Value:   "",
			Message: "transaction date cannot be zero",
		})
	} else {
		h, m, s := r.Date.Clock()
		if h != 0 || m != 0 || s != 0 || r.Date.Location() != time.UTC {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "record",
				Index:   i,
				Field:   "Date",
				Value:   r.Date.String(),
				Message: "transaction date must be midnight UTC",
			})
		}
	}

	if r.AccountID == "" {
		result.Errors = append(result.Errors, ValidationError{
			Entity:  "record",
			Index:   i,
			Field:   "AccountID",
			Value:   "",
			Message: "account ID cannot be empty",
		})
	}

	if strings.TrimSpace(r.Description) == "" {
		result.Errors = append(result.Errors, ValidationError{
			Entity:  "record",
			Index:   i,
			Field:   "Description",
			Value:   r.Description,
			Message: "description cannot be empty",
		})
	}

	if r.Currency == "" {
		result.Errors = append(result.Errors, ValidationError{
			Entity:  "record",
			Index:   i,
			Field:   "Currency",
			Value:   "",
			Message: "currency cannot be empty",
		})
	}

	if math.IsNaN(r.Amount) || math.IsInf(r.Amount, 0) {
		result.Errors = append(result.Errors, ValidationError{
			Entity:  "record",
			Index:   i,
			Field:   "Amount",
			Value:   fmt.Sprintf("%f", r.Amount),
			Message: "amount must be a finite number",
		})
	}

	if r.Amount == 0 {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Entity:  "record",
			Index:   i,
			Field:   "Amount",
			Value:   "0",
			Message: "zero-amount transaction, possibly an unparseable source cell",
		})
	}

	if r.Subcategory != "" && r.Category == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Entity:  "record",
			Index:   i,
			Field:   "Subcategory",
			Value:   r.Subcategory,
			Message: "subcategory set without a category",
		})
	}
}

func validateSummary(result *ValidationResult, s *report.Summary, ledgerLen int) {
	if s.LedgerRows != ledgerLen {
		result.Errors = append(result.Errors, ValidationError{
			Entity:  "summary",
			Index:   -1,
			Field:   "LedgerRows",
			Value:   fmt.Sprintf("%d", s.LedgerRows),
			Message: fmt.Sprintf("summary reports %d ledger rows but the ledger holds %d", s.LedgerRows, ledgerLen),
		})
	}

	if !s.Conserved() {
		result.Errors = append(result.Errors, ValidationError{
			Entity:  "summary",
			Index:   -1,
			Field:   "OriginalRows",
			Value:   fmt.Sprintf("%d", s.OriginalRows),
			Message: fmt.Sprintf("row accounting does not balance: %d original rows != %d ledger rows + %d duplicate occurrences",
				s.OriginalRows, s.LedgerRows, s.DuplicateOccurrences),
		})
	}

	if s.DuplicateKeys > s.DuplicateOccurrences {
		result.Errors = append(result.Errors, ValidationError{
			Entity:  "summary",
			Index:   -1,
			Field:   "DuplicateKeys",
			Value:   fmt.Sprintf("%d", s.DuplicateKeys),
			Message: "more duplicated keys than duplicate occurrences",
		})
	}

	if s.RunID == "" {
		result.Warnings = append(result.Warnings, ValidationWarning{
			Entity:  "summary",
			Index:   -1,
			Field:   "RunID",
			Value:   "",
			Message: "summary has no run ID",
		})
	}
}
