// Package domain defines the canonical transaction model shared by every
// pipeline stage.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// AccountKind classifies the source account of a statement file.
// Use ValidateAccountKind to ensure validity before use.
type AccountKind string

const (
	AccountKindCurrent    AccountKind = "current"
	AccountKindCreditCard AccountKind = "credit-card"
)

var validAccountKinds = map[AccountKind]struct{}{
	AccountKindCurrent: {}, AccountKindCreditCard: {},
}

// ValidateAccountKind checks if the account kind is valid
func ValidateAccountKind(k AccountKind) bool {
	_, ok := validAccountKinds[k]
	return ok
}

// Record is the canonical, source-agnostic representation of one
// financial transaction.
type Record struct {
	Date        time.Time // calendar date, time component always midnight UTC
	AccountID   string
	Description string
	Currency    string
	// Sign convention:
	//   Positive = credit/inflow
	//   Negative = debit/outflow
	// The sign is the single source of truth for direction; no separate
	// credit/debit flag exists anywhere in the model.
	Amount      float64
	Category    string // populated by the enrichment pass, empty at creation
	Subcategory string // populated by the enrichment pass, empty at creation
	Note        string // installment annotation, empty otherwise
}

// NewRecord creates a validated canonical record. Category, subcategory
// and note start empty.
func NewRecord(date time.Time, accountID, description, currency string, amount float64) (*Record, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("transaction date cannot be zero")
	}
	if accountID == "" {
		return nil, fmt.Errorf("account ID cannot be empty")
	}
	if strings.TrimSpace(description) == "" {
		return nil, fmt.Errorf("description cannot be empty")
	}
	if currency == "" {
		return nil, fmt.Errorf("currency cannot be empty")
	}

	return &Record{
		Date:        truncateToDay(date),
		AccountID:   accountID,
		Description: description,
		Currency:    currency,
		Amount:      amount,
	}, nil
}

// DateString returns the transaction date formatted as YYYY-MM-DD.
func (r *Record) DateString() string {
	return r.Date.Format("2006-01-02")
}

// truncateToDay drops any time-of-day component, keeping the calendar date in UTC
func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Ledger is the ordered collection of canonical records produced by one
// run. Records are append-only; order is the order in which the
// reconciliation engine accepted them.
type Ledger struct {
	records []Record
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{records: []Record{}}
}

// Append adds a record to the end of the ledger
func (l *Ledger) Append(r Record) {
	l.records = append(l.records, r)
}

// Len returns the number of records in the ledger
func (l *Ledger) Len() int {
	return len(l.records)
}

// Records returns a defensive copy of the record slice
func (l *Ledger) Records() []Record {
	return append([]Record(nil), l.records...)
}
