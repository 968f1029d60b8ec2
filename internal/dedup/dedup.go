// Package dedup reconciles per-file canonical tables into one ledger,
// recognizing the same real-world transaction across files via SHA256
// identity fingerprinting.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/rumor-ml/ledgermerge/internal/domain"
)

// Fingerprint creates a SHA256 hash of the identity key: date, account,
// description and signed amount.
// Format: SHA256("{date}|{account}|{description}|{amount}")
// Amount is formatted with 2 decimal places for consistency; the
// description is trimmed but otherwise matched exactly.
func Fingerprint(r *domain.Record) string {
	input := fmt.Sprintf("%s|%s|%s|%.2f",
		r.DateString(), r.AccountID, strings.TrimSpace(r.Description), r.Amount)
	hash := sha256.Sum256([]byte(input))
	return hex.EncodeToString(hash[:])
}

// Key is the readable form of an identity fingerprint, kept in the
// duplicate report so operators can locate the source rows.
type Key struct {
	Date        string
	AccountID   string
	Description string
	Amount      float64
}

// Entry records every file in which one identity key was observed.
// Files[0] is the file that first produced the key and whose copy the
// ledger retains; later entries are re-observations, one per duplicate
// occurrence (a file re-observing the key twice appears twice).
type Entry struct {
	Key   Key
	Files []string
}

// Occurrences returns the number of duplicate observations beyond the
// first.
func (e *Entry) Occurrences() int {
	return len(e.Files) - 1
}

// Report is the duplicate-provenance report for one run. Grows only;
// never pruned within a run.
type Report struct {
	entries map[string]*Entry
	order   []string // fingerprint insertion order, for deterministic output
}

// NewReport creates an empty duplicate report
func NewReport() *Report {
	return &Report{entries: make(map[string]*Entry)}
}

func (r *Report) record(fingerprint string, key Key, fileName string) {
	e, ok := r.entries[fingerprint]
	if !ok {
		e = &Entry{Key: key}
		r.entries[fingerprint] = e
		r.order = append(r.order, fingerprint)
	}
	e.Files = append(e.Files, fileName)
}

// Len returns the number of identity keys with at least one duplicate
// occurrence.
func (r *Report) Len() int {
	n := 0
	for _, e := range r.entries {
		if e.Occurrences() > 0 {
			n++
		}
	}
	return n
}

// TotalOccurrences returns the total duplicate observations beyond each
// key's first, summed over all keys.
func (r *Report) TotalOccurrences() int {
	n := 0
	for _, e := range r.entries {
		n += e.Occurrences()
	}
	return n
}

// Entries returns the keys that were observed more than once, in
// first-observation order.
func (r *Report) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, fp := range r.order {
		e := r.entries[fp]
		if e.Occurrences() == 0 {
			continue
		}
		out = append(out, Entry{
			Key:   e.Key,
			Files: append([]string(nil), e.Files...),
		})
	}
	return out
}

// FoldStats summarizes one file's fold into the engine.
type FoldStats struct {
	Added           int // records appended to the ledger
	DuplicatesIn    int // repeated keys inside the file itself
	DuplicatesCross int // keys already produced by an earlier file
}

// Engine merges per-file record batches into one ledger. Files must be
// folded in the caller-controlled processing order: the first file to
// produce an identity key wins, and its copy is retained verbatim. The
// engine owns all its state and must not be used concurrently.
type Engine struct {
	ledger *domain.Ledger
	seen   map[string]string // fingerprint -> file that first produced it
	report *Report
}

// NewEngine creates an empty reconciliation engine
func NewEngine() *Engine {
	return &Engine{
		ledger: domain.NewLedger(),
		seen:   make(map[string]string),
		report: NewReport(),
	}
}

// Fold merges one file's canonical records into the ledger. Rows are
// deduplicated within the file first (first occurrence kept), then each
// surviving row is tested against the global seen-set: unseen keys are
// appended to the ledger, seen keys are dropped and recorded in the
// duplicate report alongside the file that first produced them.
func (e *Engine) Fold(fileName string, records []domain.Record) FoldStats {
	var stats FoldStats
	inFile := make(map[string]struct{}, len(records))

	for i := range records {
		rec := records[i]
		fp := Fingerprint(&rec)
		key := Key{
			Date:        rec.DateString(),
			AccountID:   rec.AccountID,
			Description: rec.Description,
			Amount:      rec.Amount,
		}

		if _, dup := inFile[fp]; dup {
			stats.DuplicatesIn++
			e.report.record(fp, key, fileName)
			continue
		}
		inFile[fp] = struct{}{}

		if _, dup := e.seen[fp]; dup {
			stats.DuplicatesCross++
			e.report.record(fp, key, fileName)
			continue
		}

		e.seen[fp] = fileName
		e.report.record(fp, key, fileName)
		e.ledger.Append(rec)
		stats.Added++
	}

	return stats
}

// Ledger returns the records accepted so far, in acceptance order
func (e *Engine) Ledger() []domain.Record {
	return e.ledger.Records()
}

// LedgerLen returns the number of accepted records
func (e *Engine) LedgerLen() int {
	return e.ledger.Len()
}

// Report returns the duplicate-provenance report
func (e *Engine) Report() *Report {
	return e.report
}

// FirstSeenIn returns the file that first produced the given record's
// identity key, if any.
func (e *Engine) FirstSeenIn(r *domain.Record) (string, bool) {
	file, ok := e.seen[Fingerprint(r)]
	return file, ok
}
