// Package report aggregates per-file and global statistics for
// operator visibility. Pure derivation: no side effects beyond the
// returned structure.
package report

import (
	"github.com/google/uuid"

	"github.com/rumor-ml/ledgermerge/internal/dedup"
	"github.com/rumor-ml/ledgermerge/internal/standardize"
)

// SkippedFile records a file excluded from the run and why.
type SkippedFile struct {
	FileName string
	Reason   string
}

// Summary is the aggregated outcome of one consolidation run.
type Summary struct {
	RunID                string
	Files                []standardize.Stats
	Skipped              []SkippedFile
	LedgerRows           int
	OriginalRows         int // sum over files
	InstallmentRows      int // sum over files
	TrimmedRows          int // sum over files
	ExcludedRows         int // sum over files
	DuplicateKeys        int
	DuplicateOccurrences int
}

// Build computes the summary from per-file statistics, the skip list
// and the reconciliation engine's final state.
func Build(files []standardize.Stats, skipped []SkippedFile, engine *dedup.Engine) Summary {
	s := Summary{
		RunID:                uuid.NewString(),
		Files:                append([]standardize.Stats(nil), files...),
		Skipped:              append([]SkippedFile(nil), skipped...),
		LedgerRows:           engine.LedgerLen(),
		DuplicateKeys:        engine.Report().Len(),
		DuplicateOccurrences: engine.Report().TotalOccurrences(),
	}
	for _, f := range files {
		s.OriginalRows += f.OriginalRows
		s.InstallmentRows += f.InstallmentRows
		s.TrimmedRows += f.TrimmedRows
		s.ExcludedRows += f.ExcludedRows
	}
	return s
}

// Conserved checks the row-conservation property: every canonical row
// either reached the ledger or is accounted for as a duplicate
// occurrence.
func (s *Summary) Conserved() bool {
	return s.OriginalRows == s.LedgerRows+s.DuplicateOccurrences
}
