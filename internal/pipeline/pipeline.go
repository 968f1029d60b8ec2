// Package pipeline orchestrates a consolidation run: format
// resolution, per-file standardization and the ordered reconciliation
// fold.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/rumor-ml/ledgermerge/internal/dedup"
	"github.com/rumor-ml/ledgermerge/internal/domain"
	"github.com/rumor-ml/ledgermerge/internal/formats"
	"github.com/rumor-ml/ledgermerge/internal/report"
	"github.com/rumor-ml/ledgermerge/internal/standardize"
)

// Result is the complete output of one run, handed to the output stage.
type Result struct {
	Ledger  []domain.Record
	Summary report.Summary
	Report  *dedup.Report
}

// Pipeline runs files through standardization and reconciliation. Files
// are processed strictly sequentially: the reconciliation fold is
// order-dependent state, and the supplied file order decides which copy
// of a duplicate transaction the ledger retains.
type Pipeline struct {
	registry *formats.Registry

	// Warnf receives non-fatal diagnostics (skipped files, cell-level
	// parse warnings). Defaults to discarding them.
	Warnf func(format string, args ...interface{})
}

// New creates a pipeline over the given format registry
func New(registry *formats.Registry) *Pipeline {
	return &Pipeline{
		registry: registry,
		Warnf:    func(string, ...interface{}) {},
	}
}

// Run processes the files in the given order and returns the merged
// ledger, summary and duplicate report. Per-file failures skip that
// file and continue; Run itself fails only on context cancellation.
// An empty ledger with every file in the skip list is a valid outcome.
func (p *Pipeline) Run(ctx context.Context, files []string) (*Result, error) {
	engine := dedup.NewEngine()
	var stats []standardize.Stats
	var skipped []report.SkippedFile

	for _, path := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		fileName := filepath.Base(path)

		desc, err := p.registry.Match(fileName)
		if err != nil {
			p.Warnf("skipping %s: %v", fileName, err)
			skipped = append(skipped, report.SkippedFile{FileName: fileName, Reason: err.Error()})
			continue
		}

		result, err := standardize.File(ctx, path, desc)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			p.Warnf("skipping %s: %v", fileName, err)
			skipped = append(skipped, report.SkippedFile{FileName: fileName, Reason: err.Error()})
			continue
		}
		for _, w := range result.Warnings {
			p.Warnf("%s", w)
		}

		foldStats := engine.Fold(fileName, result.Records)
		if foldStats.DuplicatesIn+foldStats.DuplicatesCross > 0 {
			p.Warnf("%s: %d duplicate rows dropped (%d within file, %d seen in earlier files)",
				fileName, foldStats.DuplicatesIn+foldStats.DuplicatesCross,
				foldStats.DuplicatesIn, foldStats.DuplicatesCross)
		}

		stats = append(stats, result.Stats)
	}

	summary := report.Build(stats, skipped, engine)
	if !summary.Conserved() {
		// Should be impossible by construction; surfaced loudly rather
		// than silently shipping a ledger that lost rows.
		return nil, fmt.Errorf("row conservation violated: %d original rows, %d ledger rows, %d duplicate occurrences",
			summary.OriginalRows, summary.LedgerRows, summary.DuplicateOccurrences)
	}

	return &Result{
		Ledger:  engine.Ledger(),
		Summary: summary,
		Report:  engine.Report(),
	}, nil
}
