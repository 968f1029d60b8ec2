package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rumor-ml/ledgermerge/internal/formats"
)

const pipelineFormats = `
formats:
  - source_key: "19988560"
    column_map:
      "Date": transaction_date
      "Narrative": transaction_description
      "Amount": original_amount
    currency: GBP
    account_kind: current
    file_kind: delimited
    header_offset: 0
`

func newRegistry(t *testing.T) *formats.Registry {
	t.Helper()
	reg, err := formats.NewRegistry([]byte(pipelineFormats))
	if err != nil {
		t.Fatal(err)
	}
	return reg
}

func writeStatement(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_MergesInFileOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeStatement(t, dir, "19988560_a.csv",
		"Date,Narrative,Amount\n01/03/2024,SHARED,-10\n02/03/2024,ONLY-A,-20\n")
	b := writeStatement(t, dir, "19988560_b.csv",
		"Date,Narrative,Amount\n01/03/2024,SHARED,-10\n03/03/2024,ONLY-B,30\n")

	p := New(newRegistry(t))
	result, err := p.Run(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(result.Ledger) != 3 {
		t.Fatalf("ledger rows = %d, want 3", len(result.Ledger))
	}
	if result.Summary.DuplicateOccurrences != 1 {
		t.Errorf("duplicate occurrences = %d, want 1", result.Summary.DuplicateOccurrences)
	}
	if !result.Summary.Conserved() {
		t.Error("conservation must hold")
	}

	entries := result.Report.Entries()
	if len(entries) != 1 {
		t.Fatalf("report entries = %d, want 1", len(entries))
	}
	if entries[0].Files[0] != "19988560_a.csv" {
		t.Errorf("first-seen file = %q, want the earlier file", entries[0].Files[0])
	}
}

func TestRun_SkipsUnknownAndBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	unknown := writeStatement(t, dir, "mystery.csv", "A,B\n1,2\n")
	missing := filepath.Join(dir, "19988560_gone.csv")
	good := writeStatement(t, dir, "19988560_good.csv",
		"Date,Narrative,Amount\n01/03/2024,ROW,-10\n")

	var warnings []string
	p := New(newRegistry(t))
	p.Warnf = func(format string, args ...interface{}) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}

	result, err := p.Run(context.Background(), []string{unknown, missing, good})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	if len(result.Ledger) != 1 {
		t.Errorf("ledger rows = %d, want 1 from the surviving file", len(result.Ledger))
	}
	if len(result.Summary.Skipped) != 2 {
		t.Errorf("skipped = %+v, want 2 entries", result.Summary.Skipped)
	}
	if len(warnings) < 2 {
		t.Errorf("expected skip warnings, got %v", warnings)
	}
}

func TestRun_AllFilesFailingYieldsEmptyLedger(t *testing.T) {
	p := New(newRegistry(t))
	result, err := p.Run(context.Background(), []string{"no-such-format.csv"})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if len(result.Ledger) != 0 || len(result.Summary.Skipped) != 1 {
		t.Errorf("result = %+v", result.Summary)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(newRegistry(t))
	if _, err := p.Run(ctx, []string{"19988560_a.csv"}); err == nil {
		t.Fatal("expected cancellation error")
	}
}

func TestRun_Determinism(t *testing.T) {
	dir := t.TempDir()
	a := writeStatement(t, dir, "19988560_a.csv",
		"Date,Narrative,Amount\n01/03/2024,X,-10\n02/03/2024,Y,-20\n")
	b := writeStatement(t, dir, "19988560_b.csv",
		"Date,Narrative,Amount\n02/03/2024,Y,-20\n")

	p := New(newRegistry(t))
	run := func() *Result {
		r, err := p.Run(context.Background(), []string{a, b})
		if err != nil {
			t.Fatal(err)
		}
		return r
	}

	r1, r2 := run(), run()
	if len(r1.Ledger) != len(r2.Ledger) {
		t.Fatal("re-running must yield an identical ledger")
	}
	for i := range r1.Ledger {
		if r1.Ledger[i] != r2.Ledger[i] {
			t.Errorf("ledger row %d differs between runs", i)
		}
	}
}
