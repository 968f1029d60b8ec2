package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/rumor-ml/ledgermerge/internal/enrich"
	"github.com/rumor-ml/ledgermerge/internal/formats"
	"github.com/rumor-ml/ledgermerge/internal/output"
	"github.com/rumor-ml/ledgermerge/internal/pipeline"
	"github.com/rumor-ml/ledgermerge/internal/report"
	"github.com/rumor-ml/ledgermerge/internal/rules"
	"github.com/rumor-ml/ledgermerge/internal/scanner"
	"github.com/rumor-ml/ledgermerge/internal/ui"
	"github.com/rumor-ml/ledgermerge/internal/validate"
)

const (
	version = "0.1.0"
)

var (
	// Global flags
	versionFlag = flag.Bool("version", false, "Show version")

	// Core CLI flags
	inputDir = flag.String("input", "", "Input directory containing statement exports (required)")
	dryRun   = flag.Bool("dry-run", false, "Show which files would be consolidated without writing")
	verbose  = flag.Bool("verbose", false, "Show detailed processing logs")

	// Output flags
	outputFile = flag.String("output", "master_transactions.xlsx", "Output file (.xlsx, .csv or .db)")

	// Configuration flags
	formatsFile    = flag.String("formats", "", "Format registry file (default: embedded registry)")
	categoriesFile = flag.String("categories", "", "Category lookup file for enrichment (optional)")
	rulesFile      = flag.String("rules", "", "Category rules file (default: embedded rules)")
	noRules        = flag.Bool("no-rules", false, "Disable rule-based categorization")
	strict         = flag.Bool("strict", false, "Fail when any input file is skipped")
)

func main() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `ledgermerge - Consolidate bank and card statement exports into one ledger

Usage:
  ledgermerge [flags]

Flags:
`)
		flag.PrintDefaults()
		fmt.Fprint(os.Stderr, `
Examples:
  # Consolidate all exports into the default workbook
  ledgermerge -input ~/statements

  # Write a CSV ledger with category enrichment
  ledgermerge -input ~/statements -output ledger.csv -categories Categories.xlsx

  # Dry run with verbose output
  ledgermerge -input ~/statements -dry-run -verbose

`)
	}

	flag.Parse()

	if *versionFlag {
		fmt.Printf("ledgermerge version %s\n", version)
		os.Exit(0)
	}

	if *inputDir == "" {
		fmt.Fprintf(os.Stderr, "Error: -input flag is required\n\n")
		flag.Usage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	if !*verbose {
		ui.Header("Consolidating Statement Exports")
		ui.Step(1, 4, "Scanning directory")
	} else {
		fmt.Fprintf(os.Stderr, "Scanning directory: %s\n", *inputDir)
	}

	s := scanner.New(*inputDir)
	files, err := s.Scan()
	if err != nil {
		return fmt.Errorf("failed to scan directory %s: %w", *inputDir, err)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Found %d statement files\n", len(files))
		for _, f := range files {
			fmt.Fprintf(os.Stderr, "  - %s\n", f)
		}
	} else {
		ui.Success(fmt.Sprintf("Found %d statement files", len(files)))
	}

	var registry *formats.Registry
	if *formatsFile != "" {
		registry, err = formats.LoadFromFile(*formatsFile)
		if err != nil {
			return fmt.Errorf("failed to load format registry: %w", err)
		}
	} else {
		registry, err = formats.LoadEmbedded()
		if err != nil {
			return fmt.Errorf("failed to load embedded format registry: %w", err)
		}
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "Registered formats: %v\n", registry.SourceKeys())
	}

	if *dryRun {
		for _, f := range files {
			name := filepath.Base(f)
			desc, err := registry.Match(name)
			if err != nil {
				fmt.Printf("  skip  %s (%v)\n", name, err)
				continue
			}
			fmt.Printf("  parse %s (account %s, %s)\n", name, desc.ResolvedAccountID(), desc.AccountKind)
		}
		fmt.Printf("Dry run complete. Would process %d files.\n", len(files))
		return nil
	}

	if len(files) == 0 {
		return fmt.Errorf("no statement files found in %s\n\nPlease check:\n  - Directory path is correct\n  - Files have supported extensions (.csv, .xlsx)\n  - You have read permissions on the directory and files\n\nRun with -verbose to see file discovery details", *inputDir)
	}

	if !*verbose {
		ui.Step(2, 4, "Standardizing and reconciling")
	} else {
		fmt.Fprintln(os.Stderr, "\nStandardizing and reconciling statements...")
	}

	p := pipeline.New(registry)
	if *verbose {
		p.Warnf = func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, "  "+format+"\n", args...)
		}
	} else {
		p.Warnf = func(format string, args ...interface{}) {
			ui.Warning(fmt.Sprintf(format, args...))
		}
	}

	result, err := p.Run(ctx, files)
	if err != nil {
		return fmt.Errorf("consolidation failed: %w", err)
	}

	if *strict && len(result.Summary.Skipped) > 0 {
		return fmt.Errorf("%d file(s) skipped in strict mode:\n%s",
			len(result.Summary.Skipped), formatSkipped(result.Summary.Skipped))
	}

	if !*verbose {
		ui.Step(3, 4, "Validating ledger")
	}
	validationResult := validate.ValidateLedger(result.Ledger, &result.Summary)
	if !validationResult.Valid() {
		if *verbose {
			fmt.Fprintf(os.Stderr, "\nValidation failed with %d errors:\n", len(validationResult.Errors))
			for _, e := range validationResult.Errors {
				fmt.Fprintf(os.Stderr, "  - %s %d [%s]: %s\n", e.Entity, e.Index, e.Field, e.Message)
			}
		} else {
			ui.Error(fmt.Sprintf("Validation failed with %d errors", len(validationResult.Errors)))
			for i, e := range validationResult.Errors {
				if i >= 5 {
					ui.Error(fmt.Sprintf("... and %d more errors", len(validationResult.Errors)-5))
					break
				}
				ui.Error(fmt.Sprintf("%s %d [%s]: %s", e.Entity, e.Index, e.Field, e.Message))
			}
		}
		return fmt.Errorf("validation failed with %d errors", len(validationResult.Errors))
	}
	if *verbose {
		for _, w := range validationResult.Warnings {
			fmt.Fprintf(os.Stderr, "  warning: %s %d [%s]: %s\n", w.Entity, w.Index, w.Field, w.Message)
		}
	}

	if *categoriesFile != "" {
		categorizer, err := enrich.LoadCategorizer(*categoriesFile)
		if err != nil {
			return fmt.Errorf("failed to load categories: %w", err)
		}
		updated := categorizer.Apply(result.Ledger)
		if *verbose {
			fmt.Fprintf(os.Stderr, "Categorized %d of %d transactions (%d lookup entries)\n",
				updated, len(result.Ledger), categorizer.Len())
		} else {
			ui.Info(fmt.Sprintf("Categorized %d of %d transactions", updated, len(result.Ledger)))
		}
	}

	// Rule-based fallback for descriptions the lookup table missed
	if !*noRules {
		var engine *rules.Engine
		if *rulesFile != "" {
			engine, err = rules.LoadFromFile(*rulesFile)
			if err != nil {
				return fmt.Errorf("failed to load rules file: %w", err)
			}
		} else {
			engine, err = rules.LoadEmbedded()
			if err != nil {
				return fmt.Errorf("failed to load embedded rules: %w", err)
			}
		}

		ruled := 0
		for i := range result.Ledger {
			if result.Ledger[i].Category != "" {
				continue
			}
			match, ok := engine.Match(result.Ledger[i].Description)
			if !ok {
				continue
			}
			result.Ledger[i].Category = match.Category
			result.Ledger[i].Subcategory = match.Subcategory
			ruled++
		}
		if *verbose && ruled > 0 {
			fmt.Fprintf(os.Stderr, "Rule-matched %d remaining transactions (%d rules loaded)\n",
				ruled, len(engine.GetRules()))
		}
	}

	if !*verbose {
		ui.Step(4, 4, "Writing output")
	}
	written, err := output.WriteMaster(result.Ledger, *outputFile)
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if written != *outputFile {
		ui.Warning(fmt.Sprintf("Could not write %s, ledger saved to %s instead", *outputFile, written))
	}

	printSummary(&result.Summary)
	if !*verbose {
		ui.Success(fmt.Sprintf("Output written to %s", written))
	} else {
		fmt.Fprintf(os.Stderr, "Output written to %s\n", written)
	}
	return nil
}

func formatSkipped(skipped []report.SkippedFile) string {
	var b strings.Builder
	for _, sk := range skipped {
		fmt.Fprintf(&b, "  - %s: %s\n", sk.FileName, sk.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

func printSummary(s *report.Summary) {
	fmt.Fprintf(os.Stderr, "\nRun %s\n", s.RunID)
	for _, f := range s.Files {
		fmt.Fprintf(os.Stderr, "  %s: %d rows (account %s, %d installment, %d trimmed, %d excluded)\n",
			f.FileName, f.OriginalRows, f.AccountID, f.InstallmentRows, f.TrimmedRows, f.ExcludedRows)
	}
	for _, sk := range s.Skipped {
		ui.Warning(fmt.Sprintf("skipped %s: %s", sk.FileName, sk.Reason))
	}
	fmt.Fprintf(os.Stderr, "  Ledger rows: %d\n", s.LedgerRows)
	if s.DuplicateOccurrences > 0 {
		fmt.Fprintf(os.Stderr, "  Duplicates removed: %d occurrences across %d keys\n",
			s.DuplicateOccurrences, s.DuplicateKeys)
	}
}
