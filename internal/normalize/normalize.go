// Package normalize canonicalizes raw table headers and applies a
// descriptor's column map onto the canonical working column set.
//
// Matching is a two-phase normalize-then-match step: headers are
// canonicalized first (Unicode normalization, whitespace collapse),
// then each mapped source name is located by substring containment.
// Bank exports vary header text by trailing punctuation and currency
// glyphs, so exact-match renaming is too brittle.
package normalize

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rumor-ml/ledgermerge/internal/formats"
	"github.com/rumor-ml/ledgermerge/internal/table"
)

// MissingColumnsError reports canonical fields the descriptor requires
// that were absent after renaming. The file is skipped; the run
// continues.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns after normalization: %s", strings.Join(e.Missing, ", "))
}

// headerTransform folds composed forms and strips invisible format
// characters (RTL marks and friends) that Hebrew bank exports embed in
// header cells.
var headerTransform = transform.Chain(norm.NFC, runes.Remove(runes.In(unicode.Cf)))

// Header canonicalizes one header string: Unicode NFC, format-character
// removal, whitespace trim, and any run of whitespace (including
// non-breaking variants) collapsed to a single space.
func Header(s string) string {
	normalized, _, err := transform.String(headerTransform, s)
	if err != nil {
		// Malformed input falls back to the raw string; whitespace
		// collapse below still applies.
		normalized = s
	}
	return strings.Join(strings.Fields(normalized), " ")
}

// Apply canonicalizes the table's headers, then renames the first
// header containing each mapped source name (after the same
// canonicalization) to its canonical field. Returns
// *MissingColumnsError when a required canonical field is absent
// afterwards.
func Apply(t *table.Table, desc *formats.Descriptor) error {
	headers := t.Headers()
	canonical := make([]string, len(headers))
	for i, h := range headers {
		canonical[i] = Header(h)
	}
	if err := t.SetHeaders(canonical); err != nil {
		return fmt.Errorf("failed to canonicalize headers: %w", err)
	}

	// Deterministic application order regardless of map iteration
	sources := make([]string, 0, len(desc.ColumnMap))
	for src := range desc.ColumnMap {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	for _, src := range sources {
		field := desc.ColumnMap[src]
		want := Header(src)
		for _, h := range t.Headers() {
			if strings.Contains(h, want) {
				if err := t.RenameHeader(h, field); err != nil {
					return fmt.Errorf("failed to rename column %q to %q: %w", h, field, err)
				}
				break
			}
		}
	}

	if missing := missingFields(t, desc); len(missing) > 0 {
		return &MissingColumnsError{Missing: missing}
	}
	return nil
}

// missingFields returns the required canonical fields the table lacks,
// sorted for stable error text. Date, description and the descriptor's
// amount shape are required; transaction_type and note are optional.
func missingFields(t *table.Table, desc *formats.Descriptor) []string {
	required := []string{formats.FieldDate, formats.FieldDescription}
	if desc.Paired() {
		required = append(required, formats.FieldDebit, formats.FieldCredit)
	} else {
		required = append(required, formats.FieldAmount)
	}

	var missing []string
	for _, field := range required {
		if !t.HasColumn(field) {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return missing
}
