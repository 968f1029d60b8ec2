// Package formats provides the static registry of per-source Format
// Descriptors, loaded from YAML. A descriptor tells the pipeline how to
// read and map one statement layout; adding a source is a config edit,
// never a code change.
package formats

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rumor-ml/ledgermerge/internal/domain"
)

//go:embed formats.yaml
var embeddedFormats []byte

// FileKind declares how the raw bytes of a statement file are read
type FileKind string

const (
	// FileKindDelimited is comma-delimited text
	FileKindDelimited FileKind = "delimited"
	// FileKindSpreadsheet is an xlsx workbook
	FileKindSpreadsheet FileKind = "spreadsheet"
)

// Canonical field names a column map may target. FieldDate,
// FieldDescription and an amount shape are required; the rest are
// optional per descriptor.
const (
	FieldDate        = "transaction_date"
	FieldDescription = "transaction_description"
	FieldAmount      = "original_amount"
	FieldDebit       = "debit_amount"
	FieldCredit      = "credit_amount"
	FieldType        = "transaction_type"
	FieldNote        = "note"
)

var canonicalFields = map[string]struct{}{
	FieldDate: {}, FieldDescription: {}, FieldAmount: {},
	FieldDebit: {}, FieldCredit: {}, FieldType: {}, FieldNote: {},
}

// Descriptor is the immutable per-source configuration.
//
// SourceKey doubles as the registry lookup key (matched as a filename
// prefix) and, when AccountID is not set, as the default account
// identifier for the file.
type Descriptor struct {
	SourceKey    string            `yaml:"source_key"`
	ColumnMap    map[string]string `yaml:"column_map"` // source header (substring) -> canonical field
	Currency     string            `yaml:"currency"`
	AccountKind  domain.AccountKind `yaml:"account_kind"`
	FileKind     FileKind          `yaml:"file_kind"`
	HeaderOffset int               `yaml:"header_offset"` // 0-based row index of the header line
	AccountID    string            `yaml:"account_id"`    // optional fixed account identifier
	Encoding     string            `yaml:"encoding"`      // "" (utf-8) or "windows-1255"
	Installments bool              `yaml:"installments"`  // statement bills installment plans one month in arrears
}

// Paired reports whether the descriptor declares the paired
// debit/credit amount shape (as opposed to a single signed column).
func (d *Descriptor) Paired() bool {
	for _, field := range d.ColumnMap {
		if field == FieldDebit || field == FieldCredit {
			return true
		}
	}
	return false
}

// ResolvedAccountID returns the account identifier for this source:
// the fixed AccountID when configured, otherwise the source key itself,
// normalized to its integer form when it parses as one.
func (d *Descriptor) ResolvedAccountID() string {
	id := d.AccountID
	if id == "" {
		id = d.SourceKey
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err == nil {
		return strconv.FormatInt(n, 10)
	}
	return id
}

// NoFormatError reports a file name that matched no registered
// descriptor. Not fatal to a run: the file is skipped.
type NoFormatError struct {
	FileName string
}

func (e *NoFormatError) Error() string {
	return fmt.Sprintf("no format registered for file %q", e.FileName)
}

// registryFile is the top-level YAML structure
type registryFile struct {
	Formats []Descriptor `yaml:"formats"`
}

// Registry holds all registered format descriptors. Construct once at
// startup and pass into the pipeline; never mutated afterwards.
type Registry struct {
	descriptors []Descriptor
}

// NewRegistry creates a registry from YAML data
func NewRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML formats (check syntax, indentation, and field names): %w", err)
	}

	for i, d := range file.Formats {
		if strings.TrimSpace(d.SourceKey) == "" {
			return nil, fmt.Errorf("format %d: source_key cannot be empty", i)
		}

		if !domain.ValidateAccountKind(d.AccountKind) {
			return nil, fmt.Errorf("format %d (%s): invalid account_kind %q", i, d.SourceKey, d.AccountKind)
		}

		if d.FileKind != FileKindDelimited && d.FileKind != FileKindSpreadsheet {
			return nil, fmt.Errorf("format %d (%s): invalid file_kind %q (must be 'delimited' or 'spreadsheet')", i, d.SourceKey, d.FileKind)
		}

		if d.HeaderOffset < 0 {
			return nil, fmt.Errorf("format %d (%s): header_offset must be >= 0, got %d", i, d.SourceKey, d.HeaderOffset)
		}

		if d.Currency == "" {
			return nil, fmt.Errorf("format %d (%s): currency cannot be empty", i, d.SourceKey)
		}

		if len(d.ColumnMap) == 0 {
			return nil, fmt.Errorf("format %d (%s): column_map cannot be empty", i, d.SourceKey)
		}

		hasSingle, hasDebit, hasCredit := false, false, false
		for src, field := range d.ColumnMap {
			if _, ok := canonicalFields[field]; !ok {
				return nil, fmt.Errorf("format %d (%s): column_map targets unknown field %q (from %q)", i, d.SourceKey, field, src)
			}
			switch field {
			case FieldAmount:
				hasSingle = true
			case FieldDebit:
				hasDebit = true
			case FieldCredit:
				hasCredit = true
			}
		}

		// The two amount shapes are mutually exclusive and one is required
		if hasSingle && (hasDebit || hasCredit) {
			return nil, fmt.Errorf("format %d (%s): original_amount and debit/credit columns are mutually exclusive", i, d.SourceKey)
		}
		if !hasSingle && !(hasDebit && hasCredit) {
			return nil, fmt.Errorf("format %d (%s): column_map must target original_amount or both debit_amount and credit_amount", i, d.SourceKey)
		}

		if !mapsTo(d.ColumnMap, FieldDate) {
			return nil, fmt.Errorf("format %d (%s): column_map must target transaction_date", i, d.SourceKey)
		}
		if !mapsTo(d.ColumnMap, FieldDescription) {
			return nil, fmt.Errorf("format %d (%s): column_map must target transaction_description", i, d.SourceKey)
		}
	}

	return &Registry{descriptors: file.Formats}, nil
}

func mapsTo(columnMap map[string]string, field string) bool {
	for _, f := range columnMap {
		if f == field {
			return true
		}
	}
	return false
}

// LoadEmbedded loads the embedded formats.yaml file
func LoadEmbedded() (*Registry, error) {
	reg, err := NewRegistry(embeddedFormats)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded formats (possible binary corruption): %w", err)
	}
	return reg, nil
}

// LoadFromFile loads a registry from a filesystem path
func LoadFromFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read formats file: %w", err)
	}
	reg, err := NewRegistry(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load formats from %q: %w", path, err)
	}
	return reg, nil
}

// Match returns the descriptor whose source key is a prefix of the
// given file name. When several keys match, the longest wins so that
// more specific keys shadow shorter ones. Returns *NoFormatError when
// nothing matches; callers skip the file and continue the run.
func (r *Registry) Match(fileName string) (*Descriptor, error) {
	var best *Descriptor
	for i := range r.descriptors {
		d := &r.descriptors[i]
		if strings.HasPrefix(fileName, d.SourceKey) {
			if best == nil || len(d.SourceKey) > len(best.SourceKey) {
				best = d
			}
		}
	}
	if best == nil {
		return nil, &NoFormatError{FileName: fileName}
	}

	// Copy so callers cannot mutate registry state
	out := *best
	out.ColumnMap = make(map[string]string, len(best.ColumnMap))
	for k, v := range best.ColumnMap {
		out.ColumnMap[k] = v
	}
	return &out, nil
}

// SourceKeys returns the registered source keys for inspection/debugging
func (r *Registry) SourceKeys() []string {
	keys := make([]string, len(r.descriptors))
	for i, d := range r.descriptors {
		keys[i] = d.SourceKey
	}
	return keys
}
