package formats

import (
	"errors"
	"strings"
	"testing"

	"github.com/rumor-ml/ledgermerge/internal/domain"
)

const testFormats = `
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

  - source_key: "1231"
    column_map:
      "Transaction Date": transaction_date
      "Transaction Description": transaction_description
      "Transaction Amount": original_amount
    currency: GBP
    account_kind: credit-card
    file_kind: delimited
    header_offset: 1

  - source_key: "1231-extended"
    column_map:
      "Transaction Date": transaction_date
      "Transaction Description": transaction_description
      "Debit Amount": debit_amount
      "Credit Amount": credit_amount
    currency: GBP
    account_kind: current
    file_kind: delimited
    header_offset: 0
    account_id: acc-77
`

func TestNewRegistry(t *testing.T) {
	reg, err := NewRegistry([]byte(testFormats))
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	if got := len(reg.SourceKeys()); got != 3 {
		t.Errorf("expected 3 descriptors, got %d", got)
	}
}

func TestNewRegistry_Validation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			yaml:    "formats: [",
			wantErr: "failed to parse YAML",
		},
		{
			name: "empty source key",
			yaml: `
formats:
  - source_key: ""
    column_map: {"Date": transaction_date}
    currency: GBP
    account_kind: current
    file_kind: delimited
`,
			wantErr: "source_key cannot be empty",
		},
		{
			name: "invalid account kind",
			yaml: `
formats:
  - source_key: a
    column_map: {"Date": transaction_date, "Narrative": transaction_description, "Amount": original_amount}
    currency: GBP
    account_kind: savings
    file_kind: delimited
`,
			wantErr: "invalid account_kind",
		},
		{
			name: "invalid file kind",
			yaml: `
formats:
  - source_key: a
    column_map: {"Date": transaction_date, "Narrative": transaction_description, "Amount": original_amount}
    currency: GBP
    account_kind: current
    file_kind: pdf
`,
			wantErr: "invalid file_kind",
		},
		{
			name: "negative header offset",
			yaml: `
formats:
  - source_key: a
    column_map: {"Date": transaction_date, "Narrative": transaction_description, "Amount": original_amount}
    currency: GBP
    account_kind: current
    file_kind: delimited
    header_offset: -1
`,
			wantErr: "header_offset must be >= 0",
		},
		{
			name: "unknown canonical field",
			yaml: `
formats:
  - source_key: a
    column_map: {"Date": transaction_date, "Narrative": transaction_description, "Amount": original_amount, "Balance": running_balance}
    currency: GBP
    account_kind: current
    file_kind: delimited
`,
			wantErr: "unknown field",
		},
		{
			name: "mixed amount shapes",
			yaml: `
formats:
  - source_key: a
    column_map: {"Date": transaction_date, "Narrative": transaction_description, "Amount": original_amount, "Debit": debit_amount, "Credit": credit_amount}
    currency: GBP
    account_kind: current
    file_kind: delimited
`,
			wantErr: "mutually exclusive",
		},
		{
			name: "debit without credit",
			yaml: `
formats:
  - source_key: a
    column_map: {"Date": transaction_date, "Narrative": transaction_description, "Debit": debit_amount}
    currency: GBP
    account_kind: current
    file_kind: delimited
`,
			wantErr: "both debit_amount and credit_amount",
		},
		{
			name: "missing date mapping",
			yaml: `
formats:
  - source_key: a
    column_map: {"Narrative": transaction_description, "Amount": original_amount}
    currency: GBP
    account_kind: current
    file_kind: delimited
`,
			wantErr: "must target transaction_date",
		},
		{
			name: "missing currency",
			yaml: `
formats:
  - source_key: a
    column_map: {"Date": transaction_date, "Narrative": transaction_description, "Amount": original_amount}
    account_kind: current
    file_kind: delimited
`,
			wantErr: "currency cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRegistry([]byte(tt.yaml))
			if err == nil {
				t.Fatal("NewRegistry() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestLoadEmbedded(t *testing.T) {
	reg, err := LoadEmbedded()
	if err != nil {
		t.Fatalf("LoadEmbedded() error: %v", err)
	}
	if len(reg.SourceKeys()) == 0 {
		t.Error("embedded registry should not be empty")
	}

	// The installment card format must be present and flagged
	d, err := reg.Match("פירוט חיובים לכרטיס מאסטרקארד_0324.xlsx")
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if !d.Installments {
		t.Error("card statement format should declare installments")
	}
	if d.AccountKind != domain.AccountKindCreditCard {
		t.Errorf("AccountKind = %q, want credit-card", d.AccountKind)
	}
}

func TestRegistry_Match(t *testing.T) {
	reg, err := NewRegistry([]byte(testFormats))
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	tests := []struct {
		name     string
		fileName string
		wantKey  string
		wantMiss bool
	}{
		{
			name:     "prefix match",
			fileName: "19988560_20252204_0309.csv",
			wantKey:  "19988560",
		},
		{
			name:     "longest prefix wins",
			fileName: "1231-extended_march.csv",
			wantKey:  "1231-extended",
		},
		{
			name:     "shorter prefix still matches its own files",
			fileName: "1231_march.csv",
			wantKey:  "1231",
		},
		{
			name:     "no match",
			fileName: "statement_unknown.csv",
			wantMiss: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := reg.Match(tt.fileName)
			if tt.wantMiss {
				var nf *NoFormatError
				if !errors.As(err, &nf) {
					t.Fatalf("expected NoFormatError, got %v", err)
				}
				if nf.FileName != tt.fileName {
					t.Errorf("NoFormatError.FileName = %q, want %q", nf.FileName, tt.fileName)
				}
				return
			}
			if err != nil {
				t.Fatalf("Match() error: %v", err)
			}
			if d.SourceKey != tt.wantKey {
				t.Errorf("SourceKey = %q, want %q", d.SourceKey, tt.wantKey)
			}
		})
	}
}

func TestRegistry_MatchReturnsCopy(t *testing.T) {
	reg, err := NewRegistry([]byte(testFormats))
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}

	d1, err := reg.Match("19988560_a.csv")
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	d1.ColumnMap["Date"] = "note"
	d1.Currency = "USD"

	d2, err := reg.Match("19988560_a.csv")
	if err != nil {
		t.Fatalf("Match() error: %v", err)
	}
	if d2.ColumnMap["Date"] != "transaction_date" || d2.Currency != "GBP" {
		t.Error("Match() must return an isolated copy of the descriptor")
	}
}

func TestDescriptor_ResolvedAccountID(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
		want string
	}{
		{
			name: "fixed account id wins",
			desc: Descriptor{SourceKey: "19988560", AccountID: "acc-77"},
			want: "acc-77",
		},
		{
			name: "numeric source key normalized",
			desc: Descriptor{SourceKey: "019988560"},
			want: "19988560",
		},
		{
			name: "non-numeric source key kept as string",
			desc: Descriptor{SourceKey: "עובר ושב"},
			want: "עובר ושב",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.desc.ResolvedAccountID(); got != tt.want {
				t.Errorf("ResolvedAccountID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDescriptor_Paired(t *testing.T) {
	paired := Descriptor{ColumnMap: map[string]string{"Debit": FieldDebit, "Credit": FieldCredit}}
	if !paired.Paired() {
		t.Error("descriptor with debit/credit columns should be paired")
	}
	single := Descriptor{ColumnMap: map[string]string{"Amount": FieldAmount}}
	if single.Paired() {
		t.Error("descriptor with single amount column should not be paired")
	}
}
