package normalize

import (
	"errors"
	"testing"

	"github.com/rumor-ml/ledgermerge/internal/domain"
	"github.com/rumor-ml/ledgermerge/internal/formats"
	"github.com/rumor-ml/ledgermerge/internal/table"
)

func TestHeader(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "trims and collapses spaces",
			in:   "  Transaction   Date ",
			want: "Transaction Date",
		},
		{
			name: "non-breaking space collapsed",
			in:   "Debit Amount",
			want: "Debit Amount",
		},
		{
			name: "tabs and newlines collapsed",
			in:   "Credit\t\nAmount",
			want: "Credit Amount",
		},
		{
			name: "RTL mark stripped",
			in:   "‏תאריך עסקה‏",
			want: "תאריך עסקה",
		},
		{
			name: "already canonical",
			in:   "Narrative",
			want: "Narrative",
		},
		{
			name: "empty",
			in:   "   ",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Header(tt.in); got != tt.want {
				t.Errorf("Header(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func singleAmountDescriptor() *formats.Descriptor {
	return &formats.Descriptor{
		SourceKey: "19988560",
		ColumnMap: map[string]string{
			"Date":      formats.FieldDate,
			"Narrative": formats.FieldDescription,
			"Amount":    formats.FieldAmount,
		},
		Currency:    "GBP",
		AccountKind: domain.AccountKindCurrent,
		FileKind:    formats.FileKindDelimited,
	}
}

func TestApply_SubstringRename(t *testing.T) {
	// Headers carry trailing glyphs and padding the way real exports do
	tbl := table.New(
		[]string{" Date ", "Narrative ", "Amount (£)"},
		[][]string{{"01/09/2025", "CLM LTD", "3102.15"}},
	)

	if err := Apply(tbl, singleAmountDescriptor()); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	for _, field := range []string{formats.FieldDate, formats.FieldDescription, formats.FieldAmount} {
		if !tbl.HasColumn(field) {
			t.Errorf("canonical field %q missing after Apply; headers: %v", field, tbl.Headers())
		}
	}
}

func TestApply_HebrewHeaders(t *testing.T) {
	desc := &formats.Descriptor{
		SourceKey: "עובר ושב",
		ColumnMap: map[string]string{
			"תאריך":       formats.FieldDate,
			"תיאור התנועה": formats.FieldDescription,
			"זכות/חובה":   formats.FieldAmount,
		},
		Currency:    "ILS",
		AccountKind: domain.AccountKindCurrent,
		FileKind:    formats.FileKindSpreadsheet,
	}

	// Amount header carries a currency glyph and trailing space,
	// mirroring the real export
	tbl := table.New(
		[]string{"תאריך", "תיאור התנועה", "₪ זכות/חובה "},
		[][]string{{"01/02/2024", "משכורת", "12,000"}},
	)

	if err := Apply(tbl, desc); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	v, ok := tbl.Cell(0, formats.FieldAmount)
	if !ok || v != "12,000" {
		t.Errorf("amount cell = %q ok=%v after rename", v, ok)
	}
}

func TestApply_MissingColumns(t *testing.T) {
	tbl := table.New(
		[]string{"Date", "Narrative"},
		[][]string{{"01/09/2025", "CLM LTD"}},
	)

	err := Apply(tbl, singleAmountDescriptor())
	var mc *MissingColumnsError
	if !errors.As(err, &mc) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if len(mc.Missing) != 1 || mc.Missing[0] != formats.FieldAmount {
		t.Errorf("Missing = %v, want [original_amount]", mc.Missing)
	}
}

func TestApply_MissingPairedColumns(t *testing.T) {
	desc := &formats.Descriptor{
		SourceKey: "30-80-88",
		ColumnMap: map[string]string{
			"Transaction Date":        formats.FieldDate,
			"Transaction Description": formats.FieldDescription,
			"Debit Amount":            formats.FieldDebit,
			"Credit Amount":           formats.FieldCredit,
		},
		Currency:    "GBP",
		AccountKind: domain.AccountKindCurrent,
		FileKind:    formats.FileKindDelimited,
	}

	tbl := table.New(
		[]string{"Transaction Date", "Transaction Description", "Debit Amount"},
		[][]string{{"01/09/2025", "DD", "250.00"}},
	)

	err := Apply(tbl, desc)
	var mc *MissingColumnsError
	if !errors.As(err, &mc) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if len(mc.Missing) != 1 || mc.Missing[0] != formats.FieldCredit {
		t.Errorf("Missing = %v, want [credit_amount]", mc.Missing)
	}
}

func TestApply_FirstContainingHeaderWins(t *testing.T) {
	// Two headers contain "Date"; the first in column order must be the
	// one renamed.
	desc := singleAmountDescriptor()
	tbl := table.New(
		[]string{"Date", "Value Date", "Narrative", "Amount"},
		[][]string{{"01/09/2025", "02/09/2025", "CLM LTD", "10"}},
	)

	if err := Apply(tbl, desc); err != nil {
		t.Fatalf("Apply() error: %v", err)
	}
	v, _ := tbl.Cell(0, formats.FieldDate)
	if v != "01/09/2025" {
		t.Errorf("first matching header should win, got cell %q", v)
	}
	if !tbl.HasColumn("Value Date") {
		t.Error("second matching header should be left untouched")
	}
}
