// Package amount computes the signed canonical amount for each row,
// applying the account-kind sign policy.
//
// Sign convention downstream: positive = credit/inflow, negative =
// debit/outflow. Credit-card sources record purchases as positive
// magnitudes, so their sign is inverted here.
package amount

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rumor-ml/ledgermerge/internal/domain"
)

// ParseDecimal parses an amount cell, stripping grouping separators
// (comma as thousands), currency glyphs and surrounding whitespace.
// Empty cells are zero, not an error: paired debit/credit exports leave
// the unused side blank.
func ParseDecimal(s string) (float64, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ',', '₪', '£', '$', '€', ' ', ' ', '\t':
			return -1
		}
		return r
	}, s)

	if cleaned == "" {
		return 0, nil
	}

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable amount %q", s)
	}
	return v, nil
}

// ResolvePaired computes the signed amount from a debit/credit column
// pair. Current accounts: credit - debit. Credit cards: debit - credit.
func ResolvePaired(kind domain.AccountKind, debitCell, creditCell string) (float64, error) {
	debit, derr := ParseDecimal(debitCell)
	credit, cerr := ParseDecimal(creditCell)

	// Unparseable cells degrade to zero; the row is kept so that row
	// counts stay honest. Surface the first parse failure as a warning
	// to the caller.
	var warn error
	if derr != nil {
		warn = derr
	} else if cerr != nil {
		warn = cerr
	}

	signed := credit - debit
	if kind == domain.AccountKindCreditCard {
		signed = debit - credit
	}
	return signed, warn
}

// ResolveSingle computes the signed amount from a single signed-amount
// column. Credit-card sources are inverted; current accounts are taken
// as given.
func ResolveSingle(kind domain.AccountKind, cell string) (float64, error) {
	v, err := ParseDecimal(cell)
	if kind == domain.AccountKindCreditCard {
		v = -v
	}
	return v, err
}
