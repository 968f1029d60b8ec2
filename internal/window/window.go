// Package window trims a normalized table down to its transaction
// window: rows after a future/pending marker and trailing non-date
// garbage (footer and summary lines) are discarded.
package window

import (
	"strings"
	"time"
)

// Markers are the known future/pending-transactions labels, matched by
// case-insensitive containment against the date column.
var Markers = []string{
	"future transactions",
	"pending transactions",
	"עסקאות עתידיות",
}

// dateLayouts are tried in order. Day precedes month in every supported
// source, so no month-first layout may appear here.
var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	"02/01/06",
	"02-01-2006",
	"02.01.2006",
	"2006-01-02", // already-canonical exports
}

// ParseDate parses a date cell with day-before-month precedence.
// Returns (zero, false) when the value is not a date.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// MarkerIndex returns the index of the first row whose date-column text
// contains a known marker, or -1 when no marker row exists.
func MarkerIndex(dateColumn []string) int {
	for i, v := range dateColumn {
		lower := strings.ToLower(v)
		for _, m := range Markers {
			if strings.Contains(lower, m) {
				return i
			}
		}
	}
	return -1
}

// LastDateIndex returns the index of the last row whose date-column
// value parses as a date, or -1 when none does.
func LastDateIndex(dateColumn []string) int {
	for i := len(dateColumn) - 1; i >= 0; i-- {
		if _, ok := ParseDate(dateColumn[i]); ok {
			return i
		}
	}
	return -1
}

// Trim computes the number of leading rows to keep. Two independent
// trims apply in order: everything from the marker row on is dropped,
// then the remainder is truncated immediately after its last parseable
// date.
func Trim(dateColumn []string) int {
	keep := len(dateColumn)
	if i := MarkerIndex(dateColumn); i >= 0 {
		keep = i
	}
	last := LastDateIndex(dateColumn[:keep])
	return last + 1
}
