// Package spiir parses Spiir bank-export CSV files into normalized records.
package spiir

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
)

// DateLayout is the day-month-year format used by every Spiir date column.
const DateLayout = "02-01-2006"

// foldCase returns the Unicode case folding of s. cases.Caser values are
// stateful and not safe to share between goroutines, so each call gets its
// own.
func foldCase(s string) string {
	return cases.Fold().String(s)
}

// Record is one normalized export row. Comparison-relevant text fields are
// case-folded for rule matching; RawDescription and RawAccountName keep the
// original casing for output. Records are constructed once per row and never
// mutated.
type Record struct {
	ID             string
	AccountID      string
	AccountName    string // case-folded
	RawAccountName string
	AccountType    string // case-folded

	// Date is the effective date: CustomDate when present, else PrimaryDate.
	Date        time.Time
	PrimaryDate time.Time
	CustomDate  time.Time // zero when the column was empty

	Description         string // case-folded, trimmed
	RawDescription      string // trimmed, original casing
	OriginalDescription string

	MainCategoryID   string
	MainCategoryName string
	CategoryID       string
	CategoryName     string // case-folded
	CategoryType     string
	ExpenseType      string

	Amount  decimal.Decimal
	Balance decimal.Decimal

	CounterEntryID string
	Comment        string
	Tags           string // raw, trimmed; split and sanitized by SanitizedTags()
	Extraordinary  string
	SplitGroupID   string

	Currency         string
	OriginalAmount   decimal.Decimal
	OriginalCurrency string

	// File and Line trace back to the source CSV for metadata and errors.
	File string
	Line int
}

// SanitizedTags splits the raw tag list on commas and sanitizes each entry.
// Tags that sanitize to the empty string are dropped.
func (r *Record) SanitizedTags() []string {
	if r.Tags == "" {
		return nil
	}
	var tags []string
	for _, raw := range strings.Split(r.Tags, ",") {
		if tag := SanitizeTag(raw); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Year returns the calendar year of the effective date.
func (r *Record) Year() int {
	return r.Date.Year()
}

// parseDate parses a DD-MM-YYYY date column.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected DD-MM-YYYY): %w", s, err)
	}
	return t, nil
}

// parseDecimal parses a Danish-locale number: "." thousands separator, ","
// decimal separator. The empty string is exact zero. No value ever passes
// through a binary float.
func parseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	normalized := strings.ReplaceAll(s, ".", "")
	normalized = strings.ReplaceAll(normalized, ",", ".")
	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}
