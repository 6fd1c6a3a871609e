// Package validate checks a generated ledger before it is written to disk.
package validate

import (
	"fmt"

	"github.com/spiir-tools/beanimport/internal/domain"
)

// ValidationResult contains all validation errors and warnings for a ledger.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents a problem that makes the ledger unusable.
type ValidationError struct {
	Entity  string // "transaction" or "open"
	ID      string
	Field   string
	Value   string
	Message string
}

// ValidationWarning represents a non-critical issue worth surfacing.
type ValidationWarning struct {
	Entity  string
	ID      string
	Field   string
	Value   string
	Message string
}

// HasErrors reports whether the ledger failed validation.
func (r *ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// ValidateLedger checks every transaction and open directive: postings must
// come in balanced pairs on valid accounts, dates must be set, each account
// opens exactly once, and no transaction references an account before its
// open date. Opening-balance transactions are included in txns.
func ValidateLedger(txns []domain.Transaction, opens []domain.Open) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	openDates := make(map[string]int) // account -> index into opens
	for i, open := range opens {
		if open.Date.IsZero() {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "open",
				ID:      open.Account,
				Field:   "Date",
				Message: "open date cannot be zero",
			})
		}
		if !domain.ValidAccount(open.Account) {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "open",
				ID:      open.Account,
				Field:   "Account",
				Value:   open.Account,
				Message: "invalid account path",
			})
		}
		if _, dup := openDates[open.Account]; dup {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "open",
				ID:      open.Account,
				Field:   "Account",
				Value:   open.Account,
				Message: "duplicate open directive",
			})
			continue
		}
		openDates[open.Account] = i
	}

	for i := range txns {
		txn := &txns[i]
		id := txn.SourceID
		if id == "" {
			id = fmt.Sprintf("#%d", i)
		}

		if txn.Date.IsZero() {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "transaction",
				ID:      id,
				Field:   "Date",
				Message: "transaction date cannot be zero",
			})
		}

		postings := txn.Postings()
		if len(postings) != 2 {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "transaction",
				ID:      id,
				Field:   "Postings",
				Value:   fmt.Sprintf("%d", len(postings)),
				Message: "transaction must have exactly 2 postings",
			})
			continue
		}

		if !txn.Balanced() {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "transaction",
				ID:      id,
				Field:   "Postings",
				Value:   fmt.Sprintf("%s + %s", postings[0].Amount, postings[1].Amount),
				Message: "postings do not sum to zero",
			})
		}

		for _, p := range postings {
			if !domain.ValidAccount(p.Account) {
				result.Errors = append(result.Errors, ValidationError{
					Entity:  "transaction",
					ID:      id,
					Field:   "Account",
					Value:   p.Account,
					Message: "invalid account path",
				})
				continue
			}

			idx, ok := openDates[p.Account]
			if !ok {
				result.Errors = append(result.Errors, ValidationError{
					Entity:  "transaction",
					ID:      id,
					Field:   "Account",
					Value:   p.Account,
					Message: "account is never opened",
				})
				continue
			}
			if txn.Date.Before(opens[idx].Date) {
				result.Errors = append(result.Errors, ValidationError{
					Entity:  "transaction",
					ID:      id,
					Field:   "Date",
					Value:   txn.Date.Format("2006-01-02"),
					Message: fmt.Sprintf("transaction predates open of %s", p.Account),
				})
			}

			if p.Currency != domain.Currency {
				result.Warnings = append(result.Warnings, ValidationWarning{
					Entity:  "transaction",
					ID:      id,
					Field:   "Currency",
					Value:   p.Currency,
					Message: fmt.Sprintf("posting currency differs from operating currency %s", domain.Currency),
				})
			}
		}
	}

	return result
}
