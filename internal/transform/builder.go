// Package transform converts parsed Spiir records into ledger directives:
// double-entry transactions, opening balances, year partitions, and the
// account registry.
package transform

import (
	"fmt"

	"github.com/spiir-tools/beanimport/internal/domain"
	"github.com/spiir-tools/beanimport/internal/rules"
	"github.com/spiir-tools/beanimport/internal/spiir"
)

// markerTag is attached to every generated transaction.
const markerTag = "danskebank"

// Builder turns records into balanced two-leg transactions using the
// classifier for both legs' accounts.
type Builder struct {
	classifier *rules.Classifier
}

// NewBuilder creates a builder over the given classifier.
func NewBuilder(c *rules.Classifier) *Builder {
	return &Builder{classifier: c}
}

// Build converts one record into a transaction. The asset leg carries the
// record amount quantized to two decimals, the destination leg its inverse,
// so the pair balances exactly.
func (b *Builder) Build(r *spiir.Record) (*domain.Transaction, error) {
	asset := b.classifier.ResolveAccount(r)
	destination := b.classifier.Classify(asset, r)

	amount := r.Amount.Round(2)
	postings := []domain.Posting{
		{Account: asset, Amount: amount, Currency: domain.Currency},
		{Account: destination, Amount: amount.Neg(), Currency: domain.Currency},
	}

	txn, err := domain.NewTransaction(r.Date, r.RawDescription, r.CategoryName, postings)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	txn.SourceID = r.ID
	txn.SourceFile = r.File
	txn.SourceLine = r.Line

	if err := txn.AddTag(markerTag); err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	for _, tag := range r.SanitizedTags() {
		if err := txn.AddTag(tag); err != nil {
			return nil, fmt.Errorf("record %s: tag %q: %w", r.ID, tag, err)
		}
	}

	if err := txn.SetMeta("spiir-id", r.ID); err != nil {
		return nil, fmt.Errorf("record %s: %w", r.ID, err)
	}
	if r.CounterEntryID != "" {
		if err := txn.SetMeta("spiir-counter-id", r.CounterEntryID); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
		if err := txn.AddTag("transfer"); err != nil {
			return nil, fmt.Errorf("record %s: %w", r.ID, err)
		}
	}

	return txn, nil
}

// BuildAll converts records in input order. A record that fails to convert
// aborts the batch; partial ledgers are worse than no ledger.
func (b *Builder) BuildAll(records []spiir.Record) ([]domain.Transaction, error) {
	txns := make([]domain.Transaction, 0, len(records))
	for i := range records {
		txn, err := b.Build(&records[i])
		if err != nil {
			return nil, err
		}
		txns = append(txns, *txn)
	}
	return txns, nil
}

// IsFallback reports whether a transaction landed in the fallback chain
// rather than a rule or category. The destination is always the second leg.
func IsFallback(txn *domain.Transaction) bool {
	postings := txn.Postings()
	if len(postings) != 2 {
		return false
	}
	return rules.IsFallback(postings[1].Account)
}
