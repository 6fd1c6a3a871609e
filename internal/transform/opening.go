package transform

import (
	"fmt"
	"sort"

	"github.com/spiir-tools/beanimport/internal/domain"
	"github.com/spiir-tools/beanimport/internal/spiir"
)

// OpeningBalances synthesizes one opening-balance transaction per asset
// account. The opening amount is the balance of the account's earliest record
// minus that record's amount, dated as the record. Ties on the date keep the
// earlier input record, so the result is stable for a given input order.
func (b *Builder) OpeningBalances(records []spiir.Record) ([]domain.Transaction, error) {
	first := make(map[string]*spiir.Record)
	for i := range records {
		r := &records[i]
		account := b.classifier.ResolveAccount(r)
		if existing, ok := first[account]; !ok || r.Date.Before(existing.Date) {
			first[account] = r
		}
	}

	accounts := make([]string, 0, len(first))
	for account := range first {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	openings := make([]domain.Transaction, 0, len(accounts))
	for _, account := range accounts {
		r := first[account]
		opening := r.Balance.Sub(r.Amount).Round(2)

		postings := []domain.Posting{
			{Account: account, Amount: opening, Currency: domain.Currency},
			{Account: domain.EquityOpeningBalances, Amount: opening.Neg(), Currency: domain.Currency},
		}
		txn, err := domain.NewTransaction(r.Date, "Opening Balance", "", postings)
		if err != nil {
			return nil, fmt.Errorf("opening balance for %s: %w", account, err)
		}
		if err := txn.AddTag(markerTag); err != nil {
			return nil, fmt.Errorf("opening balance for %s: %w", account, err)
		}
		openings = append(openings, *txn)
	}

	return openings, nil
}
