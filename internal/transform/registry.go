package transform

import (
	"sort"
	"time"

	"github.com/spiir-tools/beanimport/internal/domain"
)

// CollectAccounts walks every posting of every transaction, opening balances
// included, and returns one open directive per account, dated at the
// account's earliest reference and sorted by account path.
func CollectAccounts(openings, txns []domain.Transaction) ([]domain.Open, error) {
	earliest := make(map[string]time.Time)
	track := func(account string, date time.Time) {
		if existing, ok := earliest[account]; !ok || date.Before(existing) {
			earliest[account] = date
		}
	}

	for _, set := range [][]domain.Transaction{openings, txns} {
		for i := range set {
			for _, p := range set[i].Postings() {
				track(p.Account, set[i].Date)
			}
		}
	}

	accounts := make([]string, 0, len(earliest))
	for account := range earliest {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	opens := make([]domain.Open, 0, len(accounts))
	for _, account := range accounts {
		open, err := domain.NewOpen(earliest[account], account, []string{domain.Currency})
		if err != nil {
			return nil, err
		}
		opens = append(opens, *open)
	}

	return opens, nil
}
