package transform

import (
	"sort"

	"github.com/spiir-tools/beanimport/internal/domain"
)

// YearGroup is the content of one per-year ledger file: opening balances
// first, then regular transactions.
type YearGroup struct {
	Year         int
	Openings     []domain.Transaction
	Transactions []domain.Transaction
}

// PartitionByYear splits opening-balance and regular transactions into year
// groups sorted ascending. Within a group, openings sort by date then asset
// account, transactions by date then source id, so output is reproducible
// byte for byte.
func PartitionByYear(openings, txns []domain.Transaction) []YearGroup {
	byYear := make(map[int]*YearGroup)
	group := func(year int) *YearGroup {
		g, ok := byYear[year]
		if !ok {
			g = &YearGroup{Year: year}
			byYear[year] = g
		}
		return g
	}

	for _, txn := range openings {
		g := group(txn.Date.Year())
		g.Openings = append(g.Openings, txn)
	}
	for _, txn := range txns {
		g := group(txn.Date.Year())
		g.Transactions = append(g.Transactions, txn)
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	groups := make([]YearGroup, 0, len(years))
	for _, year := range years {
		g := byYear[year]
		sort.SliceStable(g.Openings, func(i, j int) bool {
			a, b := g.Openings[i], g.Openings[j]
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return assetAccount(&a) < assetAccount(&b)
		})
		sort.SliceStable(g.Transactions, func(i, j int) bool {
			a, b := g.Transactions[i], g.Transactions[j]
			if !a.Date.Equal(b.Date) {
				return a.Date.Before(b.Date)
			}
			return a.SourceID < b.SourceID
		})
		groups = append(groups, *g)
	}

	return groups
}

func assetAccount(txn *domain.Transaction) string {
	postings := txn.Postings()
	if len(postings) == 0 {
		return ""
	}
	return postings[0].Account
}
