package transform

import (
	"testing"
	"time"

	"github.com/spiir-tools/beanimport/internal/domain"
)

func mustTxn(t *testing.T, id string, d time.Time, account string) domain.Transaction {
	t.Helper()
	txn, err := domain.NewTransaction(d, "payee", "", []domain.Posting{
		{Account: account, Amount: dec("10.00"), Currency: domain.Currency},
		{Account: "Expenses:Other", Amount: dec("-10.00"), Currency: domain.Currency},
	})
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	txn.SourceID = id
	return *txn
}

func TestPartitionByYear(t *testing.T) {
	openings := []domain.Transaction{
		mustTxn(t, "", date(t, "2023-06-01"), "Assets:DanskeBank:Primary"),
		mustTxn(t, "", date(t, "2024-01-02"), "Assets:DanskeBank:Opsparing"),
	}
	txns := []domain.Transaction{
		mustTxn(t, "c", date(t, "2024-01-05"), "Assets:DanskeBank:Primary"),
		mustTxn(t, "a", date(t, "2023-06-01"), "Assets:DanskeBank:Primary"),
		mustTxn(t, "b", date(t, "2023-06-01"), "Assets:DanskeBank:Primary"),
	}

	groups := PartitionByYear(openings, txns)
	if len(groups) != 2 {
		t.Fatalf("PartitionByYear() returned %d groups, want 2", len(groups))
	}

	if groups[0].Year != 2023 || groups[1].Year != 2024 {
		t.Errorf("years = %d, %d, want 2023, 2024", groups[0].Year, groups[1].Year)
	}

	g23 := groups[0]
	if len(g23.Openings) != 1 || len(g23.Transactions) != 2 {
		t.Fatalf("2023 group has %d openings, %d transactions, want 1, 2",
			len(g23.Openings), len(g23.Transactions))
	}
	// Same date: spiir id breaks the tie.
	if g23.Transactions[0].SourceID != "a" || g23.Transactions[1].SourceID != "b" {
		t.Errorf("2023 order = %s, %s, want a, b",
			g23.Transactions[0].SourceID, g23.Transactions[1].SourceID)
	}

	g24 := groups[1]
	if len(g24.Openings) != 1 || len(g24.Transactions) != 1 {
		t.Fatalf("2024 group has %d openings, %d transactions, want 1, 1",
			len(g24.Openings), len(g24.Transactions))
	}
}

func TestPartitionByYear_OpeningsSortByDateThenAccount(t *testing.T) {
	openings := []domain.Transaction{
		mustTxn(t, "", date(t, "2024-01-10"), "Assets:DanskeBank:Primary"),
		mustTxn(t, "", date(t, "2024-01-10"), "Assets:DanskeBank:Fixed"),
		mustTxn(t, "", date(t, "2024-01-05"), "Assets:DanskeBank:Opsparing"),
	}

	groups := PartitionByYear(openings, nil)
	if len(groups) != 1 {
		t.Fatalf("PartitionByYear() returned %d groups, want 1", len(groups))
	}

	want := []string{
		"Assets:DanskeBank:Opsparing",
		"Assets:DanskeBank:Fixed",
		"Assets:DanskeBank:Primary",
	}
	for i, w := range want {
		if got := groups[0].Openings[i].Postings()[0].Account; got != w {
			t.Errorf("openings[%d] = %q, want %q", i, got, w)
		}
	}
}

func TestPartitionByYear_Deterministic(t *testing.T) {
	txns := []domain.Transaction{
		mustTxn(t, "b", date(t, "2024-03-01"), "Assets:DanskeBank:Primary"),
		mustTxn(t, "a", date(t, "2024-03-01"), "Assets:DanskeBank:Primary"),
		mustTxn(t, "c", date(t, "2024-02-01"), "Assets:DanskeBank:Primary"),
	}
	reversed := []domain.Transaction{txns[2], txns[1], txns[0]}

	first := PartitionByYear(nil, txns)
	second := PartitionByYear(nil, reversed)

	for i := range first[0].Transactions {
		a := first[0].Transactions[i].SourceID
		b := second[0].Transactions[i].SourceID
		if a != b {
			t.Errorf("order differs at %d: %s vs %s", i, a, b)
		}
	}
}

func TestCollectAccounts(t *testing.T) {
	openings := []domain.Transaction{
		mustOpening(t, date(t, "2024-01-05"), "Assets:DanskeBank:Primary"),
	}
	txns := []domain.Transaction{
		mustTxn(t, "a", date(t, "2024-01-05"), "Assets:DanskeBank:Primary"),
		mustTxn(t, "b", date(t, "2024-02-01"), "Assets:DanskeBank:Primary"),
	}

	opens, err := CollectAccounts(openings, txns)
	if err != nil {
		t.Fatalf("CollectAccounts() error = %v", err)
	}

	want := []string{
		"Assets:DanskeBank:Primary",
		"Equity:Opening-Balances",
		"Expenses:Other",
	}
	if len(opens) != len(want) {
		t.Fatalf("CollectAccounts() returned %d opens, want %d: %v", len(opens), len(want), opens)
	}
	for i, w := range want {
		if opens[i].Account != w {
			t.Errorf("opens[%d] = %q, want %q", i, opens[i].Account, w)
		}
	}

	// Every account is dated at its earliest reference.
	if !opens[0].Date.Equal(date(t, "2024-01-05")) {
		t.Errorf("asset open date = %v, want 2024-01-05", opens[0].Date)
	}
	if !opens[2].Date.Equal(date(t, "2024-01-05")) {
		t.Errorf("expense open date = %v, want 2024-01-05", opens[2].Date)
	}
	for _, open := range opens {
		if len(open.Currencies) != 1 || open.Currencies[0] != domain.Currency {
			t.Errorf("open %s currencies = %v, want [%s]", open.Account, open.Currencies, domain.Currency)
		}
	}
}

func mustOpening(t *testing.T, d time.Time, account string) domain.Transaction {
	t.Helper()
	txn, err := domain.NewTransaction(d, "Opening Balance", "", []domain.Posting{
		{Account: account, Amount: dec("400.00"), Currency: domain.Currency},
		{Account: domain.EquityOpeningBalances, Amount: dec("-400.00"), Currency: domain.Currency},
	})
	if err != nil {
		t.Fatalf("NewTransaction() error = %v", err)
	}
	return *txn
}
