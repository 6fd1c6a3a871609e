// Package render writes ledger directives as beancount text. Output is a
// pure function of the directive, so identical inputs produce identical
// bytes.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/spiir-tools/beanimport/internal/domain"
)

const dateLayout = "2006-01-02"

// WriteTransaction writes one transaction followed by a blank line:
//
//	2024-03-05 * "NETTO Hvidovre" "dagligvarer" #danskebank #ferie
//	  spiir-id: "txn-001"
//	  Assets:DanskeBank:Primary  -123.45 DKK
//	  Expenses:Food:Groceries     123.45 DKK
//
// Tags are sorted, metadata keeps insertion order, and posting amounts are
// right-aligned within the transaction.
func WriteTransaction(w io.Writer, txn *domain.Transaction) error {
	var sb strings.Builder

	sb.WriteString(txn.Date.Format(dateLayout))
	sb.WriteString(" ")
	sb.WriteString(txn.Flag)
	sb.WriteString(" ")
	sb.WriteString(quote(txn.Payee))
	sb.WriteString(" ")
	sb.WriteString(quote(txn.Narration))
	for _, tag := range txn.Tags() {
		sb.WriteString(" #")
		sb.WriteString(tag)
	}
	if txn.SourceFile != "" {
		fmt.Fprintf(&sb, " ; %s:%d", txn.SourceFile, txn.SourceLine)
	}
	sb.WriteString("\n")

	for _, kv := range txn.Meta() {
		sb.WriteString("  ")
		sb.WriteString(kv.Key)
		sb.WriteString(": ")
		sb.WriteString(quote(kv.Value))
		sb.WriteString("\n")
	}

	postings := txn.Postings()
	accountWidth, amountWidth := 0, 0
	for _, p := range postings {
		if len(p.Account) > accountWidth {
			accountWidth = len(p.Account)
		}
		if n := len(Amount(p.Amount)); n > amountWidth {
			amountWidth = n
		}
	}
	for _, p := range postings {
		fmt.Fprintf(&sb, "  %-*s  %*s %s\n",
			accountWidth, p.Account, amountWidth, Amount(p.Amount), p.Currency)
	}
	sb.WriteString("\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteOpen writes one open directive:
//
//	2024-01-15 open Assets:DanskeBank:Primary DKK
func WriteOpen(w io.Writer, open *domain.Open) error {
	_, err := fmt.Fprintf(w, "%s open %s %s\n",
		open.Date.Format(dateLayout), open.Account, strings.Join(open.Currencies, ","))
	return err
}

// Amount formats a decimal with exactly two fraction digits.
func Amount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
