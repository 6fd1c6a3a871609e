// Package domain defines the ledger directive types produced by the importer.
package domain

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Currency is the operating currency of every generated posting.
const Currency = "DKK"

// EquityOpeningBalances receives the counter leg of every opening-balance
// transaction.
const EquityOpeningBalances = "Equity:Opening-Balances"

var accountPattern = regexp.MustCompile(`^(Assets|Liabilities|Equity|Income|Expenses)(:[A-Z][A-Za-z0-9-]*)+$`)

// ValidAccount reports whether path is a well-formed beancount account path:
// a root category followed by one or more capitalized segments.
func ValidAccount(path string) bool {
	return accountPattern.MatchString(path)
}

// Posting is one leg of a double-entry transaction.
type Posting struct {
	Account  string
	Amount   decimal.Decimal
	Currency string
}

// MetaKV is a single metadata entry. Order is significant for rendering, so
// metadata is a slice rather than a map.
type MetaKV struct {
	Key   string
	Value string
}

// Transaction is a complete double-entry ledger transaction. Instances are
// built once by the transform package and never mutated afterwards.
type Transaction struct {
	Date      time.Time
	Flag      string
	Payee     string
	Narration string
	tags      []string // sorted, unique
	meta      []MetaKV
	postings  []Posting

	// SourceID orders transactions deterministically within a date and keys
	// idempotent storage. Empty for synthesized entries.
	SourceID string

	// SourceFile and SourceLine trace back to the originating CSV row.
	SourceFile string
	SourceLine int
}

// NewTransaction creates a transaction with exactly two balancing postings.
// The postings must be additive inverses at full decimal precision.
func NewTransaction(date time.Time, payee, narration string, postings []Posting) (*Transaction, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("transaction date cannot be zero")
	}
	if len(postings) != 2 {
		return nil, fmt.Errorf("transaction must have exactly 2 postings, got %d", len(postings))
	}
	for i, p := range postings {
		if !ValidAccount(p.Account) {
			return nil, fmt.Errorf("posting %d: invalid account %q", i, p.Account)
		}
		if p.Currency == "" {
			return nil, fmt.Errorf("posting %d: currency cannot be empty", i)
		}
	}
	if !postings[0].Amount.Add(postings[1].Amount).IsZero() {
		return nil, fmt.Errorf("postings do not balance: %s + %s != 0",
			postings[0].Amount, postings[1].Amount)
	}

	return &Transaction{
		Date:      date,
		Flag:      "*",
		Payee:     payee,
		Narration: narration,
		postings:  append([]Posting(nil), postings...),
	}, nil
}

// AddTag inserts a tag, keeping the set unique and sorted. Empty tags are
// rejected; the caller sanitizes first.
func (t *Transaction) AddTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("tag cannot be empty")
	}
	for _, existing := range t.tags {
		if existing == tag {
			return nil
		}
	}
	t.tags = append(t.tags, tag)
	sort.Strings(t.tags)
	return nil
}

// SetMeta appends a metadata entry, preserving insertion order. A repeated
// key overwrites the earlier value in place.
func (t *Transaction) SetMeta(key, value string) error {
	if key == "" {
		return fmt.Errorf("metadata key cannot be empty")
	}
	for i := range t.meta {
		if t.meta[i].Key == key {
			t.meta[i].Value = value
			return nil
		}
	}
	t.meta = append(t.meta, MetaKV{Key: key, Value: value})
	return nil
}

// Tags returns a copy of the sorted tag set.
func (t *Transaction) Tags() []string {
	return append([]string(nil), t.tags...)
}

// Meta returns a copy of the metadata entries in insertion order.
func (t *Transaction) Meta() []MetaKV {
	return append([]MetaKV(nil), t.meta...)
}

// Metadata returns the value for key, or "" if absent.
func (t *Transaction) Metadata(key string) string {
	for _, kv := range t.meta {
		if kv.Key == key {
			return kv.Value
		}
	}
	return ""
}

// Postings returns a copy of the posting legs.
func (t *Transaction) Postings() []Posting {
	return append([]Posting(nil), t.postings...)
}

// Balanced reports whether the posting amounts sum to exactly zero.
func (t *Transaction) Balanced() bool {
	sum := decimal.Zero
	for _, p := range t.postings {
		sum = sum.Add(p.Amount)
	}
	return sum.IsZero()
}

// Open declares that an account exists from a given date.
type Open struct {
	Date       time.Time
	Account    string
	Currencies []string
}

// NewOpen creates a validated open directive.
func NewOpen(date time.Time, account string, currencies []string) (*Open, error) {
	if date.IsZero() {
		return nil, fmt.Errorf("open date cannot be zero")
	}
	if !ValidAccount(account) {
		return nil, fmt.Errorf("invalid account %q", account)
	}
	return &Open{
		Date:       date,
		Account:    account,
		Currencies: append([]string(nil), currencies...),
	}, nil
}

// Directives accumulates the generated ledger entries for one import run.
type Directives struct {
	transactions []Transaction
	opens        []Open
}

// NewDirectives creates an empty accumulator.
func NewDirectives() *Directives {
	return &Directives{
		transactions: []Transaction{},
		opens:        []Open{},
	}
}

// AddTransaction appends a transaction.
func (d *Directives) AddTransaction(txn Transaction) error {
	if len(txn.postings) != 2 {
		return fmt.Errorf("transaction must have exactly 2 postings, got %d", len(txn.postings))
	}
	if !txn.Balanced() {
		return fmt.Errorf("transaction %s is not balanced", txn.SourceID)
	}
	d.transactions = append(d.transactions, txn)
	return nil
}

// AddOpen appends an open directive, rejecting duplicate accounts.
func (d *Directives) AddOpen(open Open) error {
	for _, existing := range d.opens {
		if existing.Account == open.Account {
			return fmt.Errorf("account %s already opened", open.Account)
		}
	}
	d.opens = append(d.opens, open)
	return nil
}

// Transactions returns a defensive copy of the transactions.
func (d *Directives) Transactions() []Transaction {
	return append([]Transaction(nil), d.transactions...)
}

// Opens returns a defensive copy of the open directives.
func (d *Directives) Opens() []Open {
	return append([]Open(nil), d.opens...)
}
