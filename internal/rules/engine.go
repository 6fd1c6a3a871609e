package rules

import (
	"strings"

	"github.com/spiir-tools/beanimport/internal/spiir"
)

// rule inspects one record and returns a destination account, or "" when it
// has no opinion. Rules see the case-folded fields only.
type rule func(assetAccount string, r *spiir.Record) string

// ruleChain is evaluated in order, first non-empty result wins. The order is
// load-bearing: a grocery chain with "service" in its name must hit the food
// rule before the car-service rule can shadow it.
var ruleChain = []rule{
	foodRule,
	carRule,
	kidsRule,
	houseRule,
	investmentRule,
	shoppingRule,
	transfersRule,
}

// Classifier resolves asset accounts and classifies records against the
// rule chain and the static tables. Safe for concurrent use once constructed.
type Classifier struct {
	tables *Tables
}

// NewClassifier creates a classifier over the given tables.
func NewClassifier(t *Tables) *Classifier {
	return &Classifier{tables: t}
}

// ResolveAccount maps a record's source account name to its asset account.
// Unmapped names resolve under Assets:DanskeBank with the raw name sanitized
// into a valid account segment; resolution never fails.
func (c *Classifier) ResolveAccount(r *spiir.Record) string {
	if account, ok := c.tables.Accounts[r.AccountName]; ok {
		return account
	}
	return "Assets:DanskeBank:" + spiir.SanitizeSegment(r.RawAccountName)
}

// Classify returns the destination account for a record booked against the
// given asset account. The rule chain runs first; records no rule claims fall
// through to the category table, then the asset-scoped fallbacks, then the
// mobilepay catch-all, then Expenses:Other.
func (c *Classifier) Classify(assetAccount string, r *spiir.Record) string {
	for _, rule := range ruleChain {
		if account := rule(assetAccount, r); account != "" {
			return account
		}
	}
	return c.fallback(assetAccount, r)
}

// IsFallback reports whether an account came out of the fallback chain rather
// than a rule or a meaningful category. Used for coverage reporting.
func IsFallback(account string) bool {
	return account == FallbackSentinel || strings.HasPrefix(account, FallbackSentinel+":")
}

func (c *Classifier) fallback(assetAccount string, r *spiir.Record) string {
	if account, ok := c.tables.Categories[r.CategoryName]; ok && account != FallbackSentinel {
		return account
	}

	if account, ok := c.tables.Fallbacks[assetAccount]; ok {
		return account
	}

	if strings.HasPrefix(r.Description, "mobilepay") {
		return "Expenses:Other:Mobilepay"
	}

	return FallbackSentinel
}

func containsAny(s string, keywords ...string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func foodRule(_ string, r *spiir.Record) string {
	if containsAny(r.Description,
		"lidl",
		"kvickly",
		"netto",
		"coop365",
		"365discount",
		"superb",
		"rema 1000",
		"dagli brugsen",
		"7-eleven",
		"meny",
		"supermercados",
		"ume asian",
		"market",
		"den kinesiske køb",
		"denkinesiskekoebmand",
		"kft koebenhavn",
		"kft jylland-kbh",
		"supermarked",
	) {
		return "Expenses:Food:Groceries"
	}
	return ""
}

func carRule(_ string, r *spiir.Record) string {
	if containsAny(r.Description,
		"parkering",
		"parking",
		"apcoa",
		"parkman",
		"easypark",
		"easy park",
		"q-park",
	) {
		return "Expenses:Car:Parking"
	}

	if containsAny(r.Description,
		"værksted",
		"service",
		"autotal",
		"bilpleje",
		"autoservice",
		"quickpoint",
	) {
		return "Expenses:Car:Service"
	}

	if containsAny(r.Description,
		"uno-x",
		"q8 service",
		"shell",
		"oil! tank go",
		"ingo",
		"circlek",
		"circle k",
	) {
		return "Expenses:Car:Gas"
	}
	return ""
}

func kidsRule(_ string, r *spiir.Record) string {
	if strings.Contains(r.Description, "boerneloppen") {
		return "Expenses:Kids:Clothing"
	}

	if strings.Contains(r.Description, "experimentarium") {
		return "Expenses:Kids:Activities"
	}

	if strings.Contains(r.Description, "mobilepay ella hollesen schefer") {
		return "Expenses:Kids:Babysitter"
	}

	if strings.Contains(r.Description, "hvidovre kommune") || strings.Contains(r.CategoryName, "institution") {
		return "Expenses:Kids:Daycare"
	}
	return ""
}

func houseRule(_ string, r *spiir.Record) string {
	if containsAny(r.Description,
		"bauhaus",
		"jem & fix",
		"silvan",
		"bilka",
		"stark",
	) {
		return "Expenses:House:Renovation"
	}

	if containsAny(r.Description,
		"fd hvodovre",
		"hofor",
		"evida service nord",
		"nettopower",
		"zacho-lind",
	) {
		return "Expenses:House:Utilities"
	}

	if strings.Contains(r.Description, "ikea") {
		return "Expenses:House:Furniture"
	}

	if strings.Contains(r.Description, "spidskloak") {
		return "Expenses:House:Plumbing"
	}

	if strings.Contains(r.Description, "nedbetaling huslån - prm") ||
		strings.Contains(r.Description, "realkredit danmark") {
		return "Liabilities:House:Mortgage"
	}
	return ""
}

func investmentRule(_ string, r *spiir.Record) string {
	if strings.Contains(r.Description, "saxo") && strings.Contains(r.Description, "ask") {
		return "Assets:Investments:ASK"
	}

	if (strings.Contains(r.Description, "saxo") || strings.Contains(r.Description, "nordnet")) &&
		strings.Contains(r.Description, "skat") {
		return "Assets:Investments:Skat"
	}

	if strings.Contains(r.Description, "aldersopsparing") {
		return "Assets:Pension:Aldersopsparing"
	}

	if strings.Contains(r.Description, "ratepension") {
		return "Assets:Pension:Ratepension"
	}

	if strings.Contains(r.Description, "livrente") {
		return "Assets:Pension:Livrente"
	}

	if strings.Contains(r.Description, "nordnet aktiedepot") {
		return "Assets:Investments:Nordnet:Aktiedepot"
	}
	return ""
}

func shoppingRule(_ string, r *spiir.Record) string {
	if containsAny(r.Description,
		"friluftsland",
		"salomon",
		"spejder sport",
		"fjeld & fritid",
		"fjællræven",
	) {
		return "Expenses:Shopping:Gear"
	}

	if strings.Contains(r.Description, "xeroshoes") {
		return "Expenses:Shopping:Gear:Shoes"
	}

	if strings.Contains(r.Description, "amazon") {
		return "Expenses:Shopping"
	}

	if containsAny(r.Description,
		"playstation",
		"xbox",
		"nintendo",
		"steam",
	) {
		return "Expenses:Entertainment:Gaming"
	}
	return ""
}

func transfersRule(_ string, r *spiir.Record) string {
	if strings.HasSuffix(r.Description, " - prm") {
		return "Expenses:Transfers"
	}

	if strings.HasSuffix(r.Description, " - lah") || strings.HasSuffix(r.Description, "lah") {
		return "Equity:LAH"
	}

	toGroceries := strings.Contains(r.Description, "til dagligvarer")

	if toGroceries && r.AccountName == "primary" {
		return "Expenses:Transfers"
	}

	// From kærestekonto the regular transfer lands in groceries whether or
	// not the counter entry is recorded.
	if toGroceries && r.AccountName == "kærestekonto" {
		return "Expenses:Food:Groceries"
	}

	if strings.Contains(r.Description, "fra lee ann hollesen") && r.AccountName == "primary" {
		return "Equity:LAH"
	}

	// Extra grocery top-ups from LAH beyond the regular transfer; only ever
	// carries the account type, not the name.
	if toGroceries && r.AccountType == "kærestekonto" && r.CounterEntryID != "" {
		return "Equity:LAH"
	}
	return ""
}
