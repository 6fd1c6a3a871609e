// Package rules provides the account resolver and the rule-based
// classification engine for Spiir records.
package rules

import (
	_ "embed"
	"fmt"
	"os"

	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"

	"github.com/spiir-tools/beanimport/internal/domain"
)

//go:embed accounts.yaml
var embeddedTables []byte

// FallbackSentinel is the category-table value that means "the category
// carries no information"; the fallback chain continues past it.
const FallbackSentinel = "Expenses:Other"

// Tables holds the static classification tables loaded from YAML.
//
// Tables should be created via NewTables, LoadEmbedded or LoadFromFile, which
// validate every account path and case-fold all lookup keys. Direct struct
// construction bypasses both and can produce invalid ledger output.
type Tables struct {
	// Accounts maps a case-folded source account name to its asset account.
	Accounts map[string]string `yaml:"accounts"`
	// Fallbacks maps an asset account to its scoped fallback expense account.
	Fallbacks map[string]string `yaml:"fallbacks"`
	// Categories maps a case-folded Spiir category name to an account.
	Categories map[string]string `yaml:"categories"`
}

// NewTables parses classification tables from YAML data. Every mapped value
// must be a valid beancount account; lookup keys are case-folded so the YAML
// can use natural casing.
func NewTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse YAML tables (check syntax, indentation, and field names): %w", err)
	}

	for section, m := range map[string]map[string]string{
		"accounts":   t.Accounts,
		"fallbacks":  t.Fallbacks,
		"categories": t.Categories,
	} {
		for key, account := range m {
			if !domain.ValidAccount(account) {
				return nil, fmt.Errorf("%s %q: invalid account %q", section, key, account)
			}
		}
	}

	for account := range t.Fallbacks {
		if !domain.ValidAccount(account) {
			return nil, fmt.Errorf("fallbacks: invalid asset account key %q", account)
		}
	}

	t.Accounts = foldKeys(t.Accounts)
	t.Categories = foldKeys(t.Categories)
	return &t, nil
}

// LoadEmbedded loads the tables compiled into the binary.
func LoadEmbedded() (*Tables, error) {
	t, err := NewTables(embeddedTables)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded tables (possible binary corruption): %w", err)
	}
	return t, nil
}

// LoadFromFile loads tables from a filesystem path, for overriding the
// embedded defaults.
func LoadFromFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tables file: %w", err)
	}
	t, err := NewTables(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load tables from %q: %w", path, err)
	}
	return t, nil
}

func foldKeys(m map[string]string) map[string]string {
	// cases.Caser is stateful, so this fresh one stays local.
	fold := cases.Fold()
	folded := make(map[string]string, len(m))
	for k, v := range m {
		folded[fold.String(k)] = v
	}
	return folded
}
