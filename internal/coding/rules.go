package coding

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ridgelinehq/costcode/internal/model"
)

// RuleMatch describes which transactions a bulk rule applies to. All set
// conditions must hold; text matching is case-insensitive substring matching.
type RuleMatch struct {
	AmountMin           *float64 `yaml:"amount_min,omitempty"`
	AmountMax           *float64 `yaml:"amount_max,omitempty"`
	MerchantContains    string   `yaml:"merchant_contains,omitempty"`
	DescriptionContains string   `yaml:"description_contains,omitempty"`
}

// Empty reports whether no condition is set.
func (m RuleMatch) Empty() bool {
	return m.MerchantContains == "" && m.DescriptionContains == "" &&
		m.AmountMin == nil && m.AmountMax == nil
}

// Matches reports whether the transaction satisfies every set condition.
func (m RuleMatch) Matches(t model.Transaction) bool {
	if m.MerchantContains != "" &&
		!strings.Contains(strings.ToLower(t.DisplayName()), strings.ToLower(m.MerchantContains)) {
		return false
	}
	if m.DescriptionContains != "" &&
		!strings.Contains(strings.ToLower(t.Description), strings.ToLower(m.DescriptionContains)) {
		return false
	}
	if m.AmountMin != nil && t.Amount < *m.AmountMin {
		return false
	}
	if m.AmountMax != nil && t.Amount > *m.AmountMax {
		return false
	}
	return true
}

// Rule pairs match conditions with the coding fields to apply.
type Rule struct {
	Name  string             `yaml:"name"`
	Match RuleMatch          `yaml:"match"`
	Apply model.CodingFields `yaml:"apply"`
}

// Ruleset is an ordered list of bulk-coding rules; earlier rules win.
type Ruleset struct {
	Rules []Rule `yaml:"rules"`
}

// Assignment pairs a rule with the transactions it matched.
type Assignment struct {
	Rule         Rule
	Transactions []model.Transaction
}

// LoadRules reads and validates a YAML rules file.
func LoadRules(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied rules path
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules decodes YAML rules and validates every rule up front, so a bad
// apply block fails loudly before any bulk submission happens.
func ParseRules(data []byte) (*Ruleset, error) {
	var rs Ruleset
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}
	if len(rs.Rules) == 0 {
		return nil, fmt.Errorf("rules file contains no rules")
	}
	for i, rule := range rs.Rules {
		if rule.Match.Empty() {
			return nil, fmt.Errorf("rule %d (%s): match block is empty", i+1, ruleLabel(rule))
		}
		if errs := Validate(rule.Apply); len(errs) > 0 {
			return nil, fmt.Errorf("rule %d (%s): invalid coding fields: %w", i+1, ruleLabel(rule), errs)
		}
	}
	return &rs, nil
}

// Plan matches each transaction against the ruleset, first matching rule
// wins, and groups the matches per rule in rule order. Unmatched
// transactions are simply absent from the result.
func (rs *Ruleset) Plan(txns []model.Transaction) []Assignment {
	matched := make([][]model.Transaction, len(rs.Rules))
	for _, txn := range txns {
		for i, rule := range rs.Rules {
			if rule.Match.Matches(txn) {
				matched[i] = append(matched[i], txn)
				break
			}
		}
	}

	var plan []Assignment
	for i, rule := range rs.Rules {
		if len(matched[i]) > 0 {
			plan = append(plan, Assignment{Rule: rule, Transactions: matched[i]})
		}
	}
	return plan
}

func ruleLabel(r Rule) string {
	if r.Name != "" {
		return r.Name
	}
	return "unnamed"
}
