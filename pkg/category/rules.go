package category

import (
	"strings"

	"github.com/luckylittle/qbrecon/pkg/config"
)

// Rule maps a category to the tracker domains that identify it.
type Rule struct {
	Name    string
	Domains []string
}

// RuleSet is evaluated in order; the first matching rule wins.
type RuleSet []Rule

func NewRuleSet(categories []config.CategoryConfig) RuleSet {
	rules := make(RuleSet, 0, len(categories))
	for _, c := range categories {
		r := Rule{Name: strings.TrimSpace(c.Name)}
		for _, d := range c.Trackers {
			if d = strings.TrimSpace(d); d != "" {
				r.Domains = append(r.Domains, d)
			}
		}

		if r.Name == "" || len(r.Domains) == 0 {
			continue
		}
		rules = append(rules, r)
	}

	return rules
}

// Names returns the category names in rule order.
func (rs RuleSet) Names() []string {
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, r.Name)
	}
	return names
}
