package preprocess

import "strings"

// Normalizer turns an eligible line into its template.
// It holds no mutable state and is safe for concurrent use.
type Normalizer struct {
	rules []Rule
}

// NewNormalizer creates a Normalizer running rules in the given order.
// A nil slice selects DefaultRules.
func NewNormalizer(rules []Rule) *Normalizer {
	if rules == nil {
		rules = DefaultRules()
	}
	return &Normalizer{rules: rules}
}

// Normalize applies every rule in order to the current text and trims the result.
//
// Example:
//
//	"2024-05-20 10:00:01 [ERROR] IP 192.168.1.5 failed connection attempt 123456"
//	→ "<TIMESTAMP> [ERROR] IP <IP> failed connection attempt <NUM>"
func (n *Normalizer) Normalize(line string) string {
	for _, rule := range n.rules {
		line = rule.Apply(line)
	}
	return strings.TrimSpace(line)
}

// Rules returns a copy of the pipeline.
func (n *Normalizer) Rules() []Rule {
	return append([]Rule(nil), n.rules...)
}
