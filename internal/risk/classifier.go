// File: internal/risk/classifier.go

// Package risk decides whether an agent's stated intent describes a
// destructive or otherwise high-stakes action that must pass a human
// approval gate before it executes.
package risk

import "strings"

// Classifier labels agent reasoning text. Implementations must be pure
// functions of their input: the task workflow calls Classify during replay,
// so any nondeterminism here corrupts workflow history.
type Classifier interface {
	// Classify returns a human-readable description of the risk and true
	// when the reasoning matches a high-stakes pattern.
	Classify(reasoning string) (description string, matched bool)
}

// Rule maps a lowercase substring pattern to the risk label shown to the
// owner in the approval request.
type Rule struct {
	Pattern string
	Label   string
}

// DefaultRules returns the fixed rule set for high-stakes intent. Patterns
// are deliberately narrow: routine actions like sending a reply or clicking
// through a form must not trip the gate.
func DefaultRules() []Rule {
	return []Rule{
		{"delete permanently", "Permanent deletion"},
		{"delete forever", "Permanent deletion"},
		{"cannot be undone", "Irreversible action"},
		{"permanently", "Irreversible action"},
		{"irreversible", "Irreversible action"},
		{"confirm payment", "Executing a financial transaction"},
		{"send payment", "Executing a financial transaction"},
		{"checkout", "Completing a purchase"},
		{"place order", "Completing a purchase"},
		{"confirm order", "Completing a purchase"},
		{"revoke access", "Revoking user access"},
		{"make public", "Publishing content publicly"},
		{"cancel subscription", "Canceling a subscription plan"},
		{"email to external", "Emailing an unknown external recipient"},
	}
}

// KeywordClassifier matches reasoning text against a fixed, ordered rule
// set. First match wins.
type KeywordClassifier struct {
	rules []Rule
}

// NewKeywordClassifier builds a classifier over the given rules.
func NewKeywordClassifier(rules []Rule) *KeywordClassifier {
	return &KeywordClassifier{rules: rules}
}

var _ Classifier = (*KeywordClassifier)(nil)

// Classify scans the reasoning for the first matching rule.
func (k *KeywordClassifier) Classify(reasoning string) (string, bool) {
	lower := strings.ToLower(reasoning)
	for _, r := range k.rules {
		if strings.Contains(lower, r.Pattern) {
			return r.Label, true
		}
	}
	return "", false
}
