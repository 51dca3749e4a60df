package intent

import (
	"context"
	"regexp"
	"strings"
)

var (
	contactRe = regexp.MustCompile(`(?i)\b(?:meeting|meet|call|sync)\s+with\s+([a-zA-Z][a-zA-Z .'-]*?)(?:\s+on\s+\d|\s*[.,!?]|$)`)
	dateRe    = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)
	bookRe    = regexp.MustCompile(`(?i)\b(book|schedule|set\s+up|arrange)\b`)
	prefsRe   = regexp.MustCompile(`(?i)\b(preference|preferences|preferred)\b`)
)

// RuleParser is a deterministic pattern-matching parser. It handles
// the common "book a meeting with <name>" phrasing and is used when no
// LLM credentials are configured, and throughout the tests.
type RuleParser struct{}

// NewRuleParser creates a new rule-based parser.
func NewRuleParser() *RuleParser {
	return &RuleParser{}
}

// Parse extracts an intent from the prompt using fixed patterns.
func (p *RuleParser) Parse(_ context.Context, prompt string) (Intent, error) {
	if !bookRe.MatchString(prompt) {
		return Intent{Action: ActionUnknown}, nil
	}

	it := Intent{Action: ActionBookMeeting}

	if m := contactRe.FindStringSubmatch(prompt); m != nil {
		it.ContactName = strings.TrimSpace(m[1])
	}
	if it.ContactName == "" {
		// A booking request without a counterpart is not actionable.
		return Intent{Action: ActionUnknown}, nil
	}

	if m := dateRe.FindStringSubmatch(prompt); m != nil {
		it.Date = m[1]
	}
	it.AskPreferences = prefsRe.MatchString(prompt)

	return it, nil
}
