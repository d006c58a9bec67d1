package triage

import "strings"

// Reply is the canned answer chosen for a message.
type Reply struct {
	Category Category
	Text     string
	Score    int
}

// Rules returns the ordered rule list followed by the default rule.
func Rules() []Rule {
	out := make([]Rule, 0, len(rules)+1)
	for _, r := range rules {
		r.Keywords = append([]string(nil), r.Keywords...)
		out = append(out, r)
	}
	return append(out, fallbackRule)
}

// Match picks the first rule whose keywords occur in text (case-insensitive).
// Text matching no rule gets the default reply.
func Match(text string) Reply {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized != "" {
		for _, rule := range rules {
			if rule.matches(normalized) {
				return rule.reply()
			}
		}
	}
	return fallbackRule.reply()
}

func (r Rule) matches(normalized string) bool {
	for _, word := range r.Keywords {
		if word != "" && strings.Contains(normalized, word) {
			return true
		}
	}
	return false
}

func (r Rule) reply() Reply {
	return Reply{Category: r.Category, Text: r.Response, Score: r.Score}
}
