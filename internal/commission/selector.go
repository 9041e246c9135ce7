package commission

import (
	"sort"
	"time"
)

// SelectRule picks the rule that governs a booking: highest priority first,
// then the most specific match, then the oldest rule. Returns nil when no
// rule applies.
func SelectRule(rules []Rule, providerID int, kind string, at time.Time) *Rule {
	candidates := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if r.appliesTo(providerID, kind, at) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.specificity() != b.specificity() {
			return a.specificity() > b.specificity()
		}
		return a.ID < b.ID
	})

	return &candidates[0]
}
