package backboard

import "strings"

// NoPriorActivity is reported to the agent when the guest has no memory
// entries yet this stay.
const NoPriorActivity = "No prior requests or complaints this stay."

const summaryPrefix = "Past during this stay (oldest first): "

// Summary condenses a guest's memory entries into one bounded context
// string for the agent's instructions. The store returns entries newest
// first; the summary keeps at most limit of those and flips them to
// chronological order so the agent reads them oldest first.
func Summary(memories []string, limit int) string {
	if len(memories) == 0 {
		return NoPriorActivity
	}
	if limit < 1 {
		limit = 1
	}
	if len(memories) > limit {
		memories = memories[:limit]
	}
	ordered := make([]string, len(memories))
	for i, m := range memories {
		ordered[len(memories)-1-i] = m
	}
	return summaryPrefix + strings.Join(ordered, "; ")
}
