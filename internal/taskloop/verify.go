// File: internal/taskloop/verify.go
package taskloop

import (
	"strings"

	"github.com/droidpilot/droidpilot/api/schemas"
)

// searchIndicators mark a task as a free-text search. The longest match is
// used when extracting the query.
var searchIndicators = []string{"look up", "look for", "search", "find"}

// fillerWords are dropped from the front of an extracted query.
var fillerWords = map[string]bool{
	"for":   true,
	"about": true,
	"the":   true,
	"a":     true,
}

// SearchPolicy withholds completion for search tasks until the typed query
// is visible somewhere on screen. Planners routinely claim success right
// after typing, before any results have loaded.
type SearchPolicy struct{}

// NewSearchPolicy creates the policy.
func NewSearchPolicy() *SearchPolicy { return &SearchPolicy{} }

// Applies reports whether the task contains a search indicator.
func (s *SearchPolicy) Applies(task string) bool {
	lowered := strings.ToLower(task)
	for _, ind := range searchIndicators {
		if strings.Contains(lowered, ind) {
			return true
		}
	}
	return false
}

// Verify resolves the completion flag. Rules are applied in order and the
// first match governs; the policy can only force completion off.
func (s *SearchPolicy) Verify(task string, plan schemas.ActionPlan, state *schemas.ScreenState, lastExecuted *schemas.ActionPlan) bool {
	// Typing alone never completes a search.
	if plan.Kind == schemas.ActionType {
		return false
	}

	// After typing, only a tap or an enter press can plausibly submit.
	if lastExecuted != nil && lastExecuted.Kind == schemas.ActionType &&
		plan.Kind != schemas.ActionTap && plan.Kind != schemas.ActionPressEnter {
		return false
	}

	// Results must echo the query somewhere on screen.
	if query := extractQuery(task); query != "" && !state.ContainsText(query) {
		return false
	}

	return plan.TaskComplete
}

// extractQuery returns the search query: the task text following the first
// search indicator, with leading filler words stripped.
func extractQuery(task string) string {
	lowered := strings.ToLower(task)
	idx := -1
	indLen := 0
	for _, ind := range searchIndicators {
		if i := strings.Index(lowered, ind); i != -1 && (idx == -1 || i < idx) {
			idx = i
			indLen = len(ind)
		}
	}
	if idx == -1 {
		return ""
	}

	rest := strings.TrimSpace(lowered[idx+indLen:])
	words := strings.Fields(rest)
	for len(words) > 0 && fillerWords[words[0]] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}
