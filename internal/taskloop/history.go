// File: internal/taskloop/history.go
package taskloop

import "github.com/droidpilot/droidpilot/api/schemas"

// history is a size-bounded record of executed plans, used only for the
// planner's context prompt. It lives for one task run.
type history struct {
	entries []schemas.ActionPlan
	max     int
}

func newHistory(max int) *history {
	if max <= 0 {
		max = 5
	}
	return &history{max: max}
}

// append records a plan, evicting the oldest entry past the bound.
func (h *history) append(p schemas.ActionPlan) {
	h.entries = append(h.entries, p)
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// tail returns a copy of the recorded plans, oldest first.
func (h *history) tail() []schemas.ActionPlan {
	out := make([]schemas.ActionPlan, len(h.entries))
	copy(out, h.entries)
	return out
}
