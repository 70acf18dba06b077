// File: internal/taskloop/verify_test.go
package taskloop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/droidpilot/droidpilot/api/schemas"
)

func TestSearchPolicyApplies(t *testing.T) {
	p := NewSearchPolicy()
	assert.True(t, p.Applies("search for pizza"))
	assert.True(t, p.Applies("Find the nearest gas station"))
	assert.True(t, p.Applies("look up the weather"))
	assert.True(t, p.Applies("look for cheap flights"))
	assert.False(t, p.Applies("open spotify"))
	assert.False(t, p.Applies("scroll down the feed"))
}

func TestExtractQuery(t *testing.T) {
	tests := []struct {
		task     string
		expected string
	}{
		{"search for pizza", "pizza"},
		{"search pizza", "pizza"},
		{"search for the best pizza", "best pizza"},
		{"look up about quantum chess", "quantum chess"},
		{"find a coffee shop", "coffee shop"},
		{"Search For Pizza Near Me", "pizza near me"},
		{"scroll the feed", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, extractQuery(tt.task), tt.task)
	}
}

func TestSearchPolicyTypeNeverCompletes(t *testing.T) {
	p := NewSearchPolicy()
	state := screenWith("pizza everywhere")
	plan := schemas.ActionPlan{Kind: schemas.ActionType, Text: "pizza", TaskComplete: true}
	assert.False(t, p.Verify("search for pizza", plan, state, nil))
}

func TestSearchPolicyTypeMustBeSubmitted(t *testing.T) {
	p := NewSearchPolicy()
	state := screenWith("pizza everywhere")
	lastTyped := &schemas.ActionPlan{Kind: schemas.ActionType, Text: "pizza"}

	scroll := schemas.ActionPlan{Kind: schemas.ActionScroll, Direction: schemas.DirectionDown, TaskComplete: true}
	assert.False(t, p.Verify("search for pizza", scroll, state, lastTyped))

	enter := schemas.ActionPlan{Kind: schemas.ActionPressEnter, TaskComplete: true}
	assert.True(t, p.Verify("search for pizza", enter, state, lastTyped))

	tap := schemas.ActionPlan{Kind: schemas.ActionTap, XPercent: 50, YPercent: 20, HasPosition: true, TaskComplete: true}
	assert.True(t, p.Verify("search for pizza", tap, state, lastTyped))
}

func TestSearchPolicyQueryMustBeVisible(t *testing.T) {
	p := NewSearchPolicy()
	done := schemas.ActionPlan{Kind: schemas.ActionDone, TaskComplete: true}

	assert.False(t, p.Verify("search for pizza", done, screenWith("nothing relevant"), nil))
	assert.True(t, p.Verify("search for pizza", done, screenWith("Pizza Palace"), nil))
}

func TestSearchPolicyQueryInElementDescription(t *testing.T) {
	p := NewSearchPolicy()
	state := &schemas.ScreenState{
		Elements: []schemas.UIElement{{Description: "Pizza Palace result card"}},
	}
	done := schemas.ActionPlan{Kind: schemas.ActionDone, TaskComplete: true}
	assert.True(t, p.Verify("search for pizza", done, state, nil))
}

func TestSearchPolicyPassesThroughPlannerFlag(t *testing.T) {
	p := NewSearchPolicy()
	state := screenWith("pizza results")

	incomplete := schemas.ActionPlan{Kind: schemas.ActionScroll, Direction: schemas.DirectionDown, TaskComplete: false}
	assert.False(t, p.Verify("search for pizza", incomplete, state, nil))

	complete := schemas.ActionPlan{Kind: schemas.ActionDone, TaskComplete: true}
	assert.True(t, p.Verify("search for pizza", complete, state, nil))
}

func TestHistoryBound(t *testing.T) {
	h := newHistory(3)
	for i := 0; i < 5; i++ {
		h.append(schemas.ActionPlan{Kind: schemas.ActionTap, XPercent: float64(i)})
	}
	tail := h.tail()
	assert.Len(t, tail, 3)
	assert.InDelta(t, 2, tail[0].XPercent, 0.001)
	assert.InDelta(t, 4, tail[2].XPercent, 0.001)
}
