// File: internal/taskloop/repetition_test.go
package taskloop

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/droidpilot/droidpilot/api/schemas"
)

func TestKeyForTapRoundsToFive(t *testing.T) {
	a := KeyFor(schemas.ActionPlan{Kind: schemas.ActionTap, XPercent: 48, YPercent: 11})
	b := KeyFor(schemas.ActionPlan{Kind: schemas.ActionTap, XPercent: 52, YPercent: 9})
	assert.Equal(t, a, b, "coordinate jitter within the rounding band must collapse")
	assert.Equal(t, RepetitionKey("tap|50|10"), a)

	c := KeyFor(schemas.ActionPlan{Kind: schemas.ActionTap, XPercent: 60, YPercent: 10})
	assert.NotEqual(t, a, c)
}

func TestKeyForTypeNormalizesText(t *testing.T) {
	a := KeyFor(schemas.ActionPlan{Kind: schemas.ActionType, Text: "  Pizza "})
	b := KeyFor(schemas.ActionPlan{Kind: schemas.ActionType, Text: "pizza"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, KeyFor(schemas.ActionPlan{Kind: schemas.ActionType, Text: "sushi"}))
}

func TestKeyForScrollAndSwipeIncludeDirection(t *testing.T) {
	down := KeyFor(schemas.ActionPlan{Kind: schemas.ActionScroll, Direction: schemas.DirectionDown})
	up := KeyFor(schemas.ActionPlan{Kind: schemas.ActionScroll, Direction: schemas.DirectionUp})
	swipeDown := KeyFor(schemas.ActionPlan{Kind: schemas.ActionSwipe, Direction: schemas.DirectionDown})
	assert.NotEqual(t, down, up)
	assert.NotEqual(t, down, swipeDown)
}

func TestKeyForWaitIgnoresDuration(t *testing.T) {
	a := KeyFor(schemas.ActionPlan{Kind: schemas.ActionWait, DurationSeconds: 1})
	b := KeyFor(schemas.ActionPlan{Kind: schemas.ActionWait, DurationSeconds: 10})
	assert.Equal(t, a, b)
}

func TestKeyForOtherKinds(t *testing.T) {
	assert.Equal(t, RepetitionKey("back"), KeyFor(schemas.ActionPlan{Kind: schemas.ActionBack}))
	assert.Equal(t, RepetitionKey("home"), KeyFor(schemas.ActionPlan{Kind: schemas.ActionHome}))
}

func TestBreakSubstitute(t *testing.T) {
	tap := breakSubstitute(schemas.ActionPlan{Kind: schemas.ActionTap, XPercent: 50, YPercent: 10})
	assert.Equal(t, schemas.ActionScroll, tap.Kind)
	assert.Equal(t, schemas.DirectionDown, tap.Direction)

	scroll := breakSubstitute(schemas.ActionPlan{Kind: schemas.ActionScroll, Direction: schemas.DirectionDown})
	assert.Equal(t, schemas.ActionTap, scroll.Kind)
	assert.True(t, scroll.HasPosition)
	assert.InDelta(t, schemas.DefaultPercent, scroll.XPercent, 0.001)

	typed := breakSubstitute(schemas.ActionPlan{Kind: schemas.ActionType, Text: "pizza"})
	assert.Equal(t, schemas.ActionHome, typed.Kind)

	// The substitute must never equal the action it replaces.
	for _, kind := range []schemas.ActionKind{
		schemas.ActionTap, schemas.ActionType, schemas.ActionScroll,
		schemas.ActionSwipe, schemas.ActionWait, schemas.ActionBack,
	} {
		sub := breakSubstitute(schemas.ActionPlan{Kind: kind})
		assert.NotEqual(t, kind, sub.Kind, string(kind))
	}
}
