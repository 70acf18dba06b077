// File: api/schemas/schemas_test.go
package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundsCenter(t *testing.T) {
	b := Bounds{Left: 0, Top: 100, Right: 200, Bottom: 300}
	assert.Equal(t, Point{X: 100, Y: 200}, b.Center())
	assert.Equal(t, 200, b.Width())
	assert.Equal(t, 200, b.Height())
}

func TestUIElementLabel(t *testing.T) {
	assert.Equal(t, "Send", UIElement{Text: "Send", Description: "send button"}.Label())
	assert.Equal(t, "send button", UIElement{Description: "send button"}.Label())
	assert.Equal(t, "com.app:id/send", UIElement{ResourceID: "com.app:id/send"}.Label())
}

func TestNormalizeTapClampsPercents(t *testing.T) {
	cases := []struct {
		name     string
		in       ActionPlan
		wantX    float64
		wantY    float64
	}{
		{"above range", ActionPlan{Kind: ActionTap, XPercent: 140, YPercent: 101, HasPosition: true}, 100, 100},
		{"below range", ActionPlan{Kind: ActionTap, XPercent: -3, YPercent: -0.5, HasPosition: true}, 0, 0},
		{"in range", ActionPlan{Kind: ActionTap, XPercent: 12.5, YPercent: 88, HasPosition: true}, 12.5, 88},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Normalize()
			assert.Equal(t, tc.wantX, tc.in.XPercent)
			assert.Equal(t, tc.wantY, tc.in.YPercent)
			assert.GreaterOrEqual(t, tc.in.XPercent, 0.0)
			assert.LessOrEqual(t, tc.in.XPercent, 100.0)
		})
	}
}

func TestNormalizeTapDefaultsToCenter(t *testing.T) {
	p := ActionPlan{Kind: ActionTap}
	p.Normalize()
	assert.True(t, p.HasPosition)
	assert.Equal(t, DefaultPercent, p.XPercent)
	assert.Equal(t, DefaultPercent, p.YPercent)
}

func TestNormalizeTypeKeepsMissingPosition(t *testing.T) {
	// A "type" without a position means "type into the focused field"; it must
	// not be rewritten to a center tap.
	p := ActionPlan{Kind: ActionType, Text: "pizza"}
	p.Normalize()
	assert.False(t, p.HasPosition)
}

func TestNormalizeWaitDefaultsDuration(t *testing.T) {
	p := ActionPlan{Kind: ActionWait}
	p.Normalize()
	assert.Equal(t, DefaultWaitSeconds, p.DurationSeconds)

	p = ActionPlan{Kind: ActionWait, DurationSeconds: -1}
	p.Normalize()
	assert.Equal(t, DefaultWaitSeconds, p.DurationSeconds)

	p = ActionPlan{Kind: ActionWait, DurationSeconds: 5}
	p.Normalize()
	assert.Equal(t, 5.0, p.DurationSeconds)
}

func TestNormalizeScrollDefaultsDirection(t *testing.T) {
	p := ActionPlan{Kind: ActionScroll}
	p.Normalize()
	assert.Equal(t, DirectionDown, p.Direction)

	p = ActionPlan{Kind: ActionSwipe, Direction: "sideways"}
	p.Normalize()
	assert.Equal(t, DirectionDown, p.Direction)

	p = ActionPlan{Kind: ActionScroll, Direction: DirectionUp}
	p.Normalize()
	assert.Equal(t, DirectionUp, p.Direction)
}

func TestScreenStateContainsText(t *testing.T) {
	state := &ScreenState{
		FlattenedText: "Results for Pizza near you",
		Elements: []UIElement{
			{Text: "Mario's Pizzeria"},
			{Description: "open navigation drawer"},
		},
	}
	assert.True(t, state.ContainsText("pizza"))
	assert.True(t, state.ContainsText("NAVIGATION"))
	assert.False(t, state.ContainsText("sushi"))
	assert.False(t, state.ContainsText(""))
}
