// File: internal/taskloop/repetition.go
package taskloop

import (
	"fmt"
	"math"
	"strings"

	"github.com/droidpilot/droidpilot/api/schemas"
)

// RepetitionKey is a coarse fingerprint of an action plan. Two plans with
// the same key are "the same action" for loop-breaking purposes, so
// coordinate jitter and text casing differences do not defeat detection.
type RepetitionKey string

// roundToFive rounds v to the nearest multiple of 5.
func roundToFive(v float64) int {
	return int(math.Round(v/5) * 5)
}

// KeyFor derives the repetition key of a plan.
func KeyFor(p schemas.ActionPlan) RepetitionKey {
	switch p.Kind {
	case schemas.ActionTap:
		return RepetitionKey(fmt.Sprintf("tap|%d|%d", roundToFive(p.XPercent), roundToFive(p.YPercent)))
	case schemas.ActionType:
		return RepetitionKey("type|" + strings.ToLower(strings.TrimSpace(p.Text)))
	case schemas.ActionScroll, schemas.ActionSwipe:
		return RepetitionKey(fmt.Sprintf("%s|%s", p.Kind, p.Direction))
	case schemas.ActionWait:
		return "wait"
	default:
		return RepetitionKey(p.Kind)
	}
}

// breakSubstitute returns a perturbing replacement for a plan the loop keeps
// proposing. A repeated tap gets a scroll, a repeated scroll gets a center
// tap, and anything else goes home.
func breakSubstitute(p schemas.ActionPlan) schemas.ActionPlan {
	var sub schemas.ActionPlan
	switch p.Kind {
	case schemas.ActionTap:
		sub = schemas.ActionPlan{Kind: schemas.ActionScroll, Direction: schemas.DirectionDown}
	case schemas.ActionScroll, schemas.ActionSwipe:
		sub = schemas.ActionPlan{
			Kind:        schemas.ActionTap,
			XPercent:    schemas.DefaultPercent,
			YPercent:    schemas.DefaultPercent,
			HasPosition: true,
		}
	default:
		sub = schemas.ActionPlan{Kind: schemas.ActionHome}
	}
	sub.Reasoning = fmt.Sprintf("breaking a loop of repeated %s actions", p.Kind)
	return sub
}
