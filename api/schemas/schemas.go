// File: api/schemas/schemas.go
package schemas

import (
	"fmt"
	"strings"
	"time"
)

// -- Screen State Schemas --

// Point is a location in device pixel space.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// PercentPoint is a location expressed as a percentage of screen width/height.
// Both coordinates are always within [0,100].
type PercentPoint struct {
	X float64 `json:"x_percent"`
	Y float64 `json:"y_percent"`
}

// Bounds is an element's bounding box in device pixel space, matching the
// `[left,top][right,bottom]` layout of a uiautomator dump.
type Bounds struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
}

// Width returns the horizontal extent of the box.
func (b Bounds) Width() int { return b.Right - b.Left }

// Height returns the vertical extent of the box.
func (b Bounds) Height() int { return b.Bottom - b.Top }

// Center returns the pixel midpoint of the box.
func (b Bounds) Center() Point {
	return Point{X: (b.Left + b.Right) / 2, Y: (b.Top + b.Bottom) / 2}
}

// UIElement is a single node of the device's UI hierarchy, normalized from
// either a uiautomator XML dump or a vision-model description of a screenshot.
type UIElement struct {
	Text          string       `json:"text,omitempty"`
	Description   string       `json:"description,omitempty"`
	Class         string       `json:"class,omitempty"`
	ResourceID    string       `json:"resource_id,omitempty"`
	Clickable     bool         `json:"clickable"`
	Bounds        Bounds       `json:"bounds"`
	Center        Point        `json:"center"`
	CenterPercent PercentPoint `json:"center_percent"`
}

// Label returns the most descriptive human-readable identifier available for
// the element, preferring visible text over the accessibility description.
func (e UIElement) Label() string {
	if e.Text != "" {
		return e.Text
	}
	if e.Description != "" {
		return e.Description
	}
	return e.ResourceID
}

// ScreenState is a snapshot of the visible UI at one point in time. Each
// snapshot is independent; the loop captures a fresh one every iteration and
// discards it afterwards.
type ScreenState struct {
	Elements      []UIElement `json:"elements"`
	ForegroundApp string      `json:"foreground_app,omitempty"`
	FlattenedText string      `json:"flattened_text"`
	ScreenWidth   int         `json:"screen_width"`
	ScreenHeight  int         `json:"screen_height"`
	CapturedAt    time.Time   `json:"captured_at"`
}

// ContainsText reports whether needle appears (case-insensitively) in the
// flattened text blob or in any element's text or description.
func (s *ScreenState) ContainsText(needle string) bool {
	if needle == "" {
		return false
	}
	needle = strings.ToLower(needle)
	if strings.Contains(strings.ToLower(s.FlattenedText), needle) {
		return true
	}
	for _, el := range s.Elements {
		if strings.Contains(strings.ToLower(el.Text), needle) ||
			strings.Contains(strings.ToLower(el.Description), needle) {
			return true
		}
	}
	return false
}

// -- Action Plan Schemas --

// ActionKind enumerates every action the planner may propose. It is the tag of
// the ActionPlan union; kind-specific fields are ignored for other kinds.
type ActionKind string

const (
	ActionTap        ActionKind = "tap"         // Tap at a percent position.
	ActionType       ActionKind = "type"        // Type text, optionally tapping a field first.
	ActionScroll     ActionKind = "scroll"      // Scroll in a direction.
	ActionSwipe      ActionKind = "swipe"       // Swipe in a direction.
	ActionWait       ActionKind = "wait"        // Pause for a number of seconds.
	ActionBack       ActionKind = "back"        // Press the hardware back button.
	ActionHome       ActionKind = "home"        // Press the home button.
	ActionPressEnter ActionKind = "press-enter" // Press the enter/search IME key.
	ActionLaunchApp  ActionKind = "launch-app"  // Start an application by package name.
	ActionDone       ActionKind = "done"        // Planner believes nothing is left to do.
)

// Direction is a scroll/swipe direction on the screen.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// ActionPlan is a single structured decision returned by the planner: one
// action kind plus its kind-specific payload, a completion flag, and advisory
// reasoning. Reasoning is logged but never drives a control decision.
type ActionPlan struct {
	Kind ActionKind `json:"action"`

	// Tap/type target, as a percentage of the screen.
	XPercent float64 `json:"x_percent,omitempty"`
	YPercent float64 `json:"y_percent,omitempty"`
	// HasPosition distinguishes an explicit (0,0) target from an absent one.
	HasPosition bool `json:"has_position,omitempty"`

	Text            string    `json:"text,omitempty"`      // Payload for "type".
	Direction       Direction `json:"direction,omitempty"` // Payload for "scroll"/"swipe".
	DurationSeconds float64   `json:"duration,omitempty"`  // Payload for "wait".
	Package         string    `json:"package,omitempty"`   // Payload for "launch-app".

	TaskComplete bool   `json:"is_task_complete"`
	Reasoning    string `json:"reasoning,omitempty"`
}

// Describe renders the plan as a short human-readable line for logs and
// planner history prompts.
func (p ActionPlan) Describe() string {
	switch p.Kind {
	case ActionTap:
		return fmt.Sprintf("tap at (%.0f%%, %.0f%%)", p.XPercent, p.YPercent)
	case ActionType:
		if p.HasPosition {
			return fmt.Sprintf("type %q at (%.0f%%, %.0f%%)", p.Text, p.XPercent, p.YPercent)
		}
		return fmt.Sprintf("type %q", p.Text)
	case ActionScroll, ActionSwipe:
		return fmt.Sprintf("%s %s", p.Kind, p.Direction)
	case ActionWait:
		return fmt.Sprintf("wait %.1fs", p.DurationSeconds)
	case ActionLaunchApp:
		return fmt.Sprintf("launch-app %s", p.Package)
	default:
		return string(p.Kind)
	}
}

const (
	// DefaultPercent centers an action when the planner omits a coordinate.
	DefaultPercent = 50.0
	// DefaultWaitSeconds is applied to a "wait" with no usable duration.
	DefaultWaitSeconds = 2.0
)

// clampPercent forces v into [0,100].
func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Normalize repairs an ActionPlan decoded from untrusted planner output so
// the rest of the system can rely on its invariants: tap coordinates are
// clamped to [0,100] (defaulting to screen center when absent), waits get a
// sane positive duration, and scroll/swipe directions default to "down".
func (p *ActionPlan) Normalize() {
	switch p.Kind {
	case ActionTap, ActionType:
		if !p.HasPosition && (p.XPercent != 0 || p.YPercent != 0) {
			p.HasPosition = true
		}
		if p.Kind == ActionTap && !p.HasPosition {
			p.XPercent = DefaultPercent
			p.YPercent = DefaultPercent
			p.HasPosition = true
		}
		p.XPercent = clampPercent(p.XPercent)
		p.YPercent = clampPercent(p.YPercent)
	case ActionScroll, ActionSwipe:
		switch p.Direction {
		case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		default:
			p.Direction = DirectionDown
		}
	case ActionWait:
		if p.DurationSeconds <= 0 {
			p.DurationSeconds = DefaultWaitSeconds
		}
	}
}

// -- Run Result Schemas --

// RunStatus is the terminal outcome of a task run.
type RunStatus string

const (
	// StatusCompleted means the planner signalled completion and the
	// verification policy accepted it.
	StatusCompleted RunStatus = "completed"
	// StatusExhausted means the iteration budget was spent without the task
	// being marked complete. The task may be partially done.
	StatusExhausted RunStatus = "exhausted"
	// StatusAborted means observation or execution failed repeatedly enough
	// that continuing was pointless.
	StatusAborted RunStatus = "aborted"
)

// RunResult is what a task run always returns: a terminal status, the
// planner's final summary, and a human-readable log of every step taken. The
// loop never raises past its own boundary.
type RunResult struct {
	Status   RunStatus     `json:"status"`
	Summary  string        `json:"summary"`
	StepLog  []string      `json:"step_log"`
	Steps    int           `json:"steps"`
	Duration time.Duration `json:"duration"`
}
