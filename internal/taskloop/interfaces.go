// File: internal/taskloop/interfaces.go

// Package taskloop drives the observe/plan/execute cycle for one task run.
// The controller owns repetition detection, completion verification, and the
// failure budgets; observation, planning, and execution are injected ports.
package taskloop

import (
	"context"

	"github.com/droidpilot/droidpilot/api/schemas"
	"github.com/droidpilot/droidpilot/internal/planner"
)

// ScreenProvider captures the device's current UI state.
type ScreenProvider interface {
	Capture(ctx context.Context) (*schemas.ScreenState, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

// Planner proposes the next action for a task. Satisfied by
// planner.LLMPlanner.
type Planner interface {
	PlanNext(ctx context.Context, task string, state *schemas.ScreenState, screenshot []byte, history []schemas.ActionPlan) (schemas.ActionPlan, error)
	PlanTask(ctx context.Context, task string) (planner.TaskPlan, error)
}

// Executor applies one action plan to the device.
type Executor interface {
	Execute(ctx context.Context, plan schemas.ActionPlan) error
}

// VerificationPolicy vetoes premature completion claims for task categories
// where the planner is unreliable at self-assessment. Verify may only
// withhold completion, never grant it.
type VerificationPolicy interface {
	// Applies reports whether this policy governs the given task.
	Applies(task string) bool
	// Verify resolves the final completion value for a proposed plan.
	// lastExecuted is nil before the first successfully executed action.
	Verify(task string, plan schemas.ActionPlan, state *schemas.ScreenState, lastExecuted *schemas.ActionPlan) bool
}
