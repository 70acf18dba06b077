// File: internal/taskloop/controller.go
package taskloop

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/droidpilot/droidpilot/api/schemas"
	"github.com/droidpilot/droidpilot/internal/config"
)

// Controller runs the decide/act cycle for one task at a time. It never
// returns an error past its own boundary; every run ends with a structured
// RunResult.
type Controller struct {
	screen   ScreenProvider
	planner  Planner
	executor Executor
	policies []VerificationPolicy
	cfg      config.AgentConfig
	logger   *zap.Logger
}

// NewController wires the loop's ports together. When no verification
// policies are given, the search policy is installed.
func NewController(screen ScreenProvider, plnr Planner, exec Executor, cfg config.AgentConfig, logger *zap.Logger, policies ...VerificationPolicy) *Controller {
	if len(policies) == 0 {
		policies = []VerificationPolicy{NewSearchPolicy()}
	}
	return &Controller{
		screen:   screen,
		planner:  plnr,
		executor: exec,
		policies: policies,
		cfg:      cfg,
		logger:   logger.Named("taskloop"),
	}
}

// runState is the per-run mutable state. Nothing here survives a run.
type runState struct {
	history      *history
	lastExecuted *schemas.ActionPlan
	lastKey      RepetitionKey
	haveLastKey  bool
	repeatCount  int
	obsFailures  int
	consecErrors int
	stepLog      []string
	steps        int
}

func (s *runState) log(format string, args ...any) {
	s.stepLog = append(s.stepLog, fmt.Sprintf(format, args...))
}

// RunTask drives the loop until the task completes, the iteration budget is
// spent, or repeated failures make continuing pointless.
func (c *Controller) RunTask(ctx context.Context, task string) schemas.RunResult {
	start := time.Now()
	state := &runState{history: newHistory(c.cfg.HistorySize)}

	c.logger.Info("Starting task run",
		zap.String("task", task),
		zap.Int("max_iterations", c.cfg.MaxIterations))

	result := c.run(ctx, task, state)
	result.StepLog = state.stepLog
	result.Steps = state.steps
	result.Duration = time.Since(start)

	c.logger.Info("Task run finished",
		zap.String("status", string(result.Status)),
		zap.Int("steps", result.Steps),
		zap.Duration("duration", result.Duration))
	return result
}

func (c *Controller) run(ctx context.Context, task string, st *runState) schemas.RunResult {
	if remaining, result := c.preflight(ctx, task, st); result != nil {
		return *result
	} else if remaining != "" {
		task = remaining
	}

	for i := 1; i <= c.cfg.MaxIterations; i++ {
		if ctx.Err() != nil {
			st.log("step %d: run cancelled", i)
			return schemas.RunResult{Status: schemas.StatusAborted, Summary: "run cancelled"}
		}
		st.steps = i

		screen, err := c.screen.Capture(ctx)
		if err != nil {
			st.obsFailures++
			st.log("step %d: screen capture failed: %v", i, err)
			c.logger.Warn("Screen capture failed",
				zap.Int("iteration", i),
				zap.Int("consecutive", st.obsFailures),
				zap.Error(err))
			if st.obsFailures >= c.cfg.MaxConsecutiveErrors {
				return schemas.RunResult{
					Status:  schemas.StatusAborted,
					Summary: fmt.Sprintf("aborted after %d consecutive screen capture failures", st.obsFailures),
				}
			}
			continue
		}
		st.obsFailures = 0

		// A near-empty hierarchy (games, video surfaces) carries no signal;
		// fall back to the vision model with a raw screenshot.
		var screenshot []byte
		if len(screen.Elements) == 0 {
			if png, shotErr := c.screen.Screenshot(ctx); shotErr == nil {
				screenshot = png
			} else {
				c.logger.Warn("Screenshot fallback failed", zap.Error(shotErr))
			}
		}

		plan, err := c.planner.PlanNext(ctx, task, screen, screenshot, st.history.tail())
		if err != nil {
			st.consecErrors++
			st.log("step %d: planning failed: %v", i, err)
			c.logger.Warn("Planning failed", zap.Int("iteration", i), zap.Error(err))
			if st.consecErrors >= c.cfg.MaxConsecutiveErrors {
				return schemas.RunResult{
					Status:  schemas.StatusAborted,
					Summary: fmt.Sprintf("aborted after %d consecutive planning/execution failures", st.consecErrors),
				}
			}
			continue
		}

		plan = c.applyRepetitionPolicy(plan, st, i)
		st.history.append(plan)

		if c.resolveCompletion(task, plan, screen, st) {
			summary := plan.Reasoning
			if summary == "" {
				summary = "task completed"
			}
			st.log("step %d: task complete: %s", i, summary)
			return schemas.RunResult{Status: schemas.StatusCompleted, Summary: summary}
		}
		if plan.Kind == schemas.ActionDone {
			// A rejected completion claim; observe again rather than act.
			st.log("step %d: completion claim rejected by verification", i)
			continue
		}

		if err := c.executor.Execute(ctx, plan); err != nil {
			st.consecErrors++
			st.log("step %d: %s failed: %v", i, plan.Kind, err)
			c.logger.Warn("Action execution failed",
				zap.Int("iteration", i),
				zap.String("action", string(plan.Kind)),
				zap.Error(err))
			if st.consecErrors >= c.cfg.MaxConsecutiveErrors {
				return schemas.RunResult{
					Status:  schemas.StatusAborted,
					Summary: fmt.Sprintf("aborted after %d consecutive planning/execution failures", st.consecErrors),
				}
			}
		} else {
			st.consecErrors = 0
			executed := plan
			st.lastExecuted = &executed
			st.lastKey = KeyFor(executed)
			st.haveLastKey = true
			st.log("step %d: %s", i, plan.Describe())
		}

		if plan.Kind != schemas.ActionWait {
			if err := c.settle(ctx, plan.Kind); err != nil {
				st.log("step %d: run cancelled", i)
				return schemas.RunResult{Status: schemas.StatusAborted, Summary: "run cancelled"}
			}
		}
	}

	return schemas.RunResult{
		Status:  schemas.StatusExhausted,
		Summary: fmt.Sprintf("iteration budget of %d spent without completion", c.cfg.MaxIterations),
	}
}

// preflight resolves direct app launches before any screen observation. It
// returns the remaining task text, or a terminal result when the launch
// alone completes the task or fails outright.
func (c *Controller) preflight(ctx context.Context, task string, st *runState) (string, *schemas.RunResult) {
	taskPlan, err := c.planner.PlanTask(ctx, task)
	if err != nil || taskPlan.LaunchPackage == "" {
		return "", nil
	}

	launch := schemas.ActionPlan{Kind: schemas.ActionLaunchApp, Package: taskPlan.LaunchPackage}
	if err := c.executor.Execute(ctx, launch); err != nil {
		st.log("preflight: %s failed: %v", launch.Describe(), err)
		c.logger.Warn("Preflight app launch failed; continuing with screen-driven planning", zap.Error(err))
		return "", nil
	}

	st.log("preflight: %s", launch.Describe())
	st.history.append(launch)
	executed := launch
	st.lastExecuted = &executed
	st.lastKey = KeyFor(executed)
	st.haveLastKey = true

	if taskPlan.Done() {
		summary := fmt.Sprintf("launched %s", taskPlan.LaunchPackage)
		st.log("preflight: task complete: %s", summary)
		return "", &schemas.RunResult{Status: schemas.StatusCompleted, Summary: summary}
	}

	if err := c.settle(ctx, schemas.ActionLaunchApp); err != nil {
		return "", &schemas.RunResult{Status: schemas.StatusAborted, Summary: "run cancelled"}
	}
	return taskPlan.RemainingTask, nil
}

// applyRepetitionPolicy tracks how often the planner proposes the same
// action as the previously executed one and substitutes a perturbing action
// once the threshold is crossed.
func (c *Controller) applyRepetitionPolicy(plan schemas.ActionPlan, st *runState, iteration int) schemas.ActionPlan {
	key := KeyFor(plan)
	if st.haveLastKey && key == st.lastKey {
		st.repeatCount++
	} else {
		st.repeatCount = 0
	}

	if st.repeatCount >= c.cfg.RepetitionThreshold {
		substitute := breakSubstitute(plan)
		st.log("step %d: repetition of %q detected, substituting %s", iteration, key, substitute.Describe())
		c.logger.Info("Breaking repetition loop",
			zap.String("repeated_key", string(key)),
			zap.String("substitute", substitute.Describe()))
		st.repeatCount = 0
		return substitute
	}
	return plan
}

// resolveCompletion decides whether the run is finished. The planner's claim
// is subject to the first applicable verification policy; a "done" action
// counts as a claim even without the flag.
func (c *Controller) resolveCompletion(task string, plan schemas.ActionPlan, screen *schemas.ScreenState, st *runState) bool {
	claim := plan.TaskComplete || plan.Kind == schemas.ActionDone
	if plan.Kind == schemas.ActionDone {
		plan.TaskComplete = true
	}

	for _, policy := range c.policies {
		if !policy.Applies(task) {
			continue
		}
		verified := policy.Verify(task, plan, screen, st.lastExecuted)
		if claim && !verified {
			c.logger.Info("Completion claim rejected by verification policy",
				zap.String("action", string(plan.Kind)))
		}
		return verified
	}
	return claim
}

// settle waits for the UI to absorb the executed action before the next
// observation. The post-action delay depends on how disruptive the action
// was when adaptive delays are enabled.
func (c *Controller) settle(ctx context.Context, kind schemas.ActionKind) error {
	delay := c.cfg.InterActionDelay
	if c.cfg.AdaptiveDelay {
		switch kind {
		case schemas.ActionTap, schemas.ActionBack, schemas.ActionLaunchApp:
			delay = 2500 * time.Millisecond
		case schemas.ActionType:
			delay = 1500 * time.Millisecond
		default:
			delay = time.Second
		}
	}
	if delay <= 0 {
		return nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
