// File: internal/planner/planner.go

// Package planner turns a task string and the current screen into the next
// structured action. The LLM-backed implementation prompts a vision-capable
// model with the UI hierarchy (or a raw screenshot when the hierarchy is
// empty) and tolerantly parses the structured reply.
package planner

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/droidpilot/droidpilot/api/schemas"
	"github.com/droidpilot/droidpilot/internal/apps"
)

// Planner proposes one action per loop iteration and can pre-analyze a task
// before the loop starts.
type Planner interface {
	// PlanNext returns the next action for the task given the current screen.
	// A non-nil screenshot is attached for vision analysis when the UI
	// hierarchy carries too little signal. The returned plan is normalized.
	PlanNext(ctx context.Context, task string, state *schemas.ScreenState, screenshot []byte, history []schemas.ActionPlan) (schemas.ActionPlan, error)

	// PlanTask analyzes the raw task string before any screen interaction,
	// detecting direct app launches that need no vision guidance.
	PlanTask(ctx context.Context, task string) (TaskPlan, error)
}

// TaskPlan is the result of pre-analyzing a task string.
type TaskPlan struct {
	Analysis string `json:"analysis"`
	// LaunchPackage is the package to start before the loop begins. Empty
	// when the task does not open a specific app.
	LaunchPackage string `json:"launch_package,omitempty"`
	// RemainingTask is what is left to do after the launch. Empty when the
	// launch alone completes the task.
	RemainingTask string `json:"remaining_task,omitempty"`
}

// Done reports whether the plan needs no further screen interaction.
func (p TaskPlan) Done() bool {
	return p.LaunchPackage != "" && p.RemainingTask == ""
}

// LLMPlanner implements Planner over a schemas.LLMClient.
type LLMPlanner struct {
	llm    schemas.LLMClient
	logger *zap.Logger
}

// NewLLMPlanner creates a planner backed by the given LLM client.
func NewLLMPlanner(llm schemas.LLMClient, logger *zap.Logger) *LLMPlanner {
	return &LLMPlanner{
		llm:    llm,
		logger: logger.Named("planner"),
	}
}

const planSystemPrompt = `You are an expert Android automation assistant. You control a device by analyzing its current screen and choosing exactly one next action toward the user's task.

The available actions are:
- "tap": Tap at a position given as screen percentages
- "type": Type text into a field (tap the field first, or give its position)
- "scroll": Scroll in a direction (up, down, left, right)
- "swipe": Swipe in a direction
- "wait": Pause to let content load
- "back": Press the back button
- "home": Press the home button
- "press-enter": Press the enter/search key
- "launch-app": Start an app by package name
- "done": Nothing is left to do

GUIDELINES:
1. For search tasks: first tap the search field or icon, then type the query, then press enter or tap a suggestion.
2. For typing tasks: tap precisely on the input field before typing.
3. Use the PREVIOUS ACTIONS list to avoid repeating an action that already happened.
4. Only set is_task_complete to true when you are confident the entire task has finished.

Return ONLY valid JSON in this format:
{
  "action": "tap | type | scroll | swipe | wait | back | home | press-enter | launch-app | done",
  "position": {"x_percent": 50, "y_percent": 50},
  "text": "Text to type if action is type",
  "direction": "up | down | left | right (for scroll/swipe)",
  "duration": 2,
  "package": "Package name if action is launch-app",
  "reasoning": "Brief explanation of why you chose this action",
  "is_task_complete": false
}`

// historyTail limits how many previous actions appear in the prompt.
const historyTail = 5

// PlanNext prompts the vision tier for the next action and normalizes the
// parsed result.
func (p *LLMPlanner) PlanNext(ctx context.Context, task string, state *schemas.ScreenState, screenshot []byte, history []schemas.ActionPlan) (schemas.ActionPlan, error) {
	req := schemas.GenerationRequest{
		SystemPrompt: planSystemPrompt,
		UserPrompt:   buildUserPrompt(task, state, history),
		Tier:         schemas.TierVision,
		ImagePNG:     screenshot,
		Options:      schemas.GenerationOptions{ForceJSONFormat: true},
	}

	response, err := p.llm.Generate(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return schemas.ActionPlan{}, fmt.Errorf("planner generation failed: %w", err)
		}
		p.logger.Warn("Planner generation failed, falling back to wait", zap.Error(err))
		return fallbackWaitPlan(), nil
	}

	plan, err := parsePlanResponse(response)
	if err != nil {
		p.logger.Warn("Unparseable planner response, falling back to wait",
			zap.String("raw_response", truncate(response, 500)),
			zap.Error(err))
		return fallbackWaitPlan(), nil
	}
	plan.Normalize()

	p.logger.Debug("Planned next action",
		zap.String("action", string(plan.Kind)),
		zap.Bool("task_complete", plan.TaskComplete),
		zap.String("reasoning", plan.Reasoning))
	return plan, nil
}

// fallbackWaitPlan is returned when generation or parsing fails. The loop
// treats any returned plan as valid, and a short wait gives a mid-transition
// screen time to settle before the next observation. Repeated fallbacks share
// a repetition key, so the loop's break substitution eventually kicks in.
func fallbackWaitPlan() schemas.ActionPlan {
	plan := schemas.ActionPlan{
		Kind:      schemas.ActionWait,
		Reasoning: "planner output was unusable, waiting before re-observing",
	}
	plan.Normalize()
	return plan
}

func buildUserPrompt(task string, state *schemas.ScreenState, history []schemas.ActionPlan) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TASK: %s\n\n", task)

	if len(history) > 0 {
		sb.WriteString("PREVIOUS ACTIONS:\n")
		tail := history
		if len(tail) > historyTail {
			tail = tail[len(tail)-historyTail:]
		}
		for i, a := range tail {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, a.Describe())
		}
		sb.WriteString("\n")
	}

	if state.ForegroundApp != "" {
		fmt.Fprintf(&sb, "CURRENT APP: %s\n\n", state.ForegroundApp)
	}

	if len(state.Elements) > 0 {
		sb.WriteString("VISIBLE ELEMENTS (label @ x%,y%):\n")
		for _, el := range state.Elements {
			label := el.Label()
			if label == "" {
				continue
			}
			marker := ""
			if el.Clickable {
				marker = " [clickable]"
			}
			fmt.Fprintf(&sb, "- %s @ %.0f%%,%.0f%%%s\n",
				label, el.CenterPercent.X, el.CenterPercent.Y, marker)
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No UI hierarchy is available; analyze the attached screenshot instead.\n\n")
	}

	sb.WriteString("Determine the single next action to take.")
	return sb.String()
}

const taskPlanSystemPrompt = `You are an expert at planning Android automation tasks. Analyze the user's request and determine whether it starts by launching a specific app.

Return ONLY valid JSON in this format:
{
  "analysis": "Brief analysis of what the task involves",
  "has_app_launch": true,
  "app_name": "Name of the app to launch (only if has_app_launch is true)",
  "remaining_task": "What must be done after the launch, or empty if the launch alone completes the task"
}`

var directLaunchRegex = regexp.MustCompile(`^(?:open|launch|start)\s+(?:the\s+)?(?:app\s+)?([a-z0-9 .+-]+)$`)

// PlanTask resolves direct "open <app>" phrasings locally and falls back to a
// fast-tier call for anything more involved.
func (p *LLMPlanner) PlanTask(ctx context.Context, task string) (TaskPlan, error) {
	if plan, ok := parseDirectLaunch(task); ok {
		p.logger.Debug("Resolved direct app launch without LLM",
			zap.String("package", plan.LaunchPackage))
		return plan, nil
	}

	req := schemas.GenerationRequest{
		SystemPrompt: taskPlanSystemPrompt,
		UserPrompt:   fmt.Sprintf("Task: %s", task),
		Tier:         schemas.TierFast,
		Options:      schemas.GenerationOptions{ForceJSONFormat: true, MaxTokens: 500},
	}

	response, err := p.llm.Generate(ctx, req)
	if err != nil {
		// Pre-analysis is an optimization; the loop works without it.
		p.logger.Warn("Task pre-analysis failed; continuing with screen-driven planning", zap.Error(err))
		return TaskPlan{}, nil
	}

	return parseTaskPlanResponse(response), nil
}

// parseDirectLaunch handles the trivial "open spotify" family of tasks
// without spending an LLM call. Compound tasks fall through.
func parseDirectLaunch(task string) (TaskPlan, bool) {
	lowered := strings.ToLower(strings.TrimSpace(task))
	if strings.Contains(lowered, " and ") || strings.Contains(lowered, " then ") {
		return TaskPlan{}, false
	}
	m := directLaunchRegex.FindStringSubmatch(lowered)
	if m == nil {
		return TaskPlan{}, false
	}
	pkg, ok := apps.Lookup(m[1])
	if !ok {
		return TaskPlan{}, false
	}
	return TaskPlan{
		Analysis:      fmt.Sprintf("direct launch of %s", strings.TrimSpace(m[1])),
		LaunchPackage: pkg,
	}, true
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
