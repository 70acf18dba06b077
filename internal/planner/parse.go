// File: internal/planner/parse.go
package planner

import (
	"fmt"
	"regexp"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/droidpilot/droidpilot/api/schemas"
	"github.com/droidpilot/droidpilot/internal/apps"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

// planEnvelope accepts every field layout the model is known to emit:
// positions either nested under "position" or inlined at the top level, and
// app names either as a package or a friendly name under "parameters".
type planEnvelope struct {
	Action   string `json:"action"`
	Position *struct {
		XPercent float64 `json:"x_percent"`
		YPercent float64 `json:"y_percent"`
	} `json:"position"`
	XPercent   *float64 `json:"x_percent"`
	YPercent   *float64 `json:"y_percent"`
	Text       string   `json:"text"`
	Direction  string   `json:"direction"`
	Duration   float64  `json:"duration"`
	Package    string   `json:"package"`
	AppName    string   `json:"app_name"`
	Parameters struct {
		AppName string  `json:"app_name"`
		Time    float64 `json:"time"`
	} `json:"parameters"`
	IsTaskComplete bool   `json:"is_task_complete"`
	Reasoning      string `json:"reasoning"`
}

// extractJSON pulls the JSON object out of a model reply that may wrap it in
// markdown fences or surrounding prose.
func extractJSON(response string) string {
	response = strings.TrimSpace(response)
	if matches := jsonBlockRegex.FindStringSubmatch(response); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}
	first := strings.Index(response, "{")
	last := strings.LastIndex(response, "}")
	if first != -1 && last > first {
		return response[first : last+1]
	}
	return response
}

// kindAliases maps every action spelling the model is known to use onto the
// canonical vocabulary.
var kindAliases = map[string]schemas.ActionKind{
	"tap":         schemas.ActionTap,
	"click":       schemas.ActionTap,
	"type":        schemas.ActionType,
	"input_text":  schemas.ActionType,
	"type_text":   schemas.ActionType,
	"scroll":      schemas.ActionScroll,
	"swipe":       schemas.ActionSwipe,
	"wait":        schemas.ActionWait,
	"back":        schemas.ActionBack,
	"home":        schemas.ActionHome,
	"press-enter": schemas.ActionPressEnter,
	"press_enter": schemas.ActionPressEnter,
	"enter":       schemas.ActionPressEnter,
	"launch-app":  schemas.ActionLaunchApp,
	"launch_app":  schemas.ActionLaunchApp,
	"open_app":    schemas.ActionLaunchApp,
	"done":        schemas.ActionDone,
	"complete":    schemas.ActionDone,
	"finish":      schemas.ActionDone,
	"none":        schemas.ActionDone,
}

// parsePlanResponse decodes a model reply into an ActionPlan. The reply may
// be fenced, surrounded by prose, use alias action names, or nest the
// position; all of those are repaired here rather than rejected.
func parsePlanResponse(response string) (schemas.ActionPlan, error) {
	payload := extractJSON(response)
	if payload == "" {
		return schemas.ActionPlan{}, fmt.Errorf("could not find any JSON in the planner response")
	}

	var env planEnvelope
	if err := json.UnmarshalFromString(payload, &env); err != nil {
		return schemas.ActionPlan{}, fmt.Errorf("failed to unmarshal extracted JSON: %w", err)
	}

	kind, ok := kindAliases[strings.ToLower(strings.TrimSpace(env.Action))]
	if !ok {
		if env.IsTaskComplete {
			kind = schemas.ActionDone
		} else {
			return schemas.ActionPlan{}, fmt.Errorf("planner response has unknown action %q", env.Action)
		}
	}

	plan := schemas.ActionPlan{
		Kind:         kind,
		Text:         env.Text,
		Direction:    schemas.Direction(strings.ToLower(env.Direction)),
		TaskComplete: env.IsTaskComplete,
		Reasoning:    env.Reasoning,
	}

	switch {
	case env.Position != nil:
		plan.XPercent = env.Position.XPercent
		plan.YPercent = env.Position.YPercent
		plan.HasPosition = true
	case env.XPercent != nil || env.YPercent != nil:
		if env.XPercent != nil {
			plan.XPercent = *env.XPercent
		}
		if env.YPercent != nil {
			plan.YPercent = *env.YPercent
		}
		plan.HasPosition = true
	}

	if kind == schemas.ActionWait {
		plan.DurationSeconds = env.Duration
		if plan.DurationSeconds <= 0 {
			plan.DurationSeconds = env.Parameters.Time
		}
	}

	if kind == schemas.ActionLaunchApp {
		plan.Package = resolvePackage(env)
		if plan.Package == "" {
			return schemas.ActionPlan{}, fmt.Errorf("launch-app action is missing a resolvable package")
		}
	}

	return plan, nil
}

// resolvePackage prefers an explicit package name, falling back to friendly
// app-name lookup.
func resolvePackage(env planEnvelope) string {
	if env.Package != "" {
		if pkg, ok := apps.Lookup(env.Package); ok {
			return pkg
		}
		if strings.Contains(env.Package, ".") {
			return env.Package
		}
	}
	for _, name := range []string{env.AppName, env.Parameters.AppName} {
		if name == "" {
			continue
		}
		if pkg, ok := apps.Lookup(name); ok {
			return pkg
		}
	}
	return ""
}

// taskPlanEnvelope mirrors the pre-analysis reply format.
type taskPlanEnvelope struct {
	Analysis      string `json:"analysis"`
	HasAppLaunch  bool   `json:"has_app_launch"`
	AppName       string `json:"app_name"`
	RemainingTask string `json:"remaining_task"`
}

// parseTaskPlanResponse decodes the fast-tier pre-analysis reply. Malformed
// replies degrade to an empty plan rather than an error.
func parseTaskPlanResponse(response string) TaskPlan {
	payload := extractJSON(response)
	var env taskPlanEnvelope
	if err := json.UnmarshalFromString(payload, &env); err != nil {
		return TaskPlan{}
	}
	plan := TaskPlan{Analysis: env.Analysis, RemainingTask: strings.TrimSpace(env.RemainingTask)}
	if env.HasAppLaunch {
		if pkg, ok := apps.Lookup(env.AppName); ok {
			plan.LaunchPackage = pkg
		} else if strings.Contains(env.AppName, ".") {
			plan.LaunchPackage = env.AppName
		}
	}
	return plan
}
