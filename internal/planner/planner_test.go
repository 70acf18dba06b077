// File: internal/planner/planner_test.go
package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/droidpilot/droidpilot/api/schemas"
)

// scriptedLLM returns canned replies in order and records requests.
type scriptedLLM struct {
	replies  []string
	err      error
	requests []schemas.GenerationRequest
}

func (s *scriptedLLM) Generate(_ context.Context, req schemas.GenerationRequest) (string, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return "", s.err
	}
	idx := len(s.requests) - 1
	if idx >= len(s.replies) {
		idx = len(s.replies) - 1
	}
	return s.replies[idx], nil
}

func testState() *schemas.ScreenState {
	return &schemas.ScreenState{
		Elements: []schemas.UIElement{
			{Text: "Search", Clickable: true, CenterPercent: schemas.PercentPoint{X: 50, Y: 8}},
			{Description: "More options", Clickable: true, CenterPercent: schemas.PercentPoint{X: 93, Y: 8}},
		},
		ForegroundApp: "settings",
		FlattenedText: "Search | More options",
		ScreenWidth:   1080,
		ScreenHeight:  2340,
		CapturedAt:    time.Now(),
	}
}

func TestPlanNextParsesAndNormalizes(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{
		"action": "click",
		"position": {"x_percent": 50, "y_percent": 8},
		"reasoning": "the search bar is at the top",
		"is_task_complete": false
	}`}}
	p := NewLLMPlanner(llm, zap.NewNop())

	plan, err := p.PlanNext(context.Background(), "search for cats", testState(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, schemas.ActionTap, plan.Kind)
	assert.True(t, plan.HasPosition)
	assert.InDelta(t, 50, plan.XPercent, 0.001)
	assert.InDelta(t, 8, plan.YPercent, 0.001)
	assert.False(t, plan.TaskComplete)

	require.Len(t, llm.requests, 1)
	req := llm.requests[0]
	assert.Equal(t, schemas.TierVision, req.Tier)
	assert.True(t, req.Options.ForceJSONFormat)
	assert.Contains(t, req.UserPrompt, "TASK: search for cats")
	assert.Contains(t, req.UserPrompt, "Search @ 50%,8% [clickable]")
	assert.Contains(t, req.UserPrompt, "CURRENT APP: settings")
}

func TestPlanNextIncludesHistoryTail(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{"action": "wait", "is_task_complete": false}`}}
	p := NewLLMPlanner(llm, zap.NewNop())

	history := make([]schemas.ActionPlan, 0, 8)
	for i := 0; i < 8; i++ {
		history = append(history, schemas.ActionPlan{Kind: schemas.ActionScroll, Direction: schemas.DirectionDown})
	}
	history[7] = schemas.ActionPlan{Kind: schemas.ActionType, Text: "pizza"}

	_, err := p.PlanNext(context.Background(), "order food", testState(), nil, history)
	require.NoError(t, err)

	prompt := llm.requests[0].UserPrompt
	assert.Contains(t, prompt, "PREVIOUS ACTIONS:")
	assert.Contains(t, prompt, `type "pizza"`)
	// Only the most recent actions appear.
	assert.NotContains(t, prompt, "6. ")
}

func TestPlanNextAttachesScreenshotWhenHierarchyEmpty(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{"action": "home", "is_task_complete": false}`}}
	p := NewLLMPlanner(llm, zap.NewNop())

	state := &schemas.ScreenState{CapturedAt: time.Now()}
	png := []byte{0x89, 0x50, 0x4e, 0x47}
	_, err := p.PlanNext(context.Background(), "go home", state, png, nil)
	require.NoError(t, err)

	req := llm.requests[0]
	assert.Equal(t, png, req.ImagePNG)
	assert.Contains(t, req.UserPrompt, "screenshot")
}

func TestPlanNextFallsBackToWaitOnGenerationError(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("rate limited")}
	p := NewLLMPlanner(llm, zap.NewNop())

	plan, err := p.PlanNext(context.Background(), "anything", testState(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, schemas.ActionWait, plan.Kind)
	assert.False(t, plan.TaskComplete)
}

func TestPlanNextFallsBackToWaitOnGarbage(t *testing.T) {
	llm := &scriptedLLM{replies: []string{"I am not sure what to do here."}}
	p := NewLLMPlanner(llm, zap.NewNop())

	plan, err := p.PlanNext(context.Background(), "anything", testState(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, schemas.ActionWait, plan.Kind)
	assert.Equal(t, schemas.DefaultWaitSeconds, plan.DurationSeconds)
}

func TestPlanNextPropagatesCancellation(t *testing.T) {
	llm := &scriptedLLM{err: context.Canceled}
	p := NewLLMPlanner(llm, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.PlanNext(ctx, "anything", testState(), nil, nil)
	assert.Error(t, err)
}

func TestPlanTaskDirectLaunchSkipsLLM(t *testing.T) {
	llm := &scriptedLLM{}
	p := NewLLMPlanner(llm, zap.NewNop())

	plan, err := p.PlanTask(context.Background(), "Open Spotify")
	require.NoError(t, err)
	assert.Equal(t, "com.spotify.music", plan.LaunchPackage)
	assert.True(t, plan.Done())
	assert.Empty(t, llm.requests, "direct launches must not spend an LLM call")
}

func TestPlanTaskCompoundUsesFastTier(t *testing.T) {
	llm := &scriptedLLM{replies: []string{`{
		"analysis": "launch youtube then search",
		"has_app_launch": true,
		"app_name": "youtube",
		"remaining_task": "search for lo-fi beats"
	}`}}
	p := NewLLMPlanner(llm, zap.NewNop())

	plan, err := p.PlanTask(context.Background(), "open youtube and search for lo-fi beats")
	require.NoError(t, err)
	assert.Equal(t, "com.google.android.youtube", plan.LaunchPackage)
	assert.Equal(t, "search for lo-fi beats", plan.RemainingTask)
	assert.False(t, plan.Done())

	require.Len(t, llm.requests, 1)
	assert.Equal(t, schemas.TierFast, llm.requests[0].Tier)
}

func TestPlanTaskToleratesLLMFailure(t *testing.T) {
	llm := &scriptedLLM{err: errors.New("unavailable")}
	p := NewLLMPlanner(llm, zap.NewNop())

	plan, err := p.PlanTask(context.Background(), "check the weather in Paris")
	require.NoError(t, err)
	assert.Empty(t, plan.LaunchPackage)
}
