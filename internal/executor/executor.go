// File: internal/executor/executor.go

// Package executor translates normalized action plans into device input
// commands. A registry maps each action kind to its handler; percent
// coordinates are converted to pixels against a cached window size.
package executor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/droidpilot/droidpilot/api/schemas"
	"github.com/droidpilot/droidpilot/internal/adb"
)

// Executor runs one action plan against the device.
type Executor interface {
	Execute(ctx context.Context, plan schemas.ActionPlan) error
}

// Device is the input surface the executor needs from the ADB client.
type Device interface {
	Tap(ctx context.Context, x, y int) error
	Swipe(ctx context.Context, x1, y1, x2, y2, durMs int) error
	InputText(ctx context.Context, text string) error
	KeyEvent(ctx context.Context, code int) error
	StartApp(ctx context.Context, pkg string) error
	WindowSize(ctx context.Context) (width, height int, err error)
}

// focusSettleDelay is how long the IME needs after tapping a text field
// before typed input lands in it.
const focusSettleDelay = 500 * time.Millisecond

// swipeDurationMs is the gesture duration for scroll and swipe actions.
const swipeDurationMs = 300

type actionFunc func(ctx context.Context, plan schemas.ActionPlan) error

// ADBExecutor implements Executor over an ADB-connected device.
type ADBExecutor struct {
	device  Device
	logger  *zap.Logger
	actions map[schemas.ActionKind]actionFunc

	// Window size is cached after the first successful query; it only
	// changes on rotation, which the loop does not perform.
	width  int
	height int
}

// NewADBExecutor creates the executor and registers a handler for every
// action kind.
func NewADBExecutor(device Device, logger *zap.Logger) *ADBExecutor {
	e := &ADBExecutor{
		device: device,
		logger: logger.Named("executor"),
	}
	e.actions = map[schemas.ActionKind]actionFunc{
		schemas.ActionTap:        e.executeTap,
		schemas.ActionType:       e.executeType,
		schemas.ActionScroll:     e.executeSwipeGesture,
		schemas.ActionSwipe:      e.executeSwipeGesture,
		schemas.ActionWait:       e.executeWait,
		schemas.ActionBack:       e.keyEventAction(adb.KeycodeBack),
		schemas.ActionHome:       e.keyEventAction(adb.KeycodeHome),
		schemas.ActionPressEnter: e.keyEventAction(adb.KeycodeEnter),
		schemas.ActionLaunchApp:  e.executeLaunchApp,
		schemas.ActionDone:       e.executeDone,
	}
	return e
}

// Execute dispatches the plan to its registered handler.
func (e *ADBExecutor) Execute(ctx context.Context, plan schemas.ActionPlan) error {
	handler, ok := e.actions[plan.Kind]
	if !ok {
		return execErr(ErrCodeUnknownAction, string(plan.Kind), nil)
	}
	e.logger.Info("Executing action", zap.String("action", plan.Describe()))
	return handler(ctx, plan)
}

// ensureSize lazily queries and caches the device window size.
func (e *ADBExecutor) ensureSize(ctx context.Context) error {
	if e.width > 0 && e.height > 0 {
		return nil
	}
	w, h, err := e.device.WindowSize(ctx)
	if err != nil {
		return execErr(ErrCodeWindowSize, "", err)
	}
	e.width, e.height = w, h
	return nil
}

// toPixels converts percent coordinates to device pixels.
func (e *ADBExecutor) toPixels(xPercent, yPercent float64) (int, int) {
	x := int(xPercent / 100 * float64(e.width))
	y := int(yPercent / 100 * float64(e.height))
	return x, y
}

func (e *ADBExecutor) executeTap(ctx context.Context, plan schemas.ActionPlan) error {
	if err := e.ensureSize(ctx); err != nil {
		return err
	}
	x, y := e.toPixels(plan.XPercent, plan.YPercent)
	if err := e.device.Tap(ctx, x, y); err != nil {
		return execErr(ErrCodeDeviceCommand, "tap", err)
	}
	return nil
}

func (e *ADBExecutor) executeType(ctx context.Context, plan schemas.ActionPlan) error {
	if plan.Text == "" {
		return execErr(ErrCodeInvalidParameters, "type", nil)
	}
	if plan.HasPosition {
		if err := e.executeTap(ctx, plan); err != nil {
			return err
		}
		if err := sleepCtx(ctx, focusSettleDelay); err != nil {
			return err
		}
	}
	if err := e.device.InputText(ctx, plan.Text); err != nil {
		e.logger.Warn("Text input failed; retrying character by character", zap.Error(err))
		return e.typeCharByChar(ctx, plan.Text)
	}
	return nil
}

// typeCharByChar sends the text one character at a time. Some keyboards
// reject long escaped strings but accept single characters.
func (e *ADBExecutor) typeCharByChar(ctx context.Context, text string) error {
	for _, r := range text {
		if err := e.device.InputText(ctx, string(r)); err != nil {
			return execErr(ErrCodeDeviceCommand, "type", err)
		}
	}
	return nil
}

// executeSwipeGesture serves both scroll and swipe. The direction names the
// way the viewport moves, so scrolling down drags the content upward.
func (e *ADBExecutor) executeSwipeGesture(ctx context.Context, plan schemas.ActionPlan) error {
	if err := e.ensureSize(ctx); err != nil {
		return err
	}
	midX, midY := e.width/2, e.height/2
	var x1, y1, x2, y2 int
	switch plan.Direction {
	case schemas.DirectionDown:
		x1, y1, x2, y2 = midX, e.height*7/10, midX, e.height*3/10
	case schemas.DirectionUp:
		x1, y1, x2, y2 = midX, e.height*3/10, midX, e.height*7/10
	case schemas.DirectionLeft:
		x1, y1, x2, y2 = e.width*7/10, midY, e.width*3/10, midY
	case schemas.DirectionRight:
		x1, y1, x2, y2 = e.width*3/10, midY, e.width*7/10, midY
	default:
		return execErr(ErrCodeInvalidParameters, string(plan.Kind), nil)
	}
	if err := e.device.Swipe(ctx, x1, y1, x2, y2, swipeDurationMs); err != nil {
		return execErr(ErrCodeDeviceCommand, string(plan.Kind), err)
	}
	return nil
}

func (e *ADBExecutor) executeWait(ctx context.Context, plan schemas.ActionPlan) error {
	d := time.Duration(plan.DurationSeconds * float64(time.Second))
	if d <= 0 {
		d = time.Duration(schemas.DefaultWaitSeconds * float64(time.Second))
	}
	return sleepCtx(ctx, d)
}

func (e *ADBExecutor) keyEventAction(code int) actionFunc {
	return func(ctx context.Context, plan schemas.ActionPlan) error {
		if err := e.device.KeyEvent(ctx, code); err != nil {
			return execErr(ErrCodeDeviceCommand, string(plan.Kind), err)
		}
		return nil
	}
}

func (e *ADBExecutor) executeLaunchApp(ctx context.Context, plan schemas.ActionPlan) error {
	if plan.Package == "" {
		return execErr(ErrCodeInvalidParameters, "launch-app", nil)
	}
	if err := e.device.StartApp(ctx, plan.Package); err != nil {
		return execErr(ErrCodeDeviceCommand, "launch-app", err)
	}
	return nil
}

// executeDone is a no-op; completion is the loop's decision, not an input
// event.
func (e *ADBExecutor) executeDone(context.Context, schemas.ActionPlan) error {
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return execErr(ErrCodeInterrupted, "wait", ctx.Err())
	case <-timer.C:
		return nil
	}
}
