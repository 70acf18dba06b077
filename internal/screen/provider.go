// File: internal/screen/provider.go

// Package screen produces normalized ScreenState snapshots from the device's
// uiautomator hierarchy dump. Snapshots are independent; the task loop
// captures a fresh one every iteration.
package screen

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/droidpilot/droidpilot/api/schemas"
	"github.com/droidpilot/droidpilot/internal/apps"
)

// Provider captures the current UI state of the device.
type Provider interface {
	// Capture returns a fresh snapshot of the visible UI.
	Capture(ctx context.Context) (*schemas.ScreenState, error)
	// Screenshot returns the screen as PNG bytes, for vision-model planning.
	Screenshot(ctx context.Context) ([]byte, error)
}

// DeviceSource is the slice of the adb client the provider needs.
type DeviceSource interface {
	DumpUIHierarchy(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	WindowSize(ctx context.Context) (width, height int, err error)
	CurrentFocus(ctx context.Context) (string, error)
}

// HierarchyProvider builds ScreenStates from uiautomator XML dumps. Captures
// are rate limited so a fast planner cannot hammer the device; the limiter
// blocks until the configured interval has elapsed since the last capture.
type HierarchyProvider struct {
	device  DeviceSource
	logger  *zap.Logger
	limiter *rate.Limiter

	// Cached screen dimensions; looked up once, refreshed only when a dump's
	// root bounds disagree.
	width  int
	height int
}

// NewHierarchyProvider creates a provider reading through the given device.
// A non-positive captureInterval disables throttling.
func NewHierarchyProvider(device DeviceSource, captureInterval time.Duration, logger *zap.Logger) *HierarchyProvider {
	limit := rate.Inf
	if captureInterval > 0 {
		limit = rate.Every(captureInterval)
	}
	return &HierarchyProvider{
		device:  device,
		logger:  logger.Named("screen"),
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Capture dumps the UI hierarchy and normalizes it into a ScreenState.
func (p *HierarchyProvider) Capture(ctx context.Context) (*schemas.ScreenState, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	xml, err := p.device.DumpUIHierarchy(ctx)
	if err != nil {
		return nil, fmt.Errorf("capturing screen state: %w", err)
	}

	state, err := p.parseHierarchy(ctx, xml)
	if err != nil {
		return nil, fmt.Errorf("parsing screen state: %w", err)
	}

	if state.ForegroundApp == "" {
		// The dump's package attribute is usually enough, but fall back to
		// the window manager when the root node carries none.
		if focus, ferr := p.device.CurrentFocus(ctx); ferr == nil && focus != "" {
			state.ForegroundApp = apps.FriendlyName(focus)
		}
	}

	p.logger.Debug("captured screen state",
		zap.Int("elements", len(state.Elements)),
		zap.String("foreground_app", state.ForegroundApp))
	return state, nil
}

// Screenshot captures the raw screen image, subject to the same throttle as
// hierarchy captures.
func (p *HierarchyProvider) Screenshot(ctx context.Context) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return p.device.Screenshot(ctx)
}

var boundsRegex = regexp.MustCompile(`\[(-?\d+),(-?\d+)\]\[(-?\d+),(-?\d+)\]`)

// parseBounds parses the "[left,top][right,bottom]" attribute format.
func parseBounds(raw string) (schemas.Bounds, bool) {
	m := boundsRegex.FindStringSubmatch(raw)
	if m == nil {
		return schemas.Bounds{}, false
	}
	atoi := func(s string) int {
		v, _ := strconv.Atoi(s)
		return v
	}
	return schemas.Bounds{
		Left:   atoi(m[1]),
		Top:    atoi(m[2]),
		Right:  atoi(m[3]),
		Bottom: atoi(m[4]),
	}, true
}

func (p *HierarchyProvider) parseHierarchy(ctx context.Context, xml string) (*schemas.ScreenState, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		return nil, fmt.Errorf("malformed hierarchy xml: %w", err)
	}

	root := doc.FindElement("//hierarchy")
	if root == nil {
		return nil, fmt.Errorf("document has no hierarchy element")
	}

	state := &schemas.ScreenState{CapturedAt: time.Now().UTC()}

	nodes := root.FindElements("//node")
	if len(nodes) > 0 {
		if pkg := nodes[0].SelectAttrValue("package", ""); pkg != "" {
			state.ForegroundApp = apps.FriendlyName(pkg)
		}
		if b, ok := parseBounds(nodes[0].SelectAttrValue("bounds", "")); ok {
			state.ScreenWidth = b.Right
			state.ScreenHeight = b.Bottom
		}
	}

	if state.ScreenWidth <= 0 || state.ScreenHeight <= 0 {
		w, h, err := p.device.WindowSize(ctx)
		if err != nil {
			return nil, fmt.Errorf("resolving screen dimensions: %w", err)
		}
		state.ScreenWidth, state.ScreenHeight = w, h
	}
	p.width, p.height = state.ScreenWidth, state.ScreenHeight

	var textParts []string
	for _, node := range nodes {
		el := schemas.UIElement{
			Text:        node.SelectAttrValue("text", ""),
			Description: node.SelectAttrValue("content-desc", ""),
			Class:       node.SelectAttrValue("class", ""),
			ResourceID:  node.SelectAttrValue("resource-id", ""),
			Clickable:   node.SelectAttrValue("clickable", "false") == "true",
		}

		bounds, ok := parseBounds(node.SelectAttrValue("bounds", ""))
		if !ok {
			continue
		}
		el.Bounds = bounds
		el.Center = bounds.Center()
		el.CenterPercent = toPercent(el.Center, state.ScreenWidth, state.ScreenHeight)

		// Keep the snapshot focused: skip pure-container nodes with nothing a
		// planner could target or read.
		if el.Text == "" && el.Description == "" && el.ResourceID == "" && !el.Clickable {
			continue
		}
		state.Elements = append(state.Elements, el)

		if el.Text != "" {
			textParts = append(textParts, el.Text)
		}
		if el.Description != "" && el.Description != el.Text {
			textParts = append(textParts, el.Description)
		}
	}
	state.FlattenedText = strings.Join(textParts, " ")

	return state, nil
}

// toPercent converts a pixel point into screen percentages clamped to [0,100].
func toPercent(pt schemas.Point, width, height int) schemas.PercentPoint {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 100 {
			return 100
		}
		return v
	}
	var pp schemas.PercentPoint
	if width > 0 {
		pp.X = clamp(float64(pt.X) / float64(width) * 100)
	}
	if height > 0 {
		pp.Y = clamp(float64(pt.Y) / float64(height) * 100)
	}
	return pp
}
