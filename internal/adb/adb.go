// File: internal/adb/adb.go
package adb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/droidpilot/droidpilot/internal/config"
)

// Android key event codes used by the executor.
const (
	KeycodeHome  = 3
	KeycodeBack  = 4
	KeycodeEnter = 66
)

// Runner executes an external command and returns its stdout. It exists so
// tests can substitute a fake without shelling out to a real adb binary.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner is the production Runner backed by os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return stdout.Bytes(), fmt.Errorf("%s timed out", name)
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return stdout.Bytes(), fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), msg)
	}
	return stdout.Bytes(), nil
}

// Device is one entry of `adb devices`.
type Device struct {
	Serial string
	State  string
}

// Client wraps the adb CLI for a single device. All calls are bounded by the
// configured per-command timeout on top of whatever deadline the caller's
// context already carries.
type Client struct {
	cfg    config.DeviceConfig
	runner Runner
	logger *zap.Logger
}

// NewClient creates an adb client for the configured device.
func NewClient(cfg config.DeviceConfig, logger *zap.Logger) *Client {
	return newClient(cfg, execRunner{}, logger)
}

func newClient(cfg config.DeviceConfig, runner Runner, logger *zap.Logger) *Client {
	if cfg.ADBPath == "" {
		cfg.ADBPath = "adb"
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		runner: runner,
		logger: logger.Named("adb"),
	}
}

// SetSerial binds the client to a device discovered after construction.
// Must not be called concurrently with commands.
func (c *Client) SetSerial(serial string) {
	c.cfg.Serial = serial
}

// run executes adb with the device selector prefix applied.
func (c *Client) run(ctx context.Context, args ...string) ([]byte, error) {
	full := args
	if c.cfg.Serial != "" {
		full = append([]string{"-s", c.cfg.Serial}, args...)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.CommandTimeout)
	defer cancel()

	c.logger.Debug("exec adb", zap.Strings("args", full))
	return c.runner.Run(ctx, c.cfg.ADBPath, full...)
}

func (c *Client) shell(ctx context.Context, args ...string) (string, error) {
	out, err := c.run(ctx, append([]string{"shell"}, args...)...)
	return string(out), err
}

// Devices lists attached devices, skipping the header line.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	out, err := c.run(ctx, "devices")
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}

	var devices []Device
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of devices") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, Device{Serial: fields[0], State: fields[1]})
	}
	return devices, nil
}

var windowSizeRegex = regexp.MustCompile(`(\d+)x(\d+)`)

// WindowSize returns the device screen dimensions in pixels, preferring the
// override size when one is set.
func (c *Client) WindowSize(ctx context.Context) (width, height int, err error) {
	out, err := c.shell(ctx, "wm", "size")
	if err != nil {
		return 0, 0, fmt.Errorf("querying window size: %w", err)
	}

	// `wm size` prints "Physical size: WxH" and optionally an override line;
	// the last match wins.
	matches := windowSizeRegex.FindAllStringSubmatch(out, -1)
	if len(matches) == 0 {
		return 0, 0, fmt.Errorf("unparseable wm size output: %q", strings.TrimSpace(out))
	}
	last := matches[len(matches)-1]
	width, _ = strconv.Atoi(last[1])
	height, _ = strconv.Atoi(last[2])
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid window size %dx%d", width, height)
	}
	return width, height, nil
}

// Screenshot captures the screen as a PNG via exec-out, which keeps the image
// bytes off the shell's tty mangling.
func (c *Client) Screenshot(ctx context.Context) ([]byte, error) {
	out, err := c.run(ctx, "exec-out", "screencap", "-p")
	if err != nil {
		return nil, fmt.Errorf("capturing screenshot: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("screencap produced no output")
	}
	return out, nil
}

const hierarchyDumpPath = "/sdcard/window_dump.xml"

// DumpUIHierarchy writes the uiautomator XML dump on the device and reads it
// back. The dump tool is flaky on some OEM builds; callers treat an error as
// an ObservationFailure and retry on the next loop iteration.
func (c *Client) DumpUIHierarchy(ctx context.Context) (string, error) {
	if _, err := c.shell(ctx, "uiautomator", "dump", hierarchyDumpPath); err != nil {
		return "", fmt.Errorf("dumping ui hierarchy: %w", err)
	}
	out, err := c.shell(ctx, "cat", hierarchyDumpPath)
	if err != nil {
		return "", fmt.Errorf("reading ui hierarchy dump: %w", err)
	}
	if !strings.Contains(out, "<hierarchy") {
		return "", fmt.Errorf("dump did not produce a hierarchy document: %q", truncate(out, 120))
	}
	return out, nil
}

// Tap sends a tap at the given pixel coordinates.
func (c *Client) Tap(ctx context.Context, x, y int) error {
	_, err := c.shell(ctx, "input", "tap", strconv.Itoa(x), strconv.Itoa(y))
	if err != nil {
		return fmt.Errorf("tap at (%d,%d): %w", x, y, err)
	}
	return nil
}

// Swipe performs a swipe gesture between two pixel points over durMs milliseconds.
func (c *Client) Swipe(ctx context.Context, x1, y1, x2, y2, durMs int) error {
	_, err := c.shell(ctx, "input", "swipe",
		strconv.Itoa(x1), strconv.Itoa(y1), strconv.Itoa(x2), strconv.Itoa(y2), strconv.Itoa(durMs))
	if err != nil {
		return fmt.Errorf("swipe (%d,%d)->(%d,%d): %w", x1, y1, x2, y2, err)
	}
	return nil
}

// InputText types text into the currently focused field. `input text` treats
// spaces and shell metacharacters specially, so the payload is escaped
// character by character.
func (c *Client) InputText(ctx context.Context, text string) error {
	_, err := c.shell(ctx, "input", "text", escapeShellText(text))
	if err != nil {
		return fmt.Errorf("typing text: %w", err)
	}
	return nil
}

// KeyEvent sends a raw Android key event code.
func (c *Client) KeyEvent(ctx context.Context, code int) error {
	_, err := c.shell(ctx, "input", "keyevent", strconv.Itoa(code))
	if err != nil {
		return fmt.Errorf("keyevent %d: %w", code, err)
	}
	return nil
}

// StartApp launches an application's main launcher activity by package name.
func (c *Client) StartApp(ctx context.Context, pkg string) error {
	if pkg == "" {
		return errors.New("empty package name")
	}
	_, err := c.shell(ctx, "monkey", "-p", pkg, "-c", "android.intent.category.LAUNCHER", "1")
	if err != nil {
		return fmt.Errorf("starting app %s: %w", pkg, err)
	}
	return nil
}

var currentFocusRegex = regexp.MustCompile(`mCurrentFocus=.*\s([\w.]+)/`)

// CurrentFocus best-effort resolves the package name of the foreground window.
// Returns an empty string when the window manager output has no focus line.
func (c *Client) CurrentFocus(ctx context.Context) (string, error) {
	out, err := c.shell(ctx, "dumpsys", "window", "windows")
	if err != nil {
		return "", fmt.Errorf("querying current focus: %w", err)
	}
	m := currentFocusRegex.FindStringSubmatch(out)
	if m == nil {
		return "", nil
	}
	return m[1], nil
}

// escapeShellText prepares text for `adb shell input text`: spaces become %s
// and characters the remote shell would interpret are backslash-escaped.
func escapeShellText(text string) string {
	var b strings.Builder
	for _, r := range text {
		switch r {
		case ' ':
			b.WriteString("%s")
		case '\'', '"', '`', '\\', '$', '&', '|', ';', '(', ')', '<', '>', '*', '~':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
