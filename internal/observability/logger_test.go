// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/droidpilot/droidpilot/internal/config"
)

// memSyncer is an in-memory zapcore.WriteSyncer used to capture console output.
type memSyncer struct {
	bytes.Buffer
}

func (m *memSyncer) Sync() error { return nil }

func TestInitializeConsoleLoggerWithColors(t *testing.T) {
	ResetForTest()
	sink := &memSyncer{}

	cfg := config.LoggerConfig{
		Level:       "debug",
		Format:      "console",
		ServiceName: "TestService",
		Colors:      config.ColorConfig{Info: "green"},
	}
	Initialize(cfg, zapcore.Lock(sink))
	GetLogger().Info("This is a test message.")

	output := sink.String()
	assert.Contains(t, output, "INFO", "output should contain the log level")
	assert.Contains(t, output, "This is a test message.")
	assert.Contains(t, output, colorGreen, "info level should be colorized green")
	assert.Contains(t, output, colorReset)
	assert.Contains(t, output, "TestService.", "logger name should carry the dot suffix")
}

func TestInitializeJSONLogger(t *testing.T) {
	ResetForTest()
	sink := &memSyncer{}

	cfg := config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "json-service",
	}
	Initialize(cfg, zapcore.Lock(sink))
	GetLogger().Info("structured message")

	line := strings.TrimSpace(sink.String())
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "structured message", entry["msg"])
}

func TestInitializeIsIdempotent(t *testing.T) {
	ResetForTest()
	first := &memSyncer{}
	second := &memSyncer{}

	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.Lock(first))
	Initialize(config.LoggerConfig{Level: "debug", Format: "console"}, zapcore.Lock(second))

	GetLogger().Info("only once")
	assert.Contains(t, first.String(), "only once")
	assert.Empty(t, second.String(), "second Initialize must be a no-op")
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	sink := &memSyncer{}

	Initialize(config.LoggerConfig{Level: "shouting", Format: "json"}, zapcore.Lock(sink))
	GetLogger().Debug("should be suppressed")
	GetLogger().Info("should appear")

	output := sink.String()
	assert.NotContains(t, output, "should be suppressed")
	assert.Contains(t, output, "should appear")
}

func TestGetLoggerBeforeInitializeReturnsFallback(t *testing.T) {
	ResetForTest()
	logger := GetLogger()
	require.NotNil(t, logger)
}
