// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger LoggerConfig `mapstructure:"logger" yaml:"logger"`
	Device DeviceConfig `mapstructure:"device" yaml:"device"`
	LLM    LLMConfig    `mapstructure:"llm" yaml:"llm"`
	Agent  AgentConfig  `mapstructure:"agent" yaml:"agent"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DeviceConfig controls how the ADB transport talks to the device.
type DeviceConfig struct {
	// Serial selects a device when several are attached. Empty means "the
	// only attached device".
	Serial string `mapstructure:"serial" yaml:"serial"`
	// ADBPath overrides the adb binary looked up on PATH.
	ADBPath string `mapstructure:"adb_path" yaml:"adb_path"`
	// CommandTimeout bounds every individual adb invocation.
	CommandTimeout time.Duration `mapstructure:"command_timeout" yaml:"command_timeout"`
	// CaptureInterval is the minimum spacing between UI state captures, so a
	// fast planner cannot hammer the device with dumps and screenshots.
	CaptureInterval time.Duration `mapstructure:"capture_interval" yaml:"capture_interval"`
}

// LLMModelConfig configures one model tier.
type LLMModelConfig struct {
	Model       string  `mapstructure:"model" yaml:"model"`
	MaxTokens   int     `mapstructure:"max_tokens" yaml:"max_tokens"`
	Temperature float32 `mapstructure:"temperature" yaml:"temperature"`
}

// LLMConfig configures the language model providers.
type LLMConfig struct {
	// Provider selects the transport: "openai" or "gemini".
	Provider   string         `mapstructure:"provider" yaml:"provider"`
	APIKey     string         `mapstructure:"api_key" yaml:"api_key"`
	Endpoint   string         `mapstructure:"endpoint" yaml:"endpoint"`
	APITimeout time.Duration  `mapstructure:"api_timeout" yaml:"api_timeout"`
	Fast       LLMModelConfig `mapstructure:"fast" yaml:"fast"`
	Vision     LLMModelConfig `mapstructure:"vision" yaml:"vision"`
}

// AgentConfig tunes the task loop controller.
type AgentConfig struct {
	// MaxIterations bounds the number of decide/act cycles per task.
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations"`
	// RepetitionThreshold is the number of consecutive equivalent proposals
	// after which the loop substitutes a break action.
	RepetitionThreshold int `mapstructure:"repetition_threshold" yaml:"repetition_threshold"`
	// MaxConsecutiveErrors aborts the run once this many iterations in a row
	// fail to observe or execute.
	MaxConsecutiveErrors int `mapstructure:"max_consecutive_errors" yaml:"max_consecutive_errors"`
	// HistorySize bounds the action history used for repetition detection.
	HistorySize int `mapstructure:"history_size" yaml:"history_size"`
	// InterActionDelay is the base settle delay after each executed action.
	InterActionDelay time.Duration `mapstructure:"inter_action_delay" yaml:"inter_action_delay"`
	// AdaptiveDelay scales the settle delay by action kind (longer after taps
	// and app launches, shorter after plain waits).
	AdaptiveDelay bool `mapstructure:"adaptive_delay" yaml:"adaptive_delay"`
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "droidpilot")
	v.SetDefault("logger.log_file", "droidpilot.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Device --
	v.SetDefault("device.serial", "")
	v.SetDefault("device.adb_path", "adb")
	v.SetDefault("device.command_timeout", "10s")
	v.SetDefault("device.capture_interval", "2s")

	// -- LLM --
	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.api_timeout", "90s")
	v.SetDefault("llm.fast.model", "gpt-4o-mini")
	v.SetDefault("llm.fast.max_tokens", 500)
	v.SetDefault("llm.fast.temperature", 0.0)
	v.SetDefault("llm.vision.model", "gpt-4o")
	v.SetDefault("llm.vision.max_tokens", 1000)
	v.SetDefault("llm.vision.temperature", 0.0)

	// -- Agent --
	v.SetDefault("agent.max_iterations", 15)
	v.SetDefault("agent.repetition_threshold", 3)
	v.SetDefault("agent.max_consecutive_errors", 3)
	v.SetDefault("agent.history_size", 5)
	v.SetDefault("agent.inter_action_delay", "1500ms")
	v.SetDefault("agent.adaptive_delay", true)
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	// Sensitive values come from the environment, never the config file.
	v.BindEnv("llm.api_key", "DROIDPILOT_LLM_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unknown llm provider %q (supported: openai, gemini)", c.LLM.Provider)
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations)
	}
	if c.Agent.RepetitionThreshold <= 0 {
		return fmt.Errorf("agent.repetition_threshold must be positive, got %d", c.Agent.RepetitionThreshold)
	}
	if c.Agent.MaxConsecutiveErrors <= 0 {
		return fmt.Errorf("agent.max_consecutive_errors must be positive, got %d", c.Agent.MaxConsecutiveErrors)
	}
	if c.Agent.HistorySize <= 0 {
		return fmt.Errorf("agent.history_size must be positive, got %d", c.Agent.HistorySize)
	}
	if c.Device.CommandTimeout <= 0 {
		return fmt.Errorf("device.command_timeout must be positive, got %s", c.Device.CommandTimeout)
	}
	return nil
}
