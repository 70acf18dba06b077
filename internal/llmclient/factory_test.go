// File: internal/llmclient/factory_test.go
package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClientProviderSwitch(t *testing.T) {
	base := openaiTestConfig("")

	t.Run("openai", func(t *testing.T) {
		cfg := base
		cfg.Provider = "openai"
		client, err := NewClient(cfg, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &Router{}, client)
	})

	t.Run("gemini", func(t *testing.T) {
		cfg := base
		cfg.Provider = "gemini"
		client, err := NewClient(cfg, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &Router{}, client)
	})

	t.Run("unknown", func(t *testing.T) {
		cfg := base
		cfg.Provider = "llama-on-a-toaster"
		_, err := NewClient(cfg, zap.NewNop())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown or unsupported")
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := base
		cfg.APIKey = ""
		_, err := NewClient(cfg, zap.NewNop())
		assert.Error(t, err)
	})
}
