// File: api/schemas/llm.go
package schemas

import "context"

// ModelTier selects which configured model handles a generation request.
// The fast tier is used for cheap text-only planning (task preflight); the
// vision tier handles screenshot analysis and the main planning calls.
type ModelTier string

const (
	TierFast   ModelTier = "fast"
	TierVision ModelTier = "vision"
)

// GenerationOptions tunes a single generation call.
type GenerationOptions struct {
	Temperature     float32
	ForceJSONFormat bool
	MaxTokens       int
}

// GenerationRequest is the provider-agnostic payload for one LLM call. When
// ImagePNG is non-nil the image is attached to the user turn; text-only
// providers must reject such requests rather than silently drop the image.
type GenerationRequest struct {
	SystemPrompt string
	UserPrompt   string
	ImagePNG     []byte
	Tier         ModelTier
	Options      GenerationOptions
}

// LLMClient is the minimal surface the planner needs from a language model
// provider. Implementations own their transport, retries, and timeouts.
type LLMClient interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}
