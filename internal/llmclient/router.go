// File: internal/llmclient/router.go
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/droidpilot/droidpilot/api/schemas"
)

// Router implements schemas.LLMClient and dispatches each request to the
// client configured for its tier.
type Router struct {
	logger  *zap.Logger
	clients map[schemas.ModelTier]schemas.LLMClient
}

// NewRouter creates a router with the specified clients for each tier.
func NewRouter(logger *zap.Logger, fast, vision schemas.LLMClient) (*Router, error) {
	if fast == nil || vision == nil {
		return nil, fmt.Errorf("both fast and vision tier clients must be provided")
	}
	return &Router{
		logger: logger.Named("llm_router"),
		clients: map[schemas.ModelTier]schemas.LLMClient{
			schemas.TierFast:   fast,
			schemas.TierVision: vision,
		},
	}, nil
}

// Generate selects the appropriate client based on the request's tier,
// defaulting to the vision tier when unspecified.
func (r *Router) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	tier := req.Tier
	if tier == "" {
		tier = schemas.TierVision
	}

	client, ok := r.clients[tier]
	if !ok {
		return "", fmt.Errorf("no LLM client configured for tier: %s", tier)
	}

	r.logger.Debug("routing LLM request", zap.String("tier", string(tier)))
	return client.Generate(ctx, req)
}
