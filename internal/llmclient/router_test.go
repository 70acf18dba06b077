// File: internal/llmclient/router_test.go
package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/droidpilot/droidpilot/api/schemas"
)

// stubClient records the last request it served and returns a fixed reply.
type stubClient struct {
	reply string
	last  *schemas.GenerationRequest
}

func (s *stubClient) Generate(_ context.Context, req schemas.GenerationRequest) (string, error) {
	s.last = &req
	return s.reply, nil
}

func TestRouterDispatchesByTier(t *testing.T) {
	fast := &stubClient{reply: "fast-reply"}
	vision := &stubClient{reply: "vision-reply"}
	router, err := NewRouter(zap.NewNop(), fast, vision)
	require.NoError(t, err)

	out, err := router.Generate(context.Background(), schemas.GenerationRequest{Tier: schemas.TierFast})
	require.NoError(t, err)
	assert.Equal(t, "fast-reply", out)
	assert.NotNil(t, fast.last)
	assert.Nil(t, vision.last)

	out, err = router.Generate(context.Background(), schemas.GenerationRequest{Tier: schemas.TierVision})
	require.NoError(t, err)
	assert.Equal(t, "vision-reply", out)
}

func TestRouterDefaultsToVision(t *testing.T) {
	fast := &stubClient{reply: "fast-reply"}
	vision := &stubClient{reply: "vision-reply"}
	router, err := NewRouter(zap.NewNop(), fast, vision)
	require.NoError(t, err)

	out, err := router.Generate(context.Background(), schemas.GenerationRequest{})
	require.NoError(t, err)
	assert.Equal(t, "vision-reply", out)
}

func TestRouterRejectsNilClients(t *testing.T) {
	_, err := NewRouter(zap.NewNop(), nil, &stubClient{})
	assert.Error(t, err)
	_, err = NewRouter(zap.NewNop(), &stubClient{}, nil)
	assert.Error(t, err)
}

func TestRouterUnknownTier(t *testing.T) {
	router, err := NewRouter(zap.NewNop(), &stubClient{}, &stubClient{})
	require.NoError(t, err)

	_, err = router.Generate(context.Background(), schemas.GenerationRequest{Tier: "quantum"})
	assert.Error(t, err)
}
