package metrics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetInitializesOnce(t *testing.T) {
	first := Get()
	require.NotNil(t, first)
	assert.Same(t, first, Get())
	assert.NotNil(t, first.RouteGenerationRequestsTotal)
	assert.NotNil(t, first.ProviderFallbackTotal)

	assert.NotPanics(t, func() {
		ProviderFallback(context.Background(), "openrouteservice")
		RouteRejected(context.Background(), "ECONOMIC")
	})
}
