package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/amp-labs/lottie-interactivity/build"
	"github.com/amp-labs/lottie-interactivity/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigFrom(t *testing.T) {
	t.Parallel()

	cfg := ConfigFrom(config.Config{
		App:          "lottie-sm",
		OTelEnabled:  true,
		OTelEndpoint: "http://collector:4318",
	})

	assert.Equal(t, "lottie-sm", cfg.ServiceName)
	assert.Equal(t, build.Read().Version, cfg.ServiceVersion)
	assert.Equal(t, "http://collector:4318", cfg.Endpoint)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, defaultTimeout, cfg.Timeout)
}

func TestInitializeDisabled(t *testing.T) { //nolint:paralleltest // touches package state
	handler, err := Initialize(t.Context(), Config{Enabled: false})
	require.NoError(t, err)
	assert.Nil(t, handler)

	handler, err = Initialize(t.Context(), Config{Enabled: true})
	require.NoError(t, err)
	assert.Nil(t, handler)

	require.NoError(t, Shutdown(t.Context()))
}

func TestInitializeAndShutdown(t *testing.T) { //nolint:paralleltest // sets global providers
	handler, err := Initialize(t.Context(), Config{
		ServiceName:    "lottie-test",
		ServiceVersion: "test",
		Endpoint:       "http://127.0.0.1:4318",
		Enabled:        true,
		Timeout:        100 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NotNil(t, handler)

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()

	// Nothing was recorded, so shutdown has nothing to flush.
	require.NoError(t, Shutdown(ctx))
	require.NoError(t, Shutdown(ctx))
}
