package config

import (
	"testing"
	"time"

	"github.com/DoyleJ11/card-battle-backend/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 500*time.Millisecond, cfg.AIActivateDelay)
	assert.Equal(t, 2*time.Second, cfg.AIThinkDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.ResolveDelay)
	assert.Equal(t, 2*time.Second, cfg.NextRoundDelay)
	assert.Equal(t, 30*time.Minute, cfg.RoomIdleTTL)
	assert.Equal(t, 5, cfg.HandSize)
	assert.False(t, cfg.ElementAbilities)
	assert.Equal(t, engine.DefaultDelays(), cfg.Delays())
	assert.Equal(t, engine.Rules{HandSize: 5}, cfg.Rules())
}

func TestParseOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "s3")
	t.Setenv("S3_BUCKET", "cards")
	t.Setenv("AI_THINK_DELAY", "0s")
	t.Setenv("ELEMENT_ABILITIES", "true")

	cfg, err := Parse()
	require.NoError(t, err)
	assert.Equal(t, BackendS3, cfg.StoreBackend)
	assert.Equal(t, "cards", cfg.S3.Bucket)
	assert.Equal(t, "card-battle", cfg.S3.Prefix)
	assert.Zero(t, cfg.AIThinkDelay)
	assert.True(t, cfg.ElementAbilities)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"STORE_BACKEND": "redis"}},
		{name: "postgres without url", env: map[string]string{"STORE_BACKEND": "postgres"}},
		{name: "s3 without bucket", env: map[string]string{"STORE_BACKEND": "s3"}},
		{name: "bad hand size", env: map[string]string{"HAND_SIZE": "0"}},
		{name: "negative delay", env: map[string]string{"RESOLVE_DELAY": "-1s"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Parse()
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	t.Run("unparseable duration", func(t *testing.T) {
		t.Setenv("AI_THINK_DELAY", "soon")
		_, err := Parse()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})
}
