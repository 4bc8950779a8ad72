package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "chat-api", cfg.ServiceName)
	assert.Equal(t, ":8084", cfg.Addr())
	assert.Equal(t, 5, cfg.MaxToolIterations)
	assert.Equal(t, 50, cfg.MaxHistoryMessages)
	assert.Equal(t, 32000, cfg.MaxContextChars())
	assert.Equal(t, 3, cfg.BreakerFailureThreshold)
}

func TestLoadRequiresAuthFields(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "true")
	t.Setenv("AUTH_ISSUER", "")
	t.Setenv("AUTH_JWKS_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadClampsBadValues(t *testing.T) {
	t.Setenv("MAX_TOOL_ITERATIONS", "-1")
	t.Setenv("CHARS_PER_TOKEN", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.MaxToolIterations)
	assert.Equal(t, 4, cfg.CharsPerToken)
}
