package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MESSENGER_APP_SECRET", "secret")
	t.Setenv("MESSENGER_VALIDATION_TOKEN", "verify")
	t.Setenv("MESSENGER_PAGE_ACCESS_TOKEN", "page-token")
}

func TestLoad(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/sac")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret", cfg.AppSecret)
	assert.Equal(t, "verify", cfg.VerifyToken)
	assert.Equal(t, "page-token", cfg.PageAccessToken)
	assert.Equal(t, "postgres://localhost/sac", cfg.DatabaseURL)
	assert.Equal(t, "9090", cfg.Port)
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("GRAPH_API_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "https://graph.facebook.com/v2.6", cfg.GraphAPIURL)
}

func TestLoad_MissingCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MESSENGER_APP_SECRET", "")
	t.Setenv("MESSENGER_PAGE_ACCESS_TOKEN", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MESSENGER_APP_SECRET")
	assert.Contains(t, err.Error(), "MESSENGER_PAGE_ACCESS_TOKEN")
	assert.NotContains(t, err.Error(), "MESSENGER_VALIDATION_TOKEN")
}
