package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("MONGODB_DB_NAME", "stockbook_test")
	t.Setenv("API_TOKENS", "tok-a:owner-a, tok-b:owner-b")
	t.Setenv("SALE_WEBHOOK_URL", "")
	t.Setenv("AUDIT_CRON_SCHEDULE", "")
	t.Setenv("TIMEZONE", "")

	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "9090", cfg.Server.Port)
	require.Equal(t, "mongodb://db:27017", cfg.MongoDB.URI)
	require.Equal(t, "stockbook_test", cfg.MongoDB.DBName)
	require.Equal(t, map[string]string{"tok-a": "owner-a", "tok-b": "owner-b"}, cfg.Auth.Tokens)
	require.Equal(t, "0 2 * * *", cfg.Audit.CronSchedule)
}

func TestLoadRequiresTokens(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("API_TOKENS", "")

	_, err := Load("")
	require.Error(t, err)
	require.Contains(t, err.Error(), "API_TOKENS")
}

func TestParseTokenPairs(t *testing.T) {
	tokens, err := parseTokenPairs("a:1,b:2")
	require.NoError(t, err)
	require.Len(t, tokens, 2)

	_, err = parseTokenPairs("missing-separator")
	require.Error(t, err)

	_, err = parseTokenPairs(":owner")
	require.Error(t, err)

	tokens, err = parseTokenPairs("  ")
	require.NoError(t, err)
	require.Empty(t, tokens)
}
