package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "")
	t.Setenv("REDIS_SNAPSHOT_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Redis.SnapshotTTL)
	assert.Equal(t, "0 9 * * *", cfg.Scheduler.DigestCron)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRY", "not-a-duration")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("AI_PROVIDER", "OpenAI")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiry)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "openai", cfg.AI.Provider)
}

func TestLoad_InvalidRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "x")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadCategorySeed(t *testing.T) {
	t.Run("embedded default", func(t *testing.T) {
		cats, err := LoadCategorySeed("")
		require.NoError(t, err)
		assert.Contains(t, cats, "Hotel")
		assert.NotContains(t, cats, "Other")
	})

	t.Run("file with duplicates", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cats.yaml")
		require.NoError(t, os.WriteFile(path, []byte("categories:\n  - Cafe\n  - cafe\n  - ' '\n  - Hotel\n"), 0o600))

		cats, err := LoadCategorySeed(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Cafe", "Hotel"}, cats)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCategorySeed(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
