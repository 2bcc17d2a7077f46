package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	path := writeTempJSON(t, dir, "cfg.json", map[string]any{
		"database_dsn":       "postgres://x",
		"redis_addr":         "redis:6379",
		"jwt_secret":         "a",
		"jwt_refresh_secret": "b",
		"jwt_reset_secret":   "c",
		"access_token_ttl":   "1m",
		"refresh_token_ttl":  "48h",
		"otp_ttl":            "5m",
		"max_sessions":       3,
		"s3_bucket":          "avatars",
	})

	t.Run("loads from json and keeps defaults for absent keys", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "postgres://x", cfg.DatabaseDSN)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, "a", cfg.JWTSecret)
		assert.Equal(t, "b", cfg.JWTRefreshSecret)
		assert.Equal(t, "c", cfg.JWTResetSecret)
		assert.Equal(t, time.Minute, cfg.AccessTokenTTL)
		assert.Equal(t, 48*time.Hour, cfg.RefreshTokenTTL)
		assert.Equal(t, 5*time.Minute, cfg.OtpTTL)
		assert.Equal(t, 3, cfg.MaxSessions)
		assert.Equal(t, "avatars", cfg.S3Bucket)
		// not present in the file
		assert.Equal(t, 15*time.Minute, cfg.RegistrationTTL)
		assert.Equal(t, 10, cfg.BcryptCost)
	})

	t.Run("no config flag leaves values untouched", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{DatabaseDSN: "keep"}
		parseJson(cfg)

		assert.Equal(t, "keep", cfg.DatabaseDSN)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ nope`), 0o600))
		os.Args = []string{"testbin", "-config", bad}

		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
