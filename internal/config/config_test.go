package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	t.Run("Applies defaults", func(t *testing.T) {
		conf := MustLoad(writeConfig(t, "log-level: debug\n"))

		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, "8080", conf.SocketPort)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, 24*time.Hour, conf.Redis.MatchTTL)
		assert.Empty(t, conf.NATS.URL)
	})

	t.Run("Reads the file", func(t *testing.T) {
		conf := MustLoad(writeConfig(t, `
redis:
  host: redis
  port: "6380"
  match-ttl: 30m
nats:
  url: nats://nats:4222
`))

		assert.Equal(t, "redis:6380", conf.Redis.GetRedisAddr())
		assert.Equal(t, 30*time.Minute, conf.Redis.MatchTTL)
		assert.Equal(t, "nats://nats:4222", conf.NATS.URL)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "7070")

		conf := MustLoad(writeConfig(t, "http-port: \"9999\"\n"))

		assert.Equal(t, "7070", conf.HTTPPort)
	})

	t.Run("Panics on a missing file", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "missing.yml"))
		})
	})
}
