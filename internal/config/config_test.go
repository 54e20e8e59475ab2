package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestMustLoad(t *testing.T) {
	t.Run("Defaults fill what the file leaves out", func(t *testing.T) {
		// Given: a file that only sets the port
		path := writeConfig(t, "http-port: \"8080\"\n")

		// When: loading it
		conf := MustLoad(path)

		// Then: everything else has its default
		assert.Equal(t, "8080", conf.HTTPPort)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, 10*time.Second, conf.Game.GracePeriod)
		assert.Equal(t, 500*time.Millisecond, conf.Game.OpponentDelay)
		assert.Equal(t, 30, conf.Game.MaxBoardSize)
		assert.Equal(t, 6, conf.Game.RoomCodeLength)
		assert.Equal(t, []string{"*"}, conf.WebSocket.AllowedOrigins)
		assert.False(t, conf.Redis.Enabled)
		assert.Equal(t, "localhost:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, "connectn.rooms", conf.NATS.SubjectPrefix)
	})

	t.Run("Environment overrides the file", func(t *testing.T) {
		// Given: a file and an environment variable for the same key
		path := writeConfig(t, "game:\n  grace-period: 20s\n")
		t.Setenv("GAME_GRACE_PERIOD", "3s")

		// When: loading
		conf := MustLoad(path)

		// Then: the environment wins
		assert.Equal(t, 3*time.Second, conf.Game.GracePeriod)
	})

	t.Run("A missing file panics", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "absent.yml"))
		})
	})
}

func TestConfig_Level(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}

	for raw, want := range tests {
		conf := Config{LogLevel: raw}
		assert.Equal(t, want, conf.Level(), raw)
	}
}
