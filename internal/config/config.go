package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Game      Game      `yaml:"game"`
	WebSocket WebSocket `yaml:"websocket"`
	Redis     Redis     `yaml:"redis"`
	NATS      NATS      `yaml:"nats"`
}

type Game struct {
	GracePeriod    time.Duration `yaml:"grace-period" env:"GAME_GRACE_PERIOD" env-default:"10s"`
	OpponentDelay  time.Duration `yaml:"opponent-delay" env:"GAME_OPPONENT_DELAY" env-default:"500ms"`
	MaxBoardSize   int           `yaml:"max-board-size" env:"GAME_MAX_BOARD_SIZE" env-default:"30"`
	RoomCodeLength int           `yaml:"room-code-length" env:"GAME_ROOM_CODE_LENGTH" env-default:"6"`
	// Seed 0 seeds from the clock.
	Seed uint64 `yaml:"seed" env:"GAME_SEED" env-default:"0"`
}

type WebSocket struct {
	AllowedOrigins  []string      `yaml:"allowed-origins" env:"WS_ALLOWED_ORIGINS" env-default:"*"`
	ReadBufferSize  int           `yaml:"read-buffer-size" env-default:"1024"`
	WriteBufferSize int           `yaml:"write-buffer-size" env-default:"1024"`
	PingPeriod      time.Duration `yaml:"ping-period" env-default:"54s"`
	PongWait        time.Duration `yaml:"pong-wait" env-default:"60s"`
	WriteWait       time.Duration `yaml:"write-wait" env-default:"10s"`
	MaxMessageSize  int64         `yaml:"max-message-size" env-default:"4096"`
	SendBuffer      int           `yaml:"send-buffer" env-default:"64"`
}

type Redis struct {
	Enabled     bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host        string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port        string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	SnapshotTTL time.Duration `yaml:"snapshot-ttl" env-default:"1h"`
}

type NATS struct {
	Enabled       bool   `yaml:"enabled" env:"NATS_ENABLED" env-default:"false"`
	URL           string `yaml:"url" env:"NATS_URL" env-default:"nats://localhost:4222"`
	SubjectPrefix string `yaml:"subject-prefix" env-default:"connectn.rooms"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// Level maps log-level to a slog level. Unknown values log at info.
func (that *Config) Level() slog.Level {
	switch that.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
