package cfg

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	HTTP     HTTP     `envPrefix:"HTTP_"`
	Database Database `envPrefix:"DB_"`
	Redis    Redis    `envPrefix:"REDIS_"`
	Kafka    Kafka    `envPrefix:"KAFKA_"`
	Logger   Logger   `envPrefix:"LOG_"`
}

type HTTP struct {
	Address        string `env:"ADDRESS" envDefault:":8080"`
	AllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	MaxBodySize    int64  `env:"MAX_BODY_SIZE" envDefault:"1048576"`
}

type Database struct {
	Driver       string `env:"DRIVER" envDefault:"sqlite"`
	DSN          string `env:"DSN" envDefault:"tasks.db"`
	Host         string `env:"HOST" envDefault:"localhost"`
	Port         string `env:"PORT" envDefault:"5432"`
	User         string `env:"USER"`
	Password     string `env:"PASSWORD"`
	Name         string `env:"NAME"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS" envDefault:"20"`
	MaxIdleConns int    `env:"MAX_IDLE_CONNS" envDefault:"5"`
}

// PostgresDSN assembles a DSN from the discrete connection settings.
func (d Database) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		d.Host,
		d.Port,
		d.User,
		d.Password,
		d.Name,
	)
}

// Redis is optional; an empty Addr disables the task cache.
type Redis struct {
	Addr     string        `env:"ADDR"`
	Password string        `env:"PASSWORD"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"5m"`
}

// Kafka is optional; empty Brokers disable event publishing.
type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"task-events"`
	GroupID string   `env:"GROUP_ID" envDefault:"task-notifier"`
}

type Logger struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// SlogLevel converts the configured level name to a slog.Level.
func (l Logger) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Parse loads .env when present, then reads the TASKAPI_-prefixed
// environment into a Config.
func Parse() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env not found, using environment variables")
	}

	conf, err := env.ParseAsWithOptions[Config](env.Options{
		Prefix: "TASKAPI_",
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &conf, nil
}
