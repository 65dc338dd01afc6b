package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	appenv "github.com/du-phan/resilio/internal/env"
)

type Config struct {
	Env             appenv.Environment `env:"ENV" envDefault:"development"`
	Port            string             `env:"PORT" envDefault:"8080"`
	CalibrationFile string             `env:"CALIBRATION_FILE"`
	Database        Database           `envPrefix:"DATABASE_"`
	Redis           Redis              `envPrefix:"REDIS_"`
	Kafka           Kafka              `envPrefix:"KAFKA_"`
	Schedule        Schedule           `envPrefix:"SCHEDULE_"`
	RateLimit       RateLimit          `envPrefix:"RATE_"`
}

type Database struct {
	// URL selects Postgres; when empty the SQLite file at Path is used.
	URL  string `env:"URL"`
	Path string `env:"PATH"`
}

type Redis struct {
	URL     string        `env:"URL"`
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"30s"`
}

type Kafka struct {
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"activity.ingested"`
	GroupID string   `env:"GROUP_ID" envDefault:"resilio"`
}

type Schedule struct {
	// RollForward is a six-field cron spec (seconds first).
	RollForward string `env:"ROLL_FORWARD" envDefault:"0 5 0 * * *"`
	Parallelism int    `env:"PARALLELISM" envDefault:"4"`
}

type RateLimit struct {
	Limit float64 `env:"LIMIT" envDefault:"10"`
	Burst int     `env:"BURST" envDefault:"20"`
}

func (k Kafka) Enabled() bool { return len(k.Brokers) > 0 }

func Read() (Config, error) {
	return env.ParseAs[Config]()
}
