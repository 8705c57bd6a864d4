// Package config loads process configuration from the environment,
// following the same env/dotenv convention across every cmd/ entrypoint.
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads configuration from environment variables and .env file,
// panicking if parsing fails. Intended for cmd/ main functions.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load()

	env.Must(cfg, env.Parse(cfg))
}

// Load loads configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load()

	return env.Parse(cfg)
}

// EngineConfig configures a MatchingEngine and its ingress fabric.
type EngineConfig struct {
	NumShards        int   `env:"NUM_SHARDS" envDefault:"4"`
	RingCapacity     int   `env:"RING_CAPACITY" envDefault:"1024"`
	NumProducers     int   `env:"NUM_PRODUCERS" envDefault:"2"`
	MailboxCapacity  int   `env:"MAILBOX_CAPACITY" envDefault:"1024"`
	MaxLevels        int   `env:"MAX_LEVELS" envDefault:"50"`
	MaxQty           int64 `env:"MAX_QTY" envDefault:"1000000"`
	MaxNotionalCents int64 `env:"MAX_NOTIONAL_CENTS" envDefault:"1000000000"`
}

// KafkaConfig configures the Kafka-backed feed source.
type KafkaConfig struct {
	Brokers []string `env:"BROKER,required" envSeparator:","`
	Topic   string   `env:"TOPIC,required"`
	GroupID string   `env:"GROUP_ID" envDefault:"default_group"`
}
