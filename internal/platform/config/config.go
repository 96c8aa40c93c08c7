package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs from the environment so main
// stays lean.
type Config struct {
	Addr          string
	JWTSigningKey string

	// BatchInterval drives the periodic matching pass. Zero disables the
	// background runner; batches can still be triggered over HTTP.
	BatchInterval time.Duration

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// PostgresConfig holds connection settings for the relational store. An empty
// URL keeps the service on in-memory stores.
type PostgresConfig struct {
	URL string
}

// RedisConfig holds connection settings for the statistics cache.
type RedisConfig struct {
	URL          string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the ledger outbox publisher. No brokers
// means ledger events stay in the local store only.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:          envOr("LIFELINK_ADDR", ":8080"),
		JWTSigningKey: envOr("LIFELINK_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		BatchInterval: envDuration("LIFELINK_BATCH_INTERVAL", 0),
		Postgres: PostgresConfig{
			URL: os.Getenv("LIFELINK_POSTGRES_URL"),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("LIFELINK_REDIS_URL"),
			DialTimeout:  envDuration("LIFELINK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("LIFELINK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("LIFELINK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: envOr("LIFELINK_LEDGER_TOPIC", "lifelink.ledger"),
		},
	}
	if brokers := os.Getenv("LIFELINK_KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
