package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all runtime configuration for the monitor service.
type Config struct {
	MQTTBroker   string
	MQTTClientID string
	MQTTUsername string
	MQTTPassword string

	CouchbaseURL      string
	CouchbaseUsername string
	CouchbasePassword string
	CouchbaseBucket   string

	APIPort          string
	ElasticsearchURL string
	LogLevel         string

	// Realtime delivery cadence for viewer sessions.
	RealtimeTick time.Duration
	// Upper bound on a session's unread waveform queue before oldest
	// samples are dropped.
	MaxQueueLen int
	// Sessions that have not polled within this window are expired by
	// housekeeping.
	SessionIdleTTL time.Duration
}

// Load reads .env (when present) and builds a Config from the environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables or default values")
	}

	return &Config{
		MQTTBroker:   getEnv("MQTT_BROKER_URL", "tcp://127.0.0.1:1883"),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "medkit-monitor"),
		MQTTUsername: getEnv("MQTT_USERNAME", ""),
		MQTTPassword: getEnv("MQTT_PASSWORD", ""),

		CouchbaseURL:      getEnv("COUCHBASE_URL", "couchbase://127.0.0.1"),
		CouchbaseUsername: getEnv("COUCHBASE_USERNAME", "Administrator"),
		CouchbasePassword: getEnv("COUCHBASE_PASSWORD", "password"),
		CouchbaseBucket:   getEnv("COUCHBASE_BUCKET", "medkit"),

		APIPort:          getEnv("API_PORT", "8080"),
		ElasticsearchURL: getEnv("ELASTICSEARCH_URL", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),

		RealtimeTick:   getEnvDuration("REALTIME_TICK", 500*time.Millisecond),
		MaxQueueLen:    getEnvInt("MAX_QUEUE_LEN", 10000),
		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 5*time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(value); err == nil && n > 0 {
			return n
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid integer value, using default")
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Invalid duration value, using default")
	}
	return fallback
}
