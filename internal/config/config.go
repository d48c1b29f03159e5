package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration shared by the publisher and consumer.
type Config struct {
	// Kafka broker addresses
	Brokers []string
	// Topic carrying measurement events
	Topic string
	// Consumer group for admin notifications
	GroupID string
	// Address for the ops HTTP server (/health, /metrics, /stats)
	HTTPAddr string
	// Log level (debug, info, warn, error)
	LogLevel string
	// Optional YAML file with threshold rules; built-in defaults when empty
	RulesFile string

	Producer ProducerConfig
	Consumer ConsumerConfig
}

// ProducerConfig controls publish behavior.
type ProducerConfig struct {
	// Retries per publish before the error is surfaced
	MaxRetries int
	// Initial backoff between retries, doubled each attempt
	RetryBackoff time.Duration
	// Upper bound for the backoff
	MaxBackoff time.Duration
	// Per-attempt write timeout
	WriteTimeout time.Duration
}

// ConsumerConfig controls consume behavior.
type ConsumerConfig struct {
	// Reconnect attempts after a fatal reader error before giving up
	MaxReconnects int
	// Initial backoff between reconnects, doubled each attempt
	ReconnectBackoff time.Duration
	// Upper bound for the reconnect backoff
	MaxBackoff time.Duration
	MinBytes   int
	MaxBytes   int
}

// Default returns a sensible default config for local dev.
func Default() *Config {
	return &Config{
		Brokers:   []string{"localhost:9092"},
		Topic:     "water-quality-events",
		GroupID:   "admin-notifications",
		HTTPAddr:  ":8080",
		LogLevel:  "info",
		RulesFile: "",
		Producer: ProducerConfig{
			MaxRetries:   5,
			RetryBackoff: 500 * time.Millisecond,
			MaxBackoff:   30 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Consumer: ConsumerConfig{
			MaxReconnects:    10,
			ReconnectBackoff: time.Second,
			MaxBackoff:       time.Minute,
			MinBytes:         1,
			MaxBytes:         1 << 20, // 1MB
		},
	}
}

// FromEnv returns the default config overridden by environment variables.
func FromEnv() *Config {
	cfg := Default()

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Brokers = splitCSV(v)
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		cfg.Topic = v
	}
	if v := os.Getenv("KAFKA_GROUP_ID"); v != "" {
		cfg.GroupID = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RULES_FILE"); v != "" {
		cfg.RulesFile = v
	}
	if n, ok := envInt("PUBLISH_MAX_RETRIES"); ok {
		cfg.Producer.MaxRetries = n
	}
	if n, ok := envInt("CONSUMER_MAX_RECONNECTS"); ok {
		cfg.Consumer.MaxReconnects = n
	}

	return cfg
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
