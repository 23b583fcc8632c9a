// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Defaults come from New; Load layers an optional YAML file and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8000".
	Addr string `koanf:"addr"`

	// Timezone is the IANA zone all record timestamps are normalized to.
	Timezone string `koanf:"timezone"`

	// DatabaseURL selects PostgreSQL persistence when set; empty means
	// in-memory stores.
	DatabaseURL string `koanf:"database_url"`

	// RiskStrategy selects the classification strategy: fusion or delta.
	RiskStrategy string `koanf:"risk_strategy"`

	// HistoryLimit caps interactive history queries.
	HistoryLimit int `koanf:"history_limit"`

	// ExportLimit caps bulk CSV exports.
	ExportLimit int `koanf:"export_limit"`

	// WSQueueSize bounds each live subscriber's outbound queue.
	WSQueueSize int `koanf:"ws_queue_size"`

	// MQTTBroker enables the MQTT ingest bridge when set, e.g.
	// "tcp://localhost:1883".
	MQTTBroker string `koanf:"mqtt_broker"`

	// MQTTTopic is the telemetry topic the bridge subscribes to.
	MQTTTopic string `koanf:"mqtt_topic"`

	// MQTTClientID identifies the bridge to the broker.
	MQTTClientID string `koanf:"mqtt_client_id"`

	// ReadTimeoutSec and WriteTimeoutSec bound HTTP request handling.
	ReadTimeoutSec  int `koanf:"read_timeout_sec"`
	WriteTimeoutSec int `koanf:"write_timeout_sec"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8000",
		Timezone:        "Asia/Seoul",
		RiskStrategy:    "fusion",
		HistoryLimit:    200,
		ExportLimit:     10_000,
		WSQueueSize:     32,
		MQTTTopic:       "sensors/telemetry",
		MQTTClientID:    "sinker-ingest",
		ReadTimeoutSec:  10,
		WriteTimeoutSec: 30,
	}
}
