package api

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-procurement-api/internal/platform/publishers"
)

// Event backends selectable through EVENTS_BACKEND.
const (
	EventsBackendLog   = "log"
	EventsBackendRedis = "redis"
	EventsBackendSQS   = "sqs"
)

// Config carries environment-driven settings for the API, worker and CLI processes.
type Config struct {
	Port              string `mapstructure:"PORT"`
	PostgresDSN       string `mapstructure:"POSTGRES_DSN"`
	TemporalAddress   string `mapstructure:"TEMPORAL_ADDRESS"`
	TemporalNamespace string `mapstructure:"TEMPORAL_NAMESPACE"`
	TemporalDisabled  bool   `mapstructure:"TEMPORAL_DISABLED"`
	EventsBackend     string `mapstructure:"EVENTS_BACKEND"`
	RedisAddr         string `mapstructure:"REDIS_ADDR"`
	RedisPassword     string `mapstructure:"REDIS_PASSWORD"`
	RedisDB           int    `mapstructure:"REDIS_DB"`
	RedisChannel      string `mapstructure:"REDIS_CHANNEL"`
	SQSQueueURL       string `mapstructure:"SQS_QUEUE_URL"`
	AWSRegion         string `mapstructure:"AWS_REGION"`
	ReconcileCron     string `mapstructure:"RECONCILE_CRON"`
}

var configKeys = []string{
	"PORT", "POSTGRES_DSN",
	"TEMPORAL_ADDRESS", "TEMPORAL_NAMESPACE", "TEMPORAL_DISABLED",
	"EVENTS_BACKEND", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB", "REDIS_CHANNEL",
	"SQS_QUEUE_URL", "AWS_REGION", "RECONCILE_CRON",
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	v := viper.New()
	v.SetDefault("PORT", "8080")
	v.SetDefault("TEMPORAL_ADDRESS", client.DefaultHostPort)
	v.SetDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace)
	v.SetDefault("TEMPORAL_DISABLED", false)
	v.SetDefault("EVENTS_BACKEND", EventsBackendLog)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_CHANNEL", publishers.DefaultRedisChannel)
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("RECONCILE_CRON", "*/30 * * * *")
	v.AutomaticEnv()
	// AutomaticEnv only applies to keys viper already knows about when unmarshalling.
	for _, key := range configKeys {
		if err := v.BindEnv(key); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode configuration: %w", err)
	}
	cfg.PostgresDSN = strings.TrimSpace(cfg.PostgresDSN)
	cfg.EventsBackend = strings.ToLower(strings.TrimSpace(cfg.EventsBackend))
	cfg.ReconcileCron = strings.TrimSpace(cfg.ReconcileCron)

	switch cfg.EventsBackend {
	case EventsBackendLog, EventsBackendRedis:
	case EventsBackendSQS:
		if strings.TrimSpace(cfg.SQSQueueURL) == "" {
			return Config{}, fmt.Errorf("SQS_QUEUE_URL is required when EVENTS_BACKEND=sqs")
		}
	default:
		return Config{}, fmt.Errorf("EVENTS_BACKEND must be one of log, redis, sqs; got %q", cfg.EventsBackend)
	}
	if cfg.RedisDB < 0 {
		return Config{}, fmt.Errorf("REDIS_DB must not be negative")
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
