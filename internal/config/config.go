package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/sounding-etl/internal/domain"
)

// Config holds all tool settings, populated from environment variables.
// Command-line flags override OutputDir and Separator after Load.
type Config struct {
	LogLevel  string
	LogFormat string

	// Archive endpoint.
	BaseURL         string
	Region          string
	HTTPTimeout     time.Duration
	RequestInterval time.Duration

	OutputDir string
	Separator domain.Separator

	// Optional sinks. Empty values disable them.
	KafkaBrokers []string
	KafkaTopic   string
	S3Bucket     string
	S3Prefix     string

	MetricsFile string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	httpTimeout, err := parsePositiveDuration("HTTP_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	interval, err := time.ParseDuration(sharedcfg.EnvOrDefault("REQUEST_INTERVAL", "0s"))
	if err != nil || interval < 0 {
		return nil, errors.New("invalid REQUEST_INTERVAL")
	}

	sep, err := domain.ParseSeparator(sharedcfg.EnvOrDefault("OUTPUT_SEP", string(domain.SeparatorComma)))
	if err != nil {
		return nil, fmt.Errorf("invalid OUTPUT_SEP: %w", err)
	}

	cfg := &Config{
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
		BaseURL:         sharedcfg.EnvOrDefault("UWYO_BASE_URL", "http://weather.uwyo.edu/cgi-bin/sounding"),
		Region:          sharedcfg.EnvOrDefault("UWYO_REGION", "europe"),
		HTTPTimeout:     httpTimeout,
		RequestInterval: interval,
		OutputDir:       sharedcfg.EnvOrDefault("OUTPUT_DIR", "radiosoundings"),
		Separator:       sep,
		KafkaBrokers:    sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", "radiosoundings"),
		S3Bucket:        strings.TrimSpace(os.Getenv("S3_BUCKET")),
		S3Prefix:        strings.Trim(strings.TrimSpace(os.Getenv("S3_PREFIX")), "/"),
		MetricsFile:     strings.TrimSpace(os.Getenv("METRICS_FILE")),
	}

	switch cfg.LogFormat {
	case "text", "json":
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q (allowed: text, json)", cfg.LogFormat)
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("UWYO_BASE_URL is required")
	}
	if cfg.KafkaEnabled() && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether extracted soundings are published to Kafka.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// S3Enabled reports whether output files are uploaded to S3.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
