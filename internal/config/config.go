// Package config loads service configuration from defaults, an optional YAML
// file and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	Spotify   SpotifyConfig   `koanf:"spotify"`
	Logging   LoggingConfig   `koanf:"logging"`
	HTTP      HTTPConfig      `koanf:"http"`
	Recommend RecommendConfig `koanf:"recommend"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// StorageConfig selects and tunes the ledger backend.
type StorageConfig struct {
	Driver        string        `koanf:"driver" validate:"oneof=file badger sqlite"`
	Path          string        `koanf:"path" validate:"required"`
	Timeout       time.Duration `koanf:"timeout" validate:"gt=0"`
	FlushInterval time.Duration `koanf:"flush_interval" validate:"gte=0"`
	Breaker       BreakerConfig `koanf:"breaker"`
	Retry         RetryConfig   `koanf:"retry"`
}

// BreakerConfig tunes the circuit breaker around the backend.
type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`
	OpenTimeout      time.Duration `koanf:"open_timeout" validate:"gt=0"`
}

// RetryConfig tunes the background flush pool.
type RetryConfig struct {
	Workers     int           `koanf:"workers" validate:"min=1"`
	QueueSize   int           `koanf:"queue_size" validate:"min=1"`
	Delay       time.Duration `koanf:"delay" validate:"gte=0"`
	MaxAttempts int           `koanf:"max_attempts" validate:"min=1,max=16"`
}

// SpotifyConfig configures the catalog client. The catalog is disabled when
// credentials are empty.
type SpotifyConfig struct {
	ClientID          string        `koanf:"client_id"`
	ClientSecret      string        `koanf:"client_secret" validate:"required_with=ClientID"`
	TokenURL          string        `koanf:"token_url" validate:"url"`
	BaseURL           string        `koanf:"base_url" validate:"url"`
	Market            string        `koanf:"market" validate:"len=2"`
	MaxRetries        int           `koanf:"max_retries" validate:"min=1"`
	RetryBackoff      time.Duration `koanf:"retry_backoff" validate:"gt=0"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gte=0"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`
}

// Enabled reports whether credentials are configured.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// LoggingConfig configures zerolog.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// HTTPConfig configures request middleware.
type HTTPConfig struct {
	RateLimitRequests int           `koanf:"rate_limit_requests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" validate:"gt=0"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// RecommendConfig tunes the sampler.
type RecommendConfig struct {
	// Seed fixes the random source. Zero seeds from the clock.
	Seed uint64 `koanf:"seed"`
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)

	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
