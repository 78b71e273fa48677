package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the complete gateway configuration.
type Config struct {
	Port       string           `mapstructure:"port"`
	ML         MLConfig         `mapstructure:"ml"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	DB         DBConfig         `mapstructure:"db"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Auth       AuthConfig       `mapstructure:"auth"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	CORS       CORSConfig       `mapstructure:"cors"`
}

// MLConfig points at the Python ML service.
type MLConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"` // idempotent relays only
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

type SimulationConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AuthConfig guards the live session control routes when enabled.
type AuthConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

// MQTTConfig enables publishing accepted samples to a broker.
type MQTTConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"` // {session_id} is substituted
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// CORSConfig lists dashboard origins; empty allows any origin.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

const envPrefix = "INTELLIINSPECT"

// Load reads .env (if present), the config file at path (optional when it does
// not exist) and INTELLIINSPECT_* environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isMissingFile(err) {
				return nil, fmt.Errorf("read config %q: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")

	v.SetDefault("ml.base_url", "http://localhost:7000")
	v.SetDefault("ml.timeout", "30s")
	v.SetDefault("ml.max_retries", 2)
	v.SetDefault("ml.retry_delay", "500ms")

	v.SetDefault("simulation.interval", "1s")

	v.SetDefault("db.path", "app.db")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", "1h")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "intelliinspect-gateway")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic", "intelliinspect/simulation/{session_id}/samples")

	v.SetDefault("metrics.enabled", true)

	v.SetDefault("cors.allowed_origins", []string{})
}

// Validate checks that all configuration values are usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port is required")
	}
	if c.ML.BaseURL == "" {
		return fmt.Errorf("ml.base_url is required")
	}
	if c.ML.Timeout <= 0 {
		return fmt.Errorf("ml.timeout must be positive")
	}
	if c.ML.MaxRetries < 0 {
		return fmt.Errorf("ml.max_retries must not be negative")
	}
	if c.ML.RetryDelay < 0 {
		return fmt.Errorf("ml.retry_delay must not be negative")
	}
	if c.Simulation.Interval < 10*time.Millisecond {
		return fmt.Errorf("simulation.interval must be at least 10ms")
	}
	if c.DB.Path == "" {
		return fmt.Errorf("db.path is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"console": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: console, json")
	}

	if c.Auth.Enabled {
		if c.Auth.SigningKey == "" {
			return fmt.Errorf("auth.signing_key is required when auth is enabled")
		}
		if c.Auth.TokenTTL <= 0 {
			return fmt.Errorf("auth.token_ttl must be positive")
		}
	}

	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
		if c.MQTT.Topic == "" {
			return fmt.Errorf("mqtt.topic is required when mqtt is enabled")
		}
	}
	return nil
}

func isMissingFile(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
