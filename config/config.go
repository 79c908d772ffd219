package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Shopify   ShopifyConfig   `mapstructure:"shopify"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	InternalKey  string        `mapstructure:"internal_key"`
}

// ShopifyConfig holds the Admin API connection and store-specific identity.
type ShopifyConfig struct {
	StoreName   string `mapstructure:"store_name"`
	AccessToken string `mapstructure:"access_token"`
	APIVersion  string `mapstructure:"api_version"`

	// Target warehouse location, addressable by either encoding.
	LocationGID      string `mapstructure:"location_gid"`
	LocationLegacyID string `mapstructure:"location_legacy_id"`

	// Sales channels newly created products are published to.
	PublicationIDs []string `mapstructure:"publication_ids"`

	// Bulk operation polling. A zero deadline polls until the operation
	// reaches a terminal state.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	PollDeadline time.Duration `mapstructure:"poll_deadline"`

	// Batched SKU fetch. A zero deadline retries under the attempt cap only.
	BatchSize     int           `mapstructure:"batch_size"`
	BatchDeadline time.Duration `mapstructure:"batch_deadline"`
}

// RateLimitConfig holds retry and pacing configuration for Shopify calls.
type RateLimitConfig struct {
	MaxAttempts      int `mapstructure:"max_attempts"`
	InitialBackoffMs int `mapstructure:"initial_backoff_ms"`
	PacingBufferMs   int `mapstructure:"pacing_buffer_ms"`
}

// CacheConfig holds the local variant-snapshot cache configuration.
type CacheConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// Load reads configuration from file, .env, and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// .env is optional; godotenv never overrides already-set variables.
	_ = godotenv.Load()

	v.AutomaticEnv()
	v.SetEnvPrefix("PRODUCT_AUDIT")
	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("shopify.store_name", "SHOPIFY_STORE_NAME")
	v.BindEnv("shopify.access_token", "SHOPIFY_ACCESS_TOKEN")
	v.BindEnv("shopify.location_gid", "SHOPIFY_LOCATION_GID")
	v.BindEnv("shopify.location_legacy_id", "SHOPIFY_LOCATION_LEGACY_ID")

	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.internal_key", "INTERNAL_API_KEY")

	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("cache.base_path", "CACHE_PATH")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)

	v.SetDefault("shopify.api_version", "2025-07")
	v.SetDefault("shopify.poll_interval", 3*time.Second)
	v.SetDefault("shopify.poll_deadline", time.Duration(0))
	v.SetDefault("shopify.batch_size", 150)
	v.SetDefault("shopify.batch_deadline", time.Duration(0))

	v.SetDefault("rate_limit.max_attempts", 5)
	v.SetDefault("rate_limit.initial_backoff_ms", 500)
	v.SetDefault("rate_limit.pacing_buffer_ms", 250)

	v.SetDefault("cache.base_path", "./data/cache")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// GetAccessToken returns the Shopify token from config or environment.
func (c *Config) GetAccessToken() string {
	if c.Shopify.AccessToken != "" {
		return c.Shopify.AccessToken
	}
	return os.Getenv("SHOPIFY_ACCESS_TOKEN")
}
