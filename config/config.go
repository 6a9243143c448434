package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server         ServerConfig
	Anthropic      AnthropicConfig
	Cards          CardsConfig
	RateLimit      RateLimitConfig
	Card           CardConfig
	Classification ClassificationConfig
	Catalog        CatalogConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AnthropicConfig holds vision model configuration
type AnthropicConfig struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Model          string        `mapstructure:"model"`
	MaxTokens      int64         `mapstructure:"max_tokens"`
	RequestsPerMin float64       `mapstructure:"requests_per_min"`
	Timeout        time.Duration `mapstructure:"timeout"`
}

// CardsConfig holds card persistence configuration
type CardsConfig struct {
	Store         string        `mapstructure:"store"` // "memory" or "sqlite"
	SQLitePath    string        `mapstructure:"sqlite_path"`
	TTL           time.Duration `mapstructure:"ttl"`
	PurgeSchedule string        `mapstructure:"purge_schedule"`
}

// RateLimitConfig holds per-IP rate limiting configuration
type RateLimitConfig struct {
	PerIP  int           `mapstructure:"per_ip"` // analyze requests per window; 0 disables
	Window time.Duration `mapstructure:"window"`
}

// CardConfig holds card rendering configuration
type CardConfig struct {
	Width        int    `mapstructure:"width"`
	ChipStrategy string `mapstructure:"chip_strategy"` // "shrink" or "abbreviate"
}

// ClassificationConfig holds tier classification configuration
type ClassificationConfig struct {
	PatternsFile string `mapstructure:"patterns_file"`
}

// CatalogConfig holds the reference image catalog configuration
type CatalogConfig struct {
	ImagesFile string `mapstructure:"images_file"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/sotc/")

	// Environment variable settings: SOTC_ANTHROPIC_API_KEY -> anthropic.api_key
	v.SetEnvPrefix("SOTC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:5173"})

	// Anthropic defaults
	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.requests_per_min", 50)
	v.SetDefault("anthropic.timeout", "60s")

	// Card store defaults
	v.SetDefault("cards.store", "memory")
	v.SetDefault("cards.sqlite_path", "cards.db")
	v.SetDefault("cards.ttl", "720h") // 30 days
	v.SetDefault("cards.purge_schedule", "0 * * * *")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 5)
	v.SetDefault("ratelimit.window", "1h")

	// Card rendering defaults
	v.SetDefault("card.width", 600)
	v.SetDefault("card.chip_strategy", "shrink")

	v.SetDefault("classification.patterns_file", "")
	v.SetDefault("catalog.images_file", "")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Anthropic.APIKey == "" {
		return fmt.Errorf("Anthropic API key is required (set SOTC_ANTHROPIC_API_KEY)")
	}

	if config.Cards.Store != "memory" && config.Cards.Store != "sqlite" {
		return fmt.Errorf("card store must be 'memory' or 'sqlite', got: %s", config.Cards.Store)
	}

	if config.Cards.Store == "sqlite" && config.Cards.SQLitePath == "" {
		return fmt.Errorf("SQLite path is required when card store is 'sqlite'")
	}

	if config.Card.ChipStrategy != "shrink" && config.Card.ChipStrategy != "abbreviate" {
		return fmt.Errorf("chip strategy must be 'shrink' or 'abbreviate', got: %s", config.Card.ChipStrategy)
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("rate limit per IP must not be negative, got: %d", config.RateLimit.PerIP)
	}

	if config.RateLimit.PerIP > 0 && config.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive when per IP limit is set")
	}

	return nil
}

// loadEnvFile loads ./.env without overriding variables that are already set.
// A missing file is not an error.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}
