package config

import (
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"SOTC_SERVER_PORT",
	"SOTC_SERVER_ENVIRONMENT",
	"SOTC_SERVER_ALLOWED_ORIGINS",
	"SOTC_ANTHROPIC_API_KEY",
	"SOTC_ANTHROPIC_MODEL",
	"SOTC_ANTHROPIC_TIMEOUT",
	"SOTC_CARDS_STORE",
	"SOTC_CARDS_SQLITE_PATH",
	"SOTC_CARDS_TTL",
	"SOTC_RATELIMIT_PER_IP",
	"SOTC_RATELIMIT_WINDOW",
	"SOTC_CARD_WIDTH",
	"SOTC_CARD_CHIP_STRATEGY",
}

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		for _, key := range configEnvVars {
			os.Unsetenv(key)
		}
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SOTC_ANTHROPIC_API_KEY", "test-key")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Anthropic.Model != "claude-sonnet-4-20250514" {
			t.Errorf("Anthropic.Model = %s, want claude-sonnet-4-20250514", cfg.Anthropic.Model)
		}
		if cfg.Anthropic.Timeout != 60*time.Second {
			t.Errorf("Anthropic.Timeout = %v, want 60s", cfg.Anthropic.Timeout)
		}
		if cfg.Cards.Store != "memory" {
			t.Errorf("Cards.Store = %s, want memory", cfg.Cards.Store)
		}
		if cfg.Cards.TTL != 720*time.Hour {
			t.Errorf("Cards.TTL = %v, want 720h", cfg.Cards.TTL)
		}
		if cfg.RateLimit.PerIP != 5 {
			t.Errorf("RateLimit.PerIP = %d, want 5", cfg.RateLimit.PerIP)
		}
		if cfg.RateLimit.Window != time.Hour {
			t.Errorf("RateLimit.Window = %v, want 1h", cfg.RateLimit.Window)
		}
		if cfg.Card.Width != 600 {
			t.Errorf("Card.Width = %d, want 600", cfg.Card.Width)
		}
		if cfg.Card.ChipStrategy != "shrink" {
			t.Errorf("Card.ChipStrategy = %s, want shrink", cfg.Card.ChipStrategy)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SOTC_SERVER_PORT", "9090")
		os.Setenv("SOTC_SERVER_ENVIRONMENT", "production")
		os.Setenv("SOTC_ANTHROPIC_API_KEY", "custom-api-key")
		os.Setenv("SOTC_ANTHROPIC_MODEL", "claude-test")
		os.Setenv("SOTC_CARDS_STORE", "sqlite")
		os.Setenv("SOTC_CARDS_SQLITE_PATH", "/tmp/cards.db")
		os.Setenv("SOTC_CARDS_TTL", "24h")
		os.Setenv("SOTC_RATELIMIT_PER_IP", "20")
		os.Setenv("SOTC_RATELIMIT_WINDOW", "10m")
		os.Setenv("SOTC_CARD_WIDTH", "375")
		os.Setenv("SOTC_CARD_CHIP_STRATEGY", "abbreviate")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Anthropic.APIKey != "custom-api-key" {
			t.Errorf("Anthropic.APIKey = %s, want custom-api-key", cfg.Anthropic.APIKey)
		}
		if cfg.Anthropic.Model != "claude-test" {
			t.Errorf("Anthropic.Model = %s, want claude-test", cfg.Anthropic.Model)
		}
		if cfg.Cards.Store != "sqlite" {
			t.Errorf("Cards.Store = %s, want sqlite", cfg.Cards.Store)
		}
		if cfg.Cards.SQLitePath != "/tmp/cards.db" {
			t.Errorf("Cards.SQLitePath = %s, want /tmp/cards.db", cfg.Cards.SQLitePath)
		}
		if cfg.Cards.TTL != 24*time.Hour {
			t.Errorf("Cards.TTL = %v, want 24h", cfg.Cards.TTL)
		}
		if cfg.RateLimit.PerIP != 20 {
			t.Errorf("RateLimit.PerIP = %d, want 20", cfg.RateLimit.PerIP)
		}
		if cfg.RateLimit.Window != 10*time.Minute {
			t.Errorf("RateLimit.Window = %v, want 10m", cfg.RateLimit.Window)
		}
		if cfg.Card.Width != 375 {
			t.Errorf("Card.Width = %d, want 375", cfg.Card.Width)
		}
		if cfg.Card.ChipStrategy != "abbreviate" {
			t.Errorf("Card.ChipStrategy = %s, want abbreviate", cfg.Card.ChipStrategy)
		}
	})

	t.Run("fails validation when API key is missing", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing API key")
		}
		if err.Error() != "invalid configuration: Anthropic API key is required (set SOTC_ANTHROPIC_API_KEY)" {
			t.Errorf("Load() error = %v, want 'Anthropic API key is required'", err)
		}
	})

	t.Run("fails validation for invalid card store", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("SOTC_ANTHROPIC_API_KEY", "test-key")
		os.Setenv("SOTC_CARDS_STORE", "redis")
		defer cleanupEnv()

		if _, err := Load(); err == nil {
			t.Error("Load() error = nil, want error for invalid card store")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	chdirTemp := func(t *testing.T) {
		originalDir, _ := os.Getwd()
		t.Cleanup(func() { os.Chdir(originalDir) })
		os.Chdir(t.TempDir())
	}

	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		chdirTemp(t)

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		chdirTemp(t)

		envContent := `
# Comment line
SOTC_TEST_VAR_1=value1
   # indented comment

SOTC_TEST_VAR_2="quoted value"
# SOTC_TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		for _, k := range []string{"SOTC_TEST_VAR_1", "SOTC_TEST_VAR_2", "SOTC_TEST_COMMENTED"} {
			os.Unsetenv(k)
			defer os.Unsetenv(k)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if got := os.Getenv("SOTC_TEST_VAR_1"); got != "value1" {
			t.Errorf("SOTC_TEST_VAR_1 = %s, want value1", got)
		}
		if got := os.Getenv("SOTC_TEST_VAR_2"); got != "quoted value" {
			t.Errorf("SOTC_TEST_VAR_2 = %s, want quoted value", got)
		}
		if got := os.Getenv("SOTC_TEST_COMMENTED"); got != "" {
			t.Errorf("SOTC_TEST_COMMENTED = %s, should not be loaded from comment", got)
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		chdirTemp(t)

		os.Setenv("SOTC_TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("SOTC_TEST_OVERRIDE")

		if err := os.WriteFile(".env", []byte("SOTC_TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}
		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if got := os.Getenv("SOTC_TEST_OVERRIDE"); got != "existing-value" {
			t.Errorf("SOTC_TEST_OVERRIDE = %s, want existing-value (should not override)", got)
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Anthropic: AnthropicConfig{APIKey: "test-key"},
			Cards:     CardsConfig{Store: "memory"},
			RateLimit: RateLimitConfig{PerIP: 5, Window: time.Hour},
			Card:      CardConfig{Width: 600, ChipStrategy: "shrink"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid configuration", func(*Config) {}, false},
		{"empty API key", func(c *Config) { c.Anthropic.APIKey = "" }, true},
		{"invalid store", func(c *Config) { c.Cards.Store = "redis" }, true},
		{"sqlite with path", func(c *Config) { c.Cards.Store = "sqlite"; c.Cards.SQLitePath = "cards.db" }, false},
		{"sqlite without path", func(c *Config) { c.Cards.Store = "sqlite" }, true},
		{"abbreviate strategy", func(c *Config) { c.Card.ChipStrategy = "abbreviate" }, false},
		{"unknown strategy", func(c *Config) { c.Card.ChipStrategy = "squeeze" }, true},
		{"negative rate limit", func(c *Config) { c.RateLimit.PerIP = -1 }, true},
		{"rate limit without window", func(c *Config) { c.RateLimit.Window = 0 }, true},
		{"rate limit disabled", func(c *Config) { c.RateLimit.PerIP = 0; c.RateLimit.Window = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
