package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default config is invalid: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Auth.MinPasswordLength != 6 {
		t.Errorf("Expected minimum password length 6, got %d", cfg.Auth.MinPasswordLength)
	}
	if cfg.GetAddress() != "0.0.0.0:8080" {
		t.Errorf("Unexpected address: %s", cfg.GetAddress())
	}
}

func TestLoadConfigCreatesDefaultFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")

	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Errorf("Expected defaults, got port %s", cfg.Server.Port)
	}

	if _, err := os.Stat(configPath); err != nil {
		t.Fatalf("Config file not created: %v", err)
	}

	// Second load reads the file back.
	again, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if again.Catalog.JamendoBaseURL != cfg.Catalog.JamendoBaseURL {
		t.Error("Round-tripped config differs from defaults")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
port = ""
host = "localhost"

[logging]
level = "info"
format = "text"
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	if _, err := LoadConfig(configPath); err == nil {
		t.Fatal("Expected validation error for empty port")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"EmptyDatabasePath", func(c *Config) { c.Database.Path = "" }},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "verbose" }},
		{"BadLogFormat", func(c *Config) { c.Logging.Format = "xml" }},
		{"BadBcryptCost", func(c *Config) { c.Auth.BcryptCost = 99 }},
		{"ZeroCatalogLimit", func(c *Config) { c.Catalog.DefaultLimit = 0 }},
		{"EmptyJamendoURL", func(c *Config) { c.Catalog.JamendoBaseURL = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("JAMENDO_CLIENT_ID", "env-client")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Auth.JWTSecret != "env-secret" {
		t.Errorf("JWT secret not taken from environment: %q", cfg.Auth.JWTSecret)
	}
	if cfg.Catalog.JamendoClientID != "env-client" {
		t.Errorf("Jamendo client id not taken from environment: %q", cfg.Catalog.JamendoClientID)
	}
}
