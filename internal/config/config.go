package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Auth     AuthConfig     `toml:"auth"`
	Logging  LoggingConfig  `toml:"logging"`
	Ngrok    NgrokConfig    `toml:"ngrok"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Port        string `toml:"port"`
	Host        string `toml:"host"`
	StaticDir   string `toml:"static_dir"`
	EnableCORS  bool   `toml:"enable_cors"`
	ReadTimeout int    `toml:"read_timeout_seconds"`
}

// DatabaseConfig contains database-related configuration
type DatabaseConfig struct {
	Path           string `toml:"path"`
	MaxConnections int    `toml:"max_connections"`
}

// CatalogConfig contains upstream music catalog configuration. The Jamendo
// client id may be left empty here and supplied via the JAMENDO_CLIENT_ID
// environment variable instead.
type CatalogConfig struct {
	JamendoBaseURL  string `toml:"jamendo_base_url"`
	JamendoClientID string `toml:"jamendo_client_id"`
	DeezerBaseURL   string `toml:"deezer_base_url"`
	RequestTimeout  int    `toml:"request_timeout_seconds"`
	CacheTTLMinutes int    `toml:"cache_ttl_minutes"`
	DefaultLimit    int    `toml:"default_limit"`
}

// AuthConfig contains authentication configuration. The JWT secret may be
// supplied via the JWT_SECRET environment variable instead of the file.
type AuthConfig struct {
	JWTSecret         string `toml:"jwt_secret"`
	TokenDuration     string `toml:"token_duration"`
	BcryptCost        int    `toml:"bcrypt_cost"`
	MinPasswordLength int    `toml:"min_password_length"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level          string `toml:"level"`
	Format         string `toml:"format"`
	RequestLogging bool   `toml:"request_logging"`
}

// NgrokConfig contains ngrok tunnel configuration
type NgrokConfig struct {
	Enabled   bool   `toml:"enabled"`
	AuthToken string `toml:"auth_token"`
	Domain    string `toml:"domain"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        "8080",
			Host:        "0.0.0.0",
			StaticDir:   "./static",
			EnableCORS:  true,
			ReadTimeout: 30,
		},
		Database: DatabaseConfig{
			Path:           "./moodplay.db",
			MaxConnections: 10,
		},
		Catalog: CatalogConfig{
			JamendoBaseURL:  "https://api.jamendo.com/v3.0",
			DeezerBaseURL:   "https://api.deezer.com",
			RequestTimeout:  10,
			CacheTTLMinutes: 15,
			DefaultLimit:    20,
		},
		Auth: AuthConfig{
			TokenDuration:     "168h", // 7 days
			BcryptCost:        12,
			MinPasswordLength: 6,
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			RequestLogging: true,
		},
		Ngrok: NgrokConfig{
			Enabled:   false,
			AuthToken: "",
			Domain:    "",
		},
	}
}

// LoadConfig loads configuration from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// Config file doesn't exist, create it with defaults
		if err := cfg.SaveToFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config file: %w", err)
		}
		fmt.Printf("Created default configuration file at: %s\n", configPath)
		cfg.applyEnvOverrides()
		return cfg, nil
	}

	// Load from file
	if _, err := toml.DecodeFile(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides fills secrets from the environment when the file leaves
// them empty, so credentials can stay out of config.toml.
func (c *Config) applyEnvOverrides() {
	if c.Catalog.JamendoClientID == "" {
		c.Catalog.JamendoClientID = os.Getenv("JAMENDO_CLIENT_ID")
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	}
	if c.Ngrok.AuthToken == "" {
		c.Ngrok.AuthToken = os.Getenv("NGROK_AUTHTOKEN")
	}
}

// SaveToFile saves the configuration to a TOML file
func (c *Config) SaveToFile(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Create or open file
	file, err := os.Create(configPath)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// Write header comment
	header := `# Moodplay Server Configuration
# This file contains all configuration options for the moodplay server.
# Edit the values below to customize your server settings.
# Secrets (jamendo_client_id, jwt_secret, ngrok auth_token) may also be
# provided through environment variables or a .env file.

`
	if _, err := file.WriteString(header); err != nil {
		return fmt.Errorf("failed to write config header: %w", err)
	}

	// Encode configuration to TOML
	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config to TOML: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Validate server config
	if c.Server.Port == "" {
		return fmt.Errorf("server port cannot be empty")
	}
	if c.Server.Host == "" {
		return fmt.Errorf("server host cannot be empty")
	}
	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	// Validate database config
	if c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.Database.MaxConnections < 1 {
		return fmt.Errorf("database max connections must be at least 1")
	}

	// Validate catalog config
	if c.Catalog.JamendoBaseURL == "" {
		return fmt.Errorf("jamendo base URL cannot be empty")
	}
	if c.Catalog.DeezerBaseURL == "" {
		return fmt.Errorf("deezer base URL cannot be empty")
	}
	if c.Catalog.RequestTimeout < 1 {
		return fmt.Errorf("catalog request timeout must be at least 1 second")
	}
	if c.Catalog.DefaultLimit < 1 {
		return fmt.Errorf("catalog default limit must be at least 1")
	}

	// Validate auth config
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31")
	}
	if c.Auth.MinPasswordLength < 1 {
		return fmt.Errorf("minimum password length must be at least 1")
	}

	// Validate logging config
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}

// GetAddress returns the full server address
func (c *Config) GetAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}
