package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Game configuration
	Game GameConfig `json:"game"`

	// AI configuration
	AI AIConfig `json:"ai"`
}

// ServerConfig holds HTTP server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level"`

	// Base URL used when building session invite links
	BaseURL string `json:"base_url"`
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	// Database driver (sqlite3)
	Driver string `json:"driver"`

	// Database connection string
	DSN string `json:"dsn"`
}

// GameConfig holds game specific configuration
type GameConfig struct {
	// Default maximum players per session
	DefaultMaxPlayers int `json:"default_max_players"`

	// Default game duration in seconds
	DefaultGameDuration float64 `json:"default_game_duration"`

	// Secret fragments handed to each joining player
	SecretFragmentsPerPlayer int `json:"secret_fragments_per_player"`

	// Seconds between automatic round advancement (0 disables)
	RoundIntervalSeconds int `json:"round_interval_seconds"`

	// Use the two-rule minimal faction decision variant
	MinimalFactionRules bool `json:"minimal_faction_rules"`
}

// AIConfig holds decision provider specific configuration
type AIConfig struct {
	// Enable the OpenAI-backed provider
	Enabled bool `json:"enabled"`

	// API key; falls back to OPENAI_API_KEY when empty
	APIKey string `json:"api_key"`

	// Chat model
	Model string `json:"model"`

	// Sampling temperature
	Temperature float64 `json:"temperature"`

	// Completion token cap
	MaxTokens int `json:"max_tokens"`

	// Per-call timeout in seconds
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:     "8080",
			LogLevel: "info",
			BaseURL:  "http://localhost:8080",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "./data/lastsignal.db",
		},
		Game: GameConfig{
			DefaultMaxPlayers:        4,
			DefaultGameDuration:      300.0,
			SecretFragmentsPerPlayer: 3,
			RoundIntervalSeconds:     0,
			MinimalFactionRules:      false,
		},
		AI: AIConfig{
			Enabled:               false,
			Model:                 "gpt-3.5-turbo",
			Temperature:           0.8,
			MaxTokens:             150,
			RequestTimeoutSeconds: 10,
		},
	}
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return config, err
	}

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// Create default config file
		file, err := os.Create(path)
		if err != nil {
			return config, err
		}
		defer file.Close()

		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(config); err != nil {
			return config, err
		}

		return config, nil
	}

	// Read config file
	file, err := os.Open(path)
	if err != nil {
		return config, err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return config, err
	}

	return config, nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	// Create or truncate file
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write config to file
	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(config); err != nil {
		return err
	}

	return nil
}
