package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	// Filesystem locations
	Paths PathsConfig `json:"paths" yaml:"paths"`

	// Session index database configuration
	Database DatabaseConfig `json:"database" yaml:"database"`

	// Pipeline behaviour
	Pipeline PipelineConfig `json:"pipeline" yaml:"pipeline"`

	// Session title generation
	Title TitleConfig `json:"title" yaml:"title"`

	// Server configuration
	Server ServerConfig `json:"server" yaml:"server"`
}

// PathsConfig holds the base directories used by the pipeline
type PathsConfig struct {
	// Directory with one folder per uploaded session
	UploadsDir string `json:"uploads_dir" yaml:"uploads_dir" env:"REALM_UPLOADS_DIR"`

	// Directory where derived artifacts are written
	DataDir string `json:"data_dir" yaml:"data_dir" env:"REALM_DATA_DIR"`

	// Directory with the static catalog JSON files
	CatalogDir string `json:"catalog_dir" yaml:"catalog_dir" env:"REALM_CATALOG_DIR"`
}

// DatabaseConfig holds database specific configuration
type DatabaseConfig struct {
	// Database driver (sqlite3)
	Driver string `json:"driver" yaml:"driver" env:"REALM_DB_DRIVER"`

	// Database connection string
	DSN string `json:"dsn" yaml:"dsn" env:"REALM_DB_DSN"`
}

// PipelineConfig holds feature toggles for session processing
type PipelineConfig struct {
	// Ignore the idempotency ledger and rebuild every artifact
	Force bool `json:"force" yaml:"force" env:"REALM_FORCE"`

	// Generate a flavor-text title for each session
	GenerateTitles bool `json:"generate_titles" yaml:"generate_titles" env:"REALM_GENERATE_TITLES"`

	// File extensions recognised as game-state archives
	GameExtensions []string `json:"game_extensions" yaml:"game_extensions" env:"REALM_GAME_EXTENSIONS" envSeparator:","`

	// File extensions recognised as compressed action logs
	LogExtensions []string `json:"log_extensions" yaml:"log_extensions" env:"REALM_LOG_EXTENSIONS" envSeparator:","`
}

// TitleConfig holds session title generator configuration
type TitleConfig struct {
	// Title provider (openai, wordlist)
	Provider string `json:"provider" yaml:"provider" env:"REALM_TITLE_PROVIDER"`

	// OpenAI API key, only read from the environment by default
	OpenAIAPIKey string `json:"-" yaml:"-" env:"OPENAI_API_KEY"`

	// Optional OpenAI compatible base URL
	OpenAIBaseURL string `json:"openai_base_url" yaml:"openai_base_url" env:"REALM_OPENAI_BASE_URL"`

	// Chat model used for titles
	Model string `json:"model" yaml:"model" env:"REALM_TITLE_MODEL"`
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	// Server port
	Port string `json:"port" yaml:"port" env:"REALM_PORT"`

	// Log level (debug, info, warn, error)
	LogLevel string `json:"log_level" yaml:"log_level" env:"REALM_LOG_LEVEL"`

	// Public base URL of the web application, used for share links
	PublicURL string `json:"public_url" yaml:"public_url" env:"REALM_PUBLIC_URL"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			UploadsDir: "./uploads",
			DataDir:    "./data/sessions",
			CatalogDir: "./data/catalog",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "./data/sessions.db",
		},
		Pipeline: PipelineConfig{
			Force:          false,
			GenerateTitles: true,
			GameExtensions: []string{".rsgame", ".zip"},
			LogExtensions:  []string{".rslog", ".log"},
		},
		Title: TitleConfig{
			Provider: "wordlist",
			Model:    "gpt-4o-mini",
		},
		Server: ServerConfig{
			Port:      "8080",
			LogLevel:  "info",
			PublicURL: "http://localhost:8080",
		},
	}
}

// LoadConfig loads configuration from a file and applies environment overrides
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
		if err := SaveConfig(config, path); err != nil {
			return config, err
		}
		return config, ApplyEnv(&config)
	}

	// Read config file
	data, err := os.ReadFile(path)
	if err != nil {
		return config, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return config, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	return config, ApplyEnv(&config)
}

// ApplyEnv overrides configuration values with REALM_* environment variables
func ApplyEnv(config *Config) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("failed to parse env: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to a file
func SaveConfig(config Config, path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Exitf writes a formatted error message to stderr and exits with code 1.
func Exitf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
