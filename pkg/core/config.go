// Package core wires MindTuner's components into a single client.
package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/mindtuner/mindtuner-go/pkg/speech"
)

// Config contains the complete configuration for a MindTuner client.
//
// It includes settings for:
//   - Database (record store backend)
//   - LLM provider (script generation and feedback analysis)
//   - Speech synthesis (optional)
//   - Logging
//
// Example:
//
//	config := &core.Config{
//	    Database: core.DatabaseConfig{
//	        Provider: "sqlite",
//	        SQLite:   core.SQLiteConfig{Path: "./mindtuner.db"},
//	    },
//	    LLM: core.LLMConfig{
//	        Provider: "deepseek",
//	        APIKey:   "sk-...",
//	    },
//	}
type Config struct {
	// Database selects and configures the record store.
	Database DatabaseConfig `json:"database" yaml:"database"`

	// LLM contains text generator configuration.
	LLM LLMConfig `json:"llm" yaml:"llm"`

	// Speech contains speech synthesis configuration.
	Speech SpeechConfig `json:"speech" yaml:"speech"`

	// Logging contains logger configuration.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// Database providers.
const (
	DatabaseMemory   = "memory"
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseMySQL    = "mysql"
)

// LLM providers.
const (
	LLMOpenAI   = "openai"
	LLMDeepSeek = "deepseek"
	LLMOllama   = "ollama"
)

// DatabaseConfig selects the record store backend.
type DatabaseConfig struct {
	// Provider is one of memory, sqlite, postgres, mysql.
	Provider string `json:"provider" yaml:"provider"`

	SQLite   SQLiteConfig `json:"sqlite" yaml:"sqlite"`
	Postgres SQLConfig    `json:"postgres" yaml:"postgres"`
	MySQL    SQLConfig    `json:"mysql" yaml:"mysql"`
}

// SQLiteConfig configures the SQLite backend.
type SQLiteConfig struct {
	Path  string `json:"path" yaml:"path"`
	Table string `json:"table,omitempty" yaml:"table,omitempty"`
}

// SQLConfig configures a networked SQL backend.
type SQLConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	User     string `json:"user" yaml:"user"`
	Password string `json:"password" yaml:"password"`
	Database string `json:"database" yaml:"database"`
	Table    string `json:"table,omitempty" yaml:"table,omitempty"`

	// SSLMode applies to postgres only.
	SSLMode string `json:"ssl_mode,omitempty" yaml:"ssl_mode,omitempty"`
}

// LLMConfig contains configuration for the LLM provider.
//
// Supported providers: openai, deepseek, ollama
type LLMConfig struct {
	// Provider is the LLM provider name (openai, deepseek, ollama).
	Provider string `json:"provider" yaml:"provider"`

	// APIKey is the API key for the LLM provider. Optional for ollama.
	APIKey string `json:"api_key" yaml:"api_key"`

	// Model is the model name to use (e.g., "gpt-4", "deepseek-chat").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the base URL for the API (optional, uses provider default if empty).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// TimeoutSeconds bounds each call. Zero selects 30 seconds.
	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`

	// RateLimit caps calls per second. Zero disables limiting.
	RateLimit float64 `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
}

// Timeout returns the per-call timeout.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SpeechConfig contains speech synthesis configuration. Synthesis is skipped
// unless Enabled is true.
type SpeechConfig struct {
	Enabled      bool    `json:"enabled" yaml:"enabled"`
	Bucket       string  `json:"bucket" yaml:"bucket"`
	LanguageCode string  `json:"language_code,omitempty" yaml:"language_code,omitempty"`
	VoiceName    string  `json:"voice_name,omitempty" yaml:"voice_name,omitempty"`
	SpeakingRate float64 `json:"speaking_rate,omitempty" yaml:"speaking_rate,omitempty"`
	CDNDomain    string  `json:"cdn_domain,omitempty" yaml:"cdn_domain,omitempty"`

	TimeoutSeconds int `json:"timeout_seconds,omitempty" yaml:"timeout_seconds,omitempty"`
}

// SynthesizerConfig converts c to a speech.Config.
func (c SpeechConfig) SynthesizerConfig() speech.Config {
	return speech.Config{
		LanguageCode: c.LanguageCode,
		VoiceName:    c.VoiceName,
		SpeakingRate: c.SpeakingRate,
		Bucket:       c.Bucket,
		CDNDomain:    c.CDNDomain,
		Timeout:      time.Duration(c.TimeoutSeconds) * time.Second,
	}.WithDefaults()
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Development switches to the human-readable console encoder.
	Development bool `json:"development,omitempty" yaml:"development,omitempty"`
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// The function:
//  1. Searches for .env or .env.example files (up to 5 directory levels up)
//  2. Loads environment variables from the found file
//  3. Parses environment variables into a Config struct
//
// Supported environment variables:
//   - DATABASE_PROVIDER (memory, sqlite, postgres, mysql)
//   - SQLITE_PATH, SQLITE_TABLE
//   - POSTGRES_HOST, POSTGRES_PORT, POSTGRES_USER, POSTGRES_PASSWORD, POSTGRES_DATABASE, POSTGRES_SSLMODE
//   - MYSQL_HOST, MYSQL_PORT, MYSQL_USER, MYSQL_PASSWORD, MYSQL_DATABASE
//   - LLM_PROVIDER, LLM_API_KEY, LLM_MODEL, LLM_BASE_URL, LLM_TIMEOUT_SECONDS, LLM_RATE_LIMIT
//   - SPEECH_ENABLED, SPEECH_BUCKET, SPEECH_LANGUAGE_CODE, SPEECH_VOICE_NAME,
//     SPEECH_SPEAKING_RATE, SPEECH_CDN_DOMAIN
//   - LOG_LEVEL, LOG_DEVELOPMENT
//
// Returns a Config instance, or an error if a numeric variable is malformed.
func LoadConfigFromEnv() (*Config, error) {
	if envPath, found := FindEnvFile(); found {
		_ = godotenv.Load(envPath)
	} else {
		_ = godotenv.Load()
	}

	var p envParser
	config := &Config{
		Database: DatabaseConfig{
			Provider: getEnvOrDefault("DATABASE_PROVIDER", DatabaseSQLite),
			SQLite: SQLiteConfig{
				Path:  getEnvOrDefault("SQLITE_PATH", "./mindtuner.db"),
				Table: os.Getenv("SQLITE_TABLE"),
			},
			Postgres: SQLConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     p.intVar("POSTGRES_PORT", 5432),
				User:     getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: os.Getenv("POSTGRES_PASSWORD"),
				Database: getEnvOrDefault("POSTGRES_DATABASE", "mindtuner"),
				Table:    os.Getenv("POSTGRES_TABLE"),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
			},
			MySQL: SQLConfig{
				Host:     getEnvOrDefault("MYSQL_HOST", "127.0.0.1"),
				Port:     p.intVar("MYSQL_PORT", 3306),
				User:     getEnvOrDefault("MYSQL_USER", "root"),
				Password: os.Getenv("MYSQL_PASSWORD"),
				Database: getEnvOrDefault("MYSQL_DATABASE", "mindtuner"),
				Table:    os.Getenv("MYSQL_TABLE"),
			},
		},
		LLM: LLMConfig{
			Provider:       getEnvOrDefault("LLM_PROVIDER", LLMDeepSeek),
			APIKey:         os.Getenv("LLM_API_KEY"),
			Model:          os.Getenv("LLM_MODEL"),
			BaseURL:        os.Getenv("LLM_BASE_URL"),
			TimeoutSeconds: p.intVar("LLM_TIMEOUT_SECONDS", 30),
			RateLimit:      p.floatVar("LLM_RATE_LIMIT", 0),
		},
		Speech: SpeechConfig{
			Enabled:      p.boolVar("SPEECH_ENABLED", false),
			Bucket:       os.Getenv("SPEECH_BUCKET"),
			LanguageCode: getEnvOrDefault("SPEECH_LANGUAGE_CODE", speech.DefaultLanguageCode),
			VoiceName:    getEnvOrDefault("SPEECH_VOICE_NAME", speech.DefaultVoiceName),
			SpeakingRate: p.floatVar("SPEECH_SPEAKING_RATE", speech.DefaultSpeakingRate),
			CDNDomain:    os.Getenv("SPEECH_CDN_DOMAIN"),
		},
		Logging: LoggingConfig{
			Level:       getEnvOrDefault("LOG_LEVEL", "info"),
			Development: p.boolVar("LOG_DEVELOPMENT", false),
		},
	}

	if p.err != nil {
		return nil, NewError("LoadConfigFromEnv", p.err)
	}
	return config, nil
}

// LoadConfigFromEnvFile loads configuration from a specific .env file.
//
// Parameters:
//   - envPath: Path to the .env file
//
// Returns a Config instance, or an error if loading fails.
func LoadConfigFromEnvFile(envPath string) (*Config, error) {
	if err := godotenv.Load(envPath); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}
	return LoadConfigFromEnv()
}

// LoadConfigFromJSON loads configuration from a JSON file.
//
// Parameters:
//   - path: Path to the JSON configuration file
//
// Returns a Config instance, or an error if loading or parsing fails.
func LoadConfigFromJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError("LoadConfigFromJSON", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, NewError("LoadConfigFromJSON", err)
	}

	return &config, nil
}

// LoadConfigFromYAML loads configuration from a YAML file.
func LoadConfigFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewError("LoadConfigFromYAML", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, NewError("LoadConfigFromYAML", err)
	}

	return &config, nil
}

// LoadConfigFromFile picks the JSON or YAML loader by file extension.
func LoadConfigFromFile(path string) (*Config, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadConfigFromYAML(path)
	case ".json":
		return LoadConfigFromJSON(path)
	default:
		return nil, NewError("LoadConfigFromFile", fmt.Errorf("%w: unsupported config file %q", ErrInvalidConfig, path))
	}
}

// Validate validates the configuration.
//
// Checks that:
//   - the database provider is known
//   - the LLM provider is known and, unless it is ollama, has an API key
//   - speech synthesis, when enabled, has a bucket
//
// Returns an error wrapping ErrInvalidConfig if validation fails, nil otherwise.
func (c *Config) Validate() error {
	return c.validate(false, false)
}

// validate checks c, skipping the sections whose component is injected.
func (c *Config) validate(skipDatabase, skipLLM bool) error {
	if !skipDatabase {
		switch c.Database.Provider {
		case DatabaseMemory, DatabaseSQLite, DatabasePostgres, DatabaseMySQL:
		default:
			return invalidConfig("unknown database provider %q", c.Database.Provider)
		}
		if c.Database.Provider == DatabaseSQLite && c.Database.SQLite.Path == "" {
			return invalidConfig("sqlite path is required")
		}
	}

	if !skipLLM {
		switch c.LLM.Provider {
		case LLMOpenAI, LLMDeepSeek, LLMOllama:
		default:
			return invalidConfig("unknown llm provider %q", c.LLM.Provider)
		}
		if c.LLM.APIKey == "" && c.LLM.Provider != LLMOllama {
			return invalidConfig("llm api key is required")
		}
	}
	if c.LLM.TimeoutSeconds < 0 || c.LLM.RateLimit < 0 {
		return invalidConfig("llm timeout and rate limit must not be negative")
	}

	if c.Speech.Enabled && c.Speech.Bucket == "" {
		return invalidConfig("speech bucket is required when speech is enabled")
	}
	return nil
}

func invalidConfig(format string, args ...any) error {
	return NewError("Validate", fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...)))
}

// getEnvOrDefault gets an environment variable or returns the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envParser parses typed variables and keeps the first error.
type envParser struct {
	err error
}

func (p *envParser) intVar(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return n
}

func (p *envParser) floatVar(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return f
}

func (p *envParser) boolVar(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.fail(key, err)
		return def
	}
	return b
}

func (p *envParser) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %s: %v", ErrInvalidConfig, key, err)
	}
}

// FindEnvFile searches for .env or .env.example files.
//
// The search:
//  1. Checks the current directory
//  2. Searches up to 5 directory levels up
//  3. Returns the first .env or .env.example file found
//
// Returns:
//   - path: Path to the found file (empty if not found)
//   - found: True if a file was found, false otherwise
func FindEnvFile() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for i := 0; i < 5; i++ {
		for _, name := range []string{".env", ".env.example"} {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, true
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false
}
