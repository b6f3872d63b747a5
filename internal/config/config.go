package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// Config holds all configuration for the application
type Config struct {
	Store   StoreConfig
	Server  ServerConfig
	Chat    ChatConfig
	Model   ModelConfig
	Redis   RedisConfig
	Logging LoggingConfig
	Venue   *Venue
}

// StoreConfig holds amenity store configuration
type StoreConfig struct {
	Driver             string // postgres or sqlite
	DSN                string // full connection string (preferred)
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
	AllowedMethods string
	AllowedHeaders string
}

// ChatConfig holds the limits applied by the chat pipeline
type ChatConfig struct {
	MaxQueryLength   int
	HistoryLimit     int
	MinResults       int // below this a keyword search is broadened
	MaxResults       int
	DescriptionLimit int
	LogEnabled       bool
}

// ModelConfig holds generative model configuration
type ModelConfig struct {
	Provider    string // openai or gemini
	APIKey      string
	APIBase     string
	ChatModel   string
	Temperature float64
	MaxTokens   int
	Enabled     bool
}

// RedisConfig holds the request rate limiter backend configuration
type RedisConfig struct {
	Addr           string
	Password       string
	DB             int
	Prefix         string
	RequestsPerMin int
	Enabled        bool
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	venue, err := LoadVenue(getEnv("VENUE_CONFIG", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to load venue config: %w", err)
	}

	cfg := &Config{
		Store: StoreConfig{
			Driver:             getEnv("STORE_DRIVER", "postgres"),
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "concierge"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			AllowedMethods: getEnv("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS"),
			AllowedHeaders: getEnv("CORS_ALLOWED_HEADERS", "Content-Type"),
		},
		Chat: ChatConfig{
			MaxQueryLength:   getEnvAsInt("CHAT_MAX_QUERY_LENGTH", 500),
			HistoryLimit:     getEnvAsInt("CHAT_HISTORY_LIMIT", 10),
			MinResults:       getEnvAsInt("CHAT_MIN_RESULTS", 3),
			MaxResults:       getEnvAsInt("CHAT_MAX_RESULTS", 30),
			DescriptionLimit: getEnvAsInt("CHAT_DESCRIPTION_LIMIT", 150),
			LogEnabled:       getEnvAsBool("CHAT_LOG_ENABLED", false),
		},
		Model: ModelConfig{
			Provider:    getEnv("MODEL_PROVIDER", "openai"),
			APIKey:      getEnv("MODEL_API_KEY", getEnv("OPENAI_API_KEY", "")),
			APIBase:     getEnv("MODEL_API_BASE", ""),
			ChatModel:   getEnv("MODEL_CHAT_MODEL", "gpt-4o-mini"),
			Temperature: getEnvAsFloat("MODEL_TEMPERATURE", 0.4),
			MaxTokens:   getEnvAsInt("MODEL_MAX_TOKENS", 1024),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", ""),
			Password:       getEnv("REDIS_PASSWORD", ""),
			DB:             getEnvAsInt("REDIS_DB", 0),
			Prefix:         getEnv("REDIS_PREFIX", "concierge:"),
			RequestsPerMin: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 30),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Venue: venue,
	}
	cfg.Model.Enabled = cfg.Model.APIKey != ""
	cfg.Redis.Enabled = cfg.Redis.Addr != ""

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the values the pipeline cannot run without
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (want postgres or sqlite)", c.Store.Driver)
	}
	switch c.Model.Provider {
	case "openai", "gemini":
	default:
		return fmt.Errorf("unsupported MODEL_PROVIDER %q (want openai or gemini)", c.Model.Provider)
	}
	if c.Chat.MaxResults <= 0 {
		return fmt.Errorf("CHAT_MAX_RESULTS must be positive")
	}
	if c.Chat.MinResults < 0 {
		return fmt.Errorf("CHAT_MIN_RESULTS cannot be negative")
	}
	if c.Chat.MaxQueryLength <= 0 {
		return fmt.Errorf("CHAT_MAX_QUERY_LENGTH must be positive")
	}
	return nil
}

// GetStoreDSN returns the connection string for the configured driver
func (c *Config) GetStoreDSN() string {
	if c.Store.DSN != "" {
		return c.Store.DSN
	}

	if c.Store.Driver == "sqlite" {
		return "file:concierge.db?_pragma=busy_timeout(5000)"
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Store.Host,
		c.Store.Port,
		c.Store.User,
		c.Store.Password,
		c.Store.Database,
		c.Store.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Int("default", defaultValue).Msg("invalid integer value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Warn().Str("key", key).Float64("default", defaultValue).Msg("invalid float value, using default")
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := strings.TrimSpace(os.Getenv(key))
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Warn().Str("key", key).Bool("default", defaultValue).Msg("invalid boolean value, using default")
		return defaultValue
	}
	return value
}

// SplitList splits a comma separated setting, dropping blanks
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
