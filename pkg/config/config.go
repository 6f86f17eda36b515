package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	LLM      LLMConfig
	Search   SearchConfig
	CORS     CORSConfig
	OTEL     OTELConfig
}

// AppConfig holds process-wide settings
type AppConfig struct {
	Env      string
	LogLevel string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host string
	Port int
}

// DatabaseConfig holds record store configuration
type DatabaseConfig struct {
	Driver   string // postgres or sqlite
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	Path     string // sqlite file path
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LLMConfig holds language-model provider configuration
type LLMConfig struct {
	Provider       string // mistral, openai, gemini or none
	APIKey         string
	BaseURL        string
	Model          string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	RateLimitRPM   int
	RateLimitBurst int
	Timeout        time.Duration // per model call; zero leaves the caller's deadline alone
}

// SearchConfig holds search pipeline configuration
type SearchConfig struct {
	CacheTTL        time.Duration
	CacheCapacity   int
	SampleSize      int
	SingleFlight    bool
	WarmQueries     []string
	WarmConcurrency int
}

// CORSConfig holds allowed origins for browser clients
type CORSConfig struct {
	AllowedOrigins []string
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Provider names accepted in LLM_PROVIDER.
const (
	ProviderMistral = "mistral"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
	ProviderNone    = "none"
)

var defaults = map[string]interface{}{
	"APP_ENV":   "production",
	"LOG_LEVEL": "info",

	"SERVER_HOST": "0.0.0.0",
	"SERVER_PORT": 8080,

	"DB_DRIVER":   "postgres",
	"DB_HOST":     "localhost",
	"DB_PORT":     5432,
	"DB_USER":     "postgres",
	"DB_PASSWORD": "",
	"DB_NAME":     "jpo",
	"DB_SSLMODE":  "disable",
	"DB_PATH":     "jpo.db",

	"REDIS_ENABLED":  false,
	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     6379,
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"LLM_PROVIDER":         ProviderMistral,
	"LLM_API_KEY":          "",
	"LLM_BASE_URL":         "",
	"LLM_MODEL":            "",
	"LLM_EMBEDDING_MODEL":  "",
	"LLM_TEMPERATURE":      0.2,
	"LLM_MAX_TOKENS":       1024,
	"LLM_RATE_LIMIT_RPM":   60,
	"LLM_RATE_LIMIT_BURST": 5,
	"LLM_TIMEOUT":          time.Duration(0),

	"SEARCH_CACHE_TTL":        time.Hour,
	"SEARCH_CACHE_CAPACITY":   10000,
	"SEARCH_SAMPLE_SIZE":      5,
	"SEARCH_SINGLE_FLIGHT":    true,
	"SEARCH_WARM_QUERIES":     "",
	"SEARCH_WARM_CONCURRENCY": 4,

	"ALLOWED_ORIGINS": "*",

	"OTEL_SERVICE_NAME":    "jpo-search",
	"OTEL_SERVICE_VERSION": "1.0.0",
	"OTEL_ENDPOINT":        "",
	"OTEL_ENABLED":         false,
}

// Load loads configuration from environment variables, optionally layered
// over the file named by CONFIG_FILE.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Env:      v.GetString("APP_ENV"),
			LogLevel: v.GetString("LOG_LEVEL"),
		},
		Server: ServerConfig{
			Host: v.GetString("SERVER_HOST"),
			Port: v.GetInt("SERVER_PORT"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(v.GetString("DB_DRIVER")),
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			Database: v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
			Path:     v.GetString("DB_PATH"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		LLM: LLMConfig{
			Provider:       strings.ToLower(v.GetString("LLM_PROVIDER")),
			APIKey:         v.GetString("LLM_API_KEY"),
			BaseURL:        v.GetString("LLM_BASE_URL"),
			Model:          v.GetString("LLM_MODEL"),
			EmbeddingModel: v.GetString("LLM_EMBEDDING_MODEL"),
			Temperature:    v.GetFloat64("LLM_TEMPERATURE"),
			MaxTokens:      v.GetInt("LLM_MAX_TOKENS"),
			RateLimitRPM:   v.GetInt("LLM_RATE_LIMIT_RPM"),
			RateLimitBurst: v.GetInt("LLM_RATE_LIMIT_BURST"),
			Timeout:        v.GetDuration("LLM_TIMEOUT"),
		},
		Search: SearchConfig{
			CacheTTL:        v.GetDuration("SEARCH_CACHE_TTL"),
			CacheCapacity:   v.GetInt("SEARCH_CACHE_CAPACITY"),
			SampleSize:      v.GetInt("SEARCH_SAMPLE_SIZE"),
			SingleFlight:    v.GetBool("SEARCH_SINGLE_FLIGHT"),
			WarmQueries:     splitList(v.GetString("SEARCH_WARM_QUERIES")),
			WarmConcurrency: v.GetInt("SEARCH_WARM_CONCURRENCY"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("ALLOWED_ORIGINS")),
		},
		OTEL: OTELConfig{
			ServiceName:    v.GetString("OTEL_SERVICE_NAME"),
			ServiceVersion: v.GetString("OTEL_SERVICE_VERSION"),
			Endpoint:       v.GetString("OTEL_ENDPOINT"),
			Enabled:        v.GetBool("OTEL_ENABLED"),
		},
	}

	cfg.LLM.applyProviderDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.LLM.Provider {
	case ProviderMistral, ProviderOpenAI, ProviderGemini, ProviderNone:
	default:
		return fmt.Errorf("unsupported LLM_PROVIDER %q", c.LLM.Provider)
	}
	if c.Search.CacheTTL <= 0 {
		return fmt.Errorf("SEARCH_CACHE_TTL must be positive, got %s", c.Search.CacheTTL)
	}
	if c.Search.CacheCapacity <= 0 {
		return fmt.Errorf("SEARCH_CACHE_CAPACITY must be positive, got %d", c.Search.CacheCapacity)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("LLM_TIMEOUT must not be negative, got %s", c.LLM.Timeout)
	}
	if c.Search.SampleSize < 0 {
		return fmt.Errorf("SEARCH_SAMPLE_SIZE must not be negative, got %d", c.Search.SampleSize)
	}
	return nil
}

// RequireLLMKey reports an error when the configured provider needs an API key
// and none was supplied.
func (c *LLMConfig) RequireLLMKey() error {
	if c.Provider == ProviderNone || c.APIKey != "" {
		return nil
	}
	return fmt.Errorf("LLM_API_KEY is required for provider %q (set LLM_PROVIDER=none to run offline)", c.Provider)
}

func (c *LLMConfig) applyProviderDefaults() {
	switch c.Provider {
	case ProviderMistral:
		if c.BaseURL == "" {
			c.BaseURL = "https://api.mistral.ai/v1"
		}
		if c.Model == "" {
			c.Model = "mistral-large-latest"
		}
		if c.EmbeddingModel == "" {
			c.EmbeddingModel = "mistral-embed"
		}
	case ProviderOpenAI:
		if c.BaseURL == "" {
			c.BaseURL = "https://api.openai.com/v1"
		}
		if c.Model == "" {
			c.Model = "gpt-4o-mini"
		}
		if c.EmbeddingModel == "" {
			c.EmbeddingModel = "text-embedding-3-small"
		}
	case ProviderGemini:
		if c.Model == "" {
			c.Model = "gemini-2.0-flash"
		}
	}
}

// DatabaseDSN returns the connection string for the configured driver
func (c *DatabaseConfig) DatabaseDSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
