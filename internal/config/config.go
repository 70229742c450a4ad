package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Features gated on configuration. A missing key disables only its feature.
const (
	FeatureChat     = "chat"
	FeatureStore    = "store"
	FeatureAuth     = "auth"
	FeatureRealtime = "realtime"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Logging
	LogLevel  string
	LogFormat string

	// Database
	DatabaseURL    string
	MigrationsPath string

	// Redis
	RedisURL string

	// Supabase auth
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string

	// Completion API
	LLMProvider     string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	OpenAIModel     string
	GeminiAPIKey    string
	GeminiModel     string
	ChatMaxTokens   int
	ChatTemperature float64
	ChatRatePerMin  int

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "development"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         getEnvOrDefault("LOG_FORMAT", "console"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		MigrationsPath:    getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		RedisURL:          os.Getenv("REDIS_URL"),
		SupabaseURL:       os.Getenv("SUPABASE_URL"),
		SupabaseAnonKey:   os.Getenv("SUPABASE_ANON_KEY"),
		SupabaseJWTSecret: os.Getenv("SUPABASE_JWT_SECRET"),
		LLMProvider:       strings.ToLower(getEnvOrDefault("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:     os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:       getEnvOrDefault("OPENAI_MODEL", "gpt-3.5-turbo"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		ChatMaxTokens:     getEnvAsIntOrDefault("CHAT_MAX_TOKENS", 500),
		ChatTemperature:   getEnvAsFloatOrDefault("CHAT_TEMPERATURE", 0.7),
		ChatRatePerMin:    getEnvAsIntOrDefault("CHAT_RATE_LIMIT_PER_MIN", 20),
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "http://localhost:3000"),
	}

	return cfg
}

// CompletionAPIKey returns the credential of the selected completion provider.
func (c *Config) CompletionAPIKey() string {
	if c.LLMProvider == "gemini" {
		return c.GeminiAPIKey
	}
	return c.OpenAIAPIKey
}

// Missing lists the unset environment variables a feature depends on.
func (c *Config) Missing(feature string) []string {
	var missing []string
	switch feature {
	case FeatureChat:
		if c.CompletionAPIKey() == "" {
			if c.LLMProvider == "gemini" {
				missing = append(missing, "GEMINI_API_KEY")
			} else {
				missing = append(missing, "OPENAI_API_KEY")
			}
		}
	case FeatureStore:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	case FeatureAuth:
		if c.SupabaseJWTSecret == "" {
			missing = append(missing, "SUPABASE_JWT_SECRET")
		}
	case FeatureRealtime:
		if c.RedisURL == "" {
			missing = append(missing, "REDIS_URL")
		}
		// Sockets authenticate with the same access tokens as the REST API.
		if c.SupabaseJWTSecret == "" {
			missing = append(missing, "SUPABASE_JWT_SECRET")
		}
	}
	return missing
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsFloatOrDefault(key string, defaultVal float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal
	}
	return f
}
