package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	DatabaseURL     string
	RedisURL        string
	CORSAllowOrigin []string

	// External APIs
	AlphaVantageAPIKey  string
	AlphaVantageBaseURL string
	FMPAPIKey           string
	DeepSeekAPIKey      string
	DeepSeekURL         string
	MassiveAPIKey       string
	MassiveBaseURL      string

	// AI settings
	AIMaxTokens   int
	AITemperature float64

	// Rate limiting (requests per minute)
	GeneralRateLimit int
	AIRateLimit      int
	SearchRateLimit  int

	// Stale-job sweeper
	JobStaleAfterMinutes int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		Env:             env,
		DatabaseURL:     dbURL,
		RedisURL:        getEnv("REDIS_URL", ""),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),

		AlphaVantageAPIKey:  getEnv("ALPHA_VANTAGE_API_KEY", ""),
		AlphaVantageBaseURL: getEnv("ALPHA_VANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
		FMPAPIKey:           getEnv("FMP_API_KEY", ""),
		DeepSeekAPIKey:      getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekURL:         getEnv("DEEPSEEK_URL", "https://api.deepseek.com/v1/chat/completions"),
		MassiveAPIKey:       getEnv("MASSIVE_API_KEY", ""),
		MassiveBaseURL:      getEnv("MASSIVE_BASE_URL", ""),

		AIMaxTokens:   getEnvInt("AI_MAX_TOKENS", 2000),
		AITemperature: getEnvFloat("AI_TEMPERATURE", 0.3),

		GeneralRateLimit: getEnvInt("GENERAL_RATE_LIMIT", 100),
		AIRateLimit:      getEnvInt("AI_RATE_LIMIT", 10),
		SearchRateLimit:  getEnvInt("SEARCH_RATE_LIMIT", 30),

		JobStaleAfterMinutes: getEnvInt("JOB_STALE_AFTER_MINUTES", 30),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
