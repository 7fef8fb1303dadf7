package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	// Storage
	DatabasePath string
	UploadsDir   string
	CORSOrigins  string
	// LLM configuration
	AnthropicAPIKey  string
	DefaultChatModel string
	TitleModel       string
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")

	return &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  env,
		DatabasePath: getEnv("DATABASE_PATH", "skiff.db"),
		UploadsDir:   getEnv("UPLOADS_DIR", "uploads"),
		CORSOrigins:  getEnv("CORS_ORIGINS", "http://localhost:3000"),
		// LLM configuration
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		DefaultChatModel: getEnv("DEFAULT_CHAT_MODEL", "claude-sonnet-4-5"),
		TitleModel:       getEnv("TITLE_MODEL", "claude-haiku-4-5"),
		// Debug flags - default to true in dev/test, false in production
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true" // Enable DEBUG in dev/test by default
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
