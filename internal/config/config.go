package config

import (
	"os"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	JWKSURL     string
	CORSOrigins string
	TablePrefix string
	// AI Configuration
	OpenAIAPIKey string
	DefaultModel string
	// Notification relay
	SocketURL string
	// Note streaming
	StreamBufferSize  int
	MaxNoteStreams    int64
	DefaultNoteLength int
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)

	return &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: env,
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWKSURL:     getEnv("JWKS_URL", ""),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix: tablePrefix,
		// AI Configuration
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		DefaultModel: getEnv("AI_MODEL", "gpt-4o"),
		// Notification relay
		SocketURL: getEnv("SOCKET_URL", ""),
		// Note streaming
		StreamBufferSize:  NoteStreamBufferTokens,
		MaxNoteStreams:    MaxConcurrentNoteStreams,
		DefaultNoteLength: DefaultNoteWordCount,
	}
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
