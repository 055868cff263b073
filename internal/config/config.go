package config

import (
	"os"
	"strconv"
	"strings"

	"wowroster/internal/parser"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	StartMarker   string
	EndMarker     string
	DefaultOutput string
	Format        string
	WorkerCount   int
	DatabaseURL   string
	LogLevel      string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	return &Config{
		StartMarker:   unescape(getEnv("ROSTER_START_MARKER", parser.DefaultStartMarker)),
		EndMarker:     unescape(getEnv("ROSTER_END_MARKER", parser.DefaultEndMarker)),
		DefaultOutput: getEnv("ROSTER_OUTPUT", "characters.csv"),
		Format:        getEnv("ROSTER_FORMAT", ""),
		WorkerCount:   getEnvInt("WORKER_COUNT", 4),
		DatabaseURL:   getEnv("DATABASE_URL", "postgres://localhost:5432/wowroster?sslmode=disable"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer, using default")
		return fallback
	}
	return n
}

// unescape lets markers spanning lines be written as `\n` in a .env file.
func unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}
