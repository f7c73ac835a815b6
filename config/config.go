// Package config loads server configuration from the environment, with
// optional .env support for local development.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup.
type Config struct {
	Port        int
	DBPath      string
	LogLevel    string
	LogEncoding string
	CORSOrigins []string
}

// Load reads configuration from the environment. A .env file in the
// working directory is honored when present; real environment variables
// win over .env values.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:        envInt("PORT", 8080),
		DBPath:      envStr("DB_PATH", "leaves.db"),
		LogLevel:    envStr("LOG_LEVEL", "info"),
		LogEncoding: envStr("LOG_ENCODING", "json"),
		CORSOrigins: envList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return fallback
}
