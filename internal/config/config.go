// Package config loads the service configuration from the environment,
// honoring a local .env file when one is present.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/figplay/bridge/internal/figma"
)

// Config holds everything the bridge needs to run.
type Config struct {
	// ListenAddr is the HTTP listen address for the API server.
	ListenAddr string

	// DBPath is the SQLite database file. Empty disables persistence:
	// the proxy endpoints stay up but nothing is saved or recorded.
	DBPath string

	// CORSOrigins are the allowed browser origins. "*" allows any.
	CORSOrigins []string

	// FigmaBaseURL is the upstream API base. Only tests should need to
	// change it.
	FigmaBaseURL string
}

// Load reads the environment (and .env, if present) into a Config.
func Load() *Config {
	godotenv.Load()

	return &Config{
		ListenAddr:   getEnvWithDefault("LISTEN_ADDR", ":8000"),
		DBPath:       os.Getenv("DB_PATH"),
		CORSOrigins:  splitOrigins(getEnvWithDefault("CORS_ORIGINS", "*")),
		FigmaBaseURL: getEnvWithDefault("FIGMA_BASE_URL", figma.DefaultBaseURL),
	}
}

// PersistenceEnabled reports whether a database is configured.
func (c *Config) PersistenceEnabled() bool {
	return c.DBPath != ""
}

func getEnvWithDefault(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}

	return defaultValue
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}
