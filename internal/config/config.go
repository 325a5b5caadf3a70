// Package config loads the service configuration from the environment.
// A .env file in the working directory is honored when present, so local
// development matches the deployed environment-variable surface.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default front-end origins allowed to call /api/* with credentials.
// Overridable via ALLOWED_ORIGINS.
var defaultAllowedOrigins = []string{
	"https://systemstock.vercel.app",
	"https://frontend-stock-system-demo.vercel.app",
	"http://localhost:3000",
}

// Config holds every tunable of the query service.
type Config struct {
	// Document store
	MongoURI        string
	MongoDB         string
	MongoCollection string
	SearchField     string

	// Hosted completion API
	OpenAIAPIKey   string
	OpenAIModel    string
	EmbeddingModel string
	// OpenAIFallthrough controls whether a hosted-API failure degrades to
	// the next backend in the chain instead of surfacing as a hard error.
	OpenAIFallthrough bool

	// Local inference daemon
	OllamaEnabled bool
	OllamaModel   string
	OllamaHost    string

	// Retrieval index
	IndexEnabled bool
	IndexTopK    int
	InitCooldown time.Duration

	// HTTP
	Port           int
	AllowedOrigins []string

	// Timeouts
	PingTimeout  time.Duration
	LoadTimeout  time.Duration
	ModelTimeout time.Duration

	LogLevel string
}

// Load reads configuration from the environment, applying defaults for
// everything that is unset. It never fails: a missing .env file is fine
// and every variable has a usable default except MONGO_URI, whose absence
// is surfaced later through the readiness flag.
func Load() *Config {
	// Best effort; the environment wins over the file.
	_ = godotenv.Load()

	return &Config{
		MongoURI:        strings.TrimSpace(os.Getenv("MONGO_URI")),
		MongoDB:         getEnv("MONGO_DB", "system-stock"),
		MongoCollection: getEnv("MONGO_COLLECTION", "articles"),
		SearchField:     getEnv("SEARCH_FIELD", "name"),

		OpenAIAPIKey:      strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		EmbeddingModel:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		OpenAIFallthrough: getEnvBool("OPENAI_FALLTHROUGH", true),

		OllamaEnabled: getEnvBool("OLLAMA_ENABLED", false),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3"),
		OllamaHost:    getEnv("OLLAMA_HOST", "http://localhost:11434"),

		IndexEnabled: getEnvBool("INDEX_ENABLED", true),
		IndexTopK:    getEnvInt("INDEX_TOP_K", 4),
		InitCooldown: getEnvDuration("INIT_COOLDOWN", 30*time.Second),

		Port:           getEnvInt("PORT", 10000),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS", defaultAllowedOrigins),

		PingTimeout:  getEnvDuration("PING_TIMEOUT", 8*time.Second),
		LoadTimeout:  getEnvDuration("LOAD_TIMEOUT", 30*time.Second),
		ModelTimeout: getEnvDuration("MODEL_TIMEOUT", 60*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// MongoConfigured reports whether a store connection string is present.
func (c *Config) MongoConfigured() bool {
	return c.MongoURI != ""
}

// OpenAIConfigured reports whether the hosted-API credential is present.
func (c *Config) OpenAIConfigured() bool {
	return c.OpenAIAPIKey != ""
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvList(key string, fallback []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
