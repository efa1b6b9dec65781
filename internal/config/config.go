package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendFirestore = "firestore"
	BackendMongo     = "mongo"
	BackendMemory    = "memory"
)

type Config struct {
	Port string

	StoreBackend  string
	ProjectID     string
	MongoURI      string
	MongoDatabase string

	JWTSecret string
	JWTTTL    time.Duration

	LLMAPIKey  string
	LLMBaseURL string
	LLMModel   string

	LineChannelToken  string
	LineChannelSecret string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment and checks that
// every backend it selects is fully configured.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:              getenv("PORT", "8080"),
		StoreBackend:      getenv("STORE_BACKEND", BackendFirestore),
		ProjectID:         os.Getenv("GOOGLE_CLOUD_PROJECT"),
		MongoURI:          os.Getenv("MONGODB_URI"),
		MongoDatabase:     getenv("MONGODB_DATABASE", "beefriend"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		LLMAPIKey:         os.Getenv("LLM_API_KEY"),
		LLMBaseURL:        getenv("LLM_BASE_URL", "https://api.groq.com/openai/v1"),
		LLMModel:          getenv("LLM_MODEL", "llama3-70b-8192"),
		LineChannelToken:  os.Getenv("LINE_CHANNEL_TOKEN"),
		LineChannelSecret: os.Getenv("LINE_CHANNEL_SECRET"),
	}

	ttl, err := time.ParseDuration(getenv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_TTL: %v", err)
	}
	cfg.JWTTTL = ttl

	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET environment variable is required")
	}

	switch cfg.StoreBackend {
	case BackendFirestore:
		if cfg.ProjectID == "" {
			return nil, errors.New("GOOGLE_CLOUD_PROJECT environment variable is required")
		}
	case BackendMongo:
		if cfg.MongoURI == "" {
			return nil, errors.New("MONGODB_URI environment variable is required")
		}
	case BackendMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}

	if (cfg.LineChannelToken == "") != (cfg.LineChannelSecret == "") {
		return nil, errors.New("LINE_CHANNEL_TOKEN and LINE_CHANNEL_SECRET must be set together")
	}

	return cfg, nil
}

// CompanionEnabled reports whether an LLM key is configured.
func (c *Config) CompanionEnabled() bool {
	return c.LLMAPIKey != ""
}

// LineEnabled reports whether the LINE webhook should be served.
func (c *Config) LineEnabled() bool {
	return c.LineChannelToken != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
