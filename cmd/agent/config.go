package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AgentSettings is the config.yaml section controlling generation behavior.
type AgentSettings struct {
	MaxToolRounds int      `yaml:"max_tool_rounds"`
	MaxTokens     int      `yaml:"max_tokens"`
	Temperature   *float32 `yaml:"temperature"`
	TopP          *float32 `yaml:"top_p"`
}

// CacheSettings is the config.yaml section controlling the response cache.
// The TTL arrives as a duration string ("24h") and is parsed on load.
type CacheSettings struct {
	ResponseTTL string `yaml:"response_ttl"`
}

// FileConfig mirrors config.yaml.
type FileConfig struct {
	Agent AgentSettings `yaml:"agent"`
	Cache CacheSettings `yaml:"cache"`
}

// AppConfig holds all configuration for the agent, assembled from the
// environment and config.yaml. Secrets come from the environment only; the
// YAML file carries tunables that are safe to commit.
type AppConfig struct {
	Model          string
	OpenAIKey      string
	OpenAIBaseURL  string
	GeminiKey      string
	Port           string
	RedisAddr      string
	ExchangeAPIURL string
	Agent          AgentSettings
	ResponseTTL    time.Duration
}

// LoadConfig loads configuration from a .env file (local development only),
// environment variables, and config.yaml.
func LoadConfig() (*AppConfig, error) {
	// In release mode configuration is provided directly as environment
	// variables; only local development reads a .env file.
	if os.Getenv("GIN_MODE") != "release" {
		if err := godotenv.Load(); err != nil {
			log.Println("WARNING: No .env file found for local development.")
		}
	}

	cfg := &AppConfig{
		Model:          os.Getenv("MODEL"),
		OpenAIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:  os.Getenv("OPENAI_BASE_URL"),
		GeminiKey:      os.Getenv("GEMINI_API_KEY"),
		Port:           os.Getenv("PORT"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		ExchangeAPIURL: os.Getenv("EXCHANGE_API_URL"),
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("MODEL environment variable is not set")
	}
	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	fileCfg, err := loadFileConfig("config.yaml")
	if err != nil {
		return nil, err
	}
	cfg.Agent = fileCfg.Agent

	cfg.ResponseTTL = 24 * time.Hour
	if fileCfg.Cache.ResponseTTL != "" {
		ttl, err := time.ParseDuration(fileCfg.Cache.ResponseTTL)
		if err != nil {
			return nil, fmt.Errorf("invalid cache.response_ttl %q: %w", fileCfg.Cache.ResponseTTL, err)
		}
		cfg.ResponseTTL = ttl
	}

	return cfg, nil
}

func loadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var fileCfg FileConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &fileCfg, nil
}
