// Package config loads EventNexus configuration from the environment and an
// optional YAML file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider identifies an embedding or LLM backend.
type Provider string

const (
	ProviderNone      Provider = "none"
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// Weights mirrors the scorer weights so they can be tuned from config.
type Weights struct {
	Interests float64 `yaml:"interests"`
	Industry  float64 `yaml:"industry"`
	Company   float64 `yaml:"company"`
	Role      float64 `yaml:"role"`
}

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Embeddings
	EmbedProvider  Provider `yaml:"embed_provider"`
	EmbedModel     string   `yaml:"embed_model"`
	EmbedDimension int      `yaml:"embed_dimension"`
	OllamaHost     string   `yaml:"ollama_host"`
	OpenAIAPIKey   string   `yaml:"-"`

	// Answer generation
	LLMProvider     Provider `yaml:"llm_provider"`
	LLMModel        string   `yaml:"llm_model"`
	AnthropicAPIKey string   `yaml:"-"`

	// Retrieval and answers
	TopK           int           `yaml:"top_k"`
	DenseTimeout   time.Duration `yaml:"dense_timeout"`
	MinRelevance   float64       `yaml:"min_relevance"`
	MaxContextDocs int           `yaml:"max_context_docs"`

	// Networking
	Weights      Weights `yaml:"weights"`
	NetworkLimit int     `yaml:"network_limit"`

	// HTTP API
	HTTPAddr           string   `yaml:"http_addr"`
	CORSOrigins        []string `yaml:"cors_origins"`
	RateLimitPerSecond float64  `yaml:"rate_limit_per_second"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
	ServerURL          string   `yaml:"server_url"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		SurrealDBURL:       "ws://localhost:8000/rpc",
		SurrealDBNamespace: "eventnexus",
		SurrealDBDatabase:  "platform",
		SurrealDBUser:      "root",
		SurrealDBPass:      "root",
		SurrealDBAuthLevel: "root",

		EmbedProvider:  ProviderOllama,
		EmbedModel:     "all-minilm:l6-v2",
		EmbedDimension: 384,
		OllamaHost:     "http://localhost:11434",

		LLMProvider: ProviderNone,
		LLMModel:    "llama3.2",

		TopK:           5,
		DenseTimeout:   5 * time.Second,
		MinRelevance:   0.05,
		MaxContextDocs: 3,

		Weights:      Weights{Interests: 0.5, Industry: 0.25, Company: 0.1, Role: 0.15},
		NetworkLimit: 3,

		HTTPAddr:           ":8080",
		CORSOrigins:        []string{"*"},
		RateLimitPerSecond: 20,
		RateLimitBurst:     40,
		ServerURL:          "http://localhost:8080",

		LogFile:  "/tmp/eventnexus.log",
		LogLevel: slog.LevelInfo,
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// EVENTNEXUS_CONFIG (if set), then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := os.Getenv("EVENTNEXUS_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

// overlay is the YAML file shape. Only fields present in the file are applied.
type overlay struct {
	Config   `yaml:",inline"`
	LogLevel string `yaml:"log_level"`
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	o := overlay{Config: *c}
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	level := c.LogLevel
	*c = o.Config
	c.LogLevel = level
	if o.LogLevel != "" {
		c.LogLevel = parseLogLevel(o.LogLevel)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.SurrealDBURL = getEnv("SURREALDB_URL", c.SurrealDBURL)
	c.SurrealDBNamespace = getEnv("SURREALDB_NAMESPACE", c.SurrealDBNamespace)
	c.SurrealDBDatabase = getEnv("SURREALDB_DATABASE", c.SurrealDBDatabase)
	c.SurrealDBUser = getEnv("SURREALDB_USER", c.SurrealDBUser)
	c.SurrealDBPass = getEnv("SURREALDB_PASS", c.SurrealDBPass)
	c.SurrealDBAuthLevel = getEnv("SURREALDB_AUTH_LEVEL", c.SurrealDBAuthLevel)

	c.EmbedProvider = Provider(strings.ToLower(getEnv("EVENTNEXUS_EMBED_PROVIDER", string(c.EmbedProvider))))
	c.EmbedModel = getEnv("EVENTNEXUS_EMBED_MODEL", c.EmbedModel)
	c.EmbedDimension = getEnvInt("EVENTNEXUS_EMBED_DIMENSION", c.EmbedDimension)
	c.OllamaHost = getEnv("OLLAMA_HOST", c.OllamaHost)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)

	c.LLMProvider = Provider(strings.ToLower(getEnv("EVENTNEXUS_LLM_PROVIDER", string(c.LLMProvider))))
	c.LLMModel = getEnv("EVENTNEXUS_LLM_MODEL", c.LLMModel)
	c.AnthropicAPIKey = getEnv("ANTHROPIC_API_KEY", c.AnthropicAPIKey)

	c.TopK = getEnvInt("EVENTNEXUS_TOP_K", c.TopK)
	c.DenseTimeout = getEnvDuration("EVENTNEXUS_DENSE_TIMEOUT", c.DenseTimeout)
	c.MinRelevance = getEnvFloat("EVENTNEXUS_MIN_RELEVANCE", c.MinRelevance)
	c.MaxContextDocs = getEnvInt("EVENTNEXUS_MAX_CONTEXT_DOCS", c.MaxContextDocs)
	c.NetworkLimit = getEnvInt("EVENTNEXUS_NETWORK_LIMIT", c.NetworkLimit)

	c.HTTPAddr = getEnv("EVENTNEXUS_HTTP_ADDR", c.HTTPAddr)
	if origins := os.Getenv("EVENTNEXUS_CORS_ORIGINS"); origins != "" {
		c.CORSOrigins = splitList(origins)
	}
	c.RateLimitPerSecond = getEnvFloat("EVENTNEXUS_RATE_LIMIT", c.RateLimitPerSecond)
	c.RateLimitBurst = getEnvInt("EVENTNEXUS_RATE_BURST", c.RateLimitBurst)
	c.ServerURL = getEnv("EVENTNEXUS_SERVER_URL", c.ServerURL)

	c.LogFile = getEnv("EVENTNEXUS_LOG_FILE", c.LogFile)
	if level := os.Getenv("EVENTNEXUS_LOG_LEVEL"); level != "" {
		c.LogLevel = parseLogLevel(level)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
		slog.Warn("invalid integer in environment, using default", "key", key, "value", val)
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
		slog.Warn("invalid number in environment, using default", "key", key, "value", val)
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		slog.Warn("invalid duration in environment, using default", "key", key, "value", val)
	}
	return defaultVal
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
