package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the PurrPal server.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	ML        MLConfig
	Chatbot   ChatbotConfig
	NATS      NATSConfig
	Geocode   GeocodeConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// MLConfig points at the external diagnosis services. A zero Timeout leaves
// outbound calls bounded only by the transport.
type MLConfig struct {
	Provider   string
	TabularURL string
	VisionURL  string
	Timeout    time.Duration
}

type ChatbotConfig struct {
	Provider   string
	Timeout    time.Duration
	HistoryTTL time.Duration
	Ollama     OllamaConfig
	VLLM       VLLMConfig
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
}

type OllamaConfig struct {
	BaseURL string
	Model   string
}

type VLLMConfig struct {
	BaseURL string
	Model   string
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

// NATSConfig enables diagnosis events. An empty URL disables publishing.
type NATSConfig struct {
	URL string
}

type GeocodeConfig struct {
	BaseURL  string
	CacheTTL time.Duration
}

type RateLimitConfig struct {
	PerUserPerMinute int
	AuthPerSecond    float64
	AuthBurst        int
}

type CORSConfig struct {
	AllowedOrigins []string
}

var validMLProviders = map[string]bool{
	"http": true,
	"mock": true,
}

var validChatbotProviders = map[string]bool{
	"ollama":    true,
	"vllm":      true,
	"openai":    true,
	"anthropic": true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("PURRPAL_PORT", 5000),
			Env:  envString("PURRPAL_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  envDuration("JWT_TTL", 7*24*time.Hour),
		},
		ML: MLConfig{
			Provider:   envString("ML_PROVIDER", "http"),
			TabularURL: strings.TrimRight(envString("ML_TABULAR_SERVICE_URL", "http://localhost:8001"), "/"),
			VisionURL:  strings.TrimRight(envString("ML_VISION_SERVICE_URL", "http://localhost:8002"), "/"),
			Timeout:    envDuration("ML_TIMEOUT", 0),
		},
		Chatbot: ChatbotConfig{
			Provider:   os.Getenv("CHATBOT_PROVIDER"),
			Timeout:    envDurationSecs("CHATBOT_TIMEOUT_SECS", 60*time.Second),
			HistoryTTL: envDuration("CHATBOT_HISTORY_TTL", 24*time.Hour),
			Ollama: OllamaConfig{
				BaseURL: envString("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   envString("OLLAMA_MODEL", "llama3"),
			},
			VLLM: VLLMConfig{
				BaseURL: envString("VLLM_BASE_URL", "http://localhost:8000"),
				Model:   envString("VLLM_MODEL", ""),
			},
			OpenAI: OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  envString("OPENAI_MODEL", "gpt-4o-mini"),
			},
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		NATS: NATSConfig{
			URL: os.Getenv("NATS_URL"),
		},
		Geocode: GeocodeConfig{
			BaseURL:  strings.TrimRight(envString("NOMINATIM_BASE_URL", "https://nominatim.openstreetmap.org"), "/"),
			CacheTTL: envDuration("GEOCODE_CACHE_TTL", 24*time.Hour),
		},
		RateLimit: RateLimitConfig{
			PerUserPerMinute: envInt("RATE_LIMIT_PER_MIN", 60),
			AuthPerSecond:    envFloat("AUTH_RATE_PER_SEC", 5),
			AuthBurst:        envInt("AUTH_RATE_BURST", 10),
		},
		CORS: CORSConfig{
			AllowedOrigins: envList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if !validMLProviders[c.ML.Provider] {
		return fmt.Errorf("ML_PROVIDER must be one of http, mock; got %q", c.ML.Provider)
	}
	if err := requireHTTP("ML_TABULAR_SERVICE_URL", c.ML.TabularURL); err != nil {
		return err
	}
	if err := requireHTTP("ML_VISION_SERVICE_URL", c.ML.VisionURL); err != nil {
		return err
	}
	if c.ML.Timeout < 0 {
		return fmt.Errorf("ML_TIMEOUT must not be negative, got %s", c.ML.Timeout)
	}

	if c.Chatbot.Provider != "" {
		if !validChatbotProviders[c.Chatbot.Provider] {
			return fmt.Errorf("CHATBOT_PROVIDER must be one of ollama, vllm, openai, anthropic; got %q", c.Chatbot.Provider)
		}
		if c.Chatbot.Provider == "openai" && c.Chatbot.OpenAI.APIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when CHATBOT_PROVIDER is openai")
		}
		if c.Chatbot.Provider == "anthropic" && c.Chatbot.Anthropic.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required when CHATBOT_PROVIDER is anthropic")
		}
	}

	if err := requireHTTP("NOMINATIM_BASE_URL", c.Geocode.BaseURL); err != nil {
		return err
	}

	if c.RateLimit.PerUserPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MIN must be positive, got %d", c.RateLimit.PerUserPerMinute)
	}

	return nil
}

func requireHTTP(key, v string) error {
	if !strings.HasPrefix(v, "http://") && !strings.HasPrefix(v, "https://") {
		return fmt.Errorf("%s must start with http:// or https://, got %q", key, v)
	}
	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}

func envList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
