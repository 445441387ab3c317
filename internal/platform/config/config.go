// Package config loads application configuration from environment variables.
// All variables use the MEDLEARN_ prefix; a few legacy names from the earlier
// deployment (FRONTEND_URL, HUGGINGFACE_TOKEN) are honoured as aliases.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	CORS     CORSConfig
	Database DatabaseConfig
	Cache    CacheConfig
	AI       AIConfig
	Media    MediaConfig
	TTS      TTSConfig
	Log      LogConfig

	FallbackPath  string
	ExportEnabled bool
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CORSConfig holds cross-origin settings.
type CORSConfig struct {
	FrontendURL string
}

// DatabaseConfig holds session store settings. URL is a postgres:// URL,
// a sqlite:// path, or the literal "memory".
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings. An empty URL disables the cache.
type CacheConfig struct {
	URL string
	TTL time.Duration
}

// AIConfig holds configuration for the content-generation providers.
type AIConfig struct {
	HuggingFace HuggingFaceConfig
	OpenAI      OpenAIConfig
	OpenRouter  OpenRouterConfig
	Ollama      OllamaConfig
	Timeout     time.Duration
}

// HuggingFaceConfig holds the Hugging Face inference router settings.
type HuggingFaceConfig struct {
	Token   string
	Model   string
	BaseURL string
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string
}

// OpenRouterConfig holds OpenRouter provider settings.
type OpenRouterConfig struct {
	APIKey string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
}

// MediaConfig holds image and static asset settings.
type MediaConfig struct {
	StaticDir          string
	ImageBaseURL       string
	PlaceholderBaseURL string
}

// AudioDir is where narration files are written.
func (m MediaConfig) AudioDir() string {
	return strings.TrimSuffix(m.StaticDir, "/") + "/audio"
}

// TTSConfig holds Google Cloud text-to-speech settings.
type TTSConfig struct {
	GoogleAPIKey string
	Voice        string
	LanguageCode string
	Timeout      time.Duration
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with MEDLEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("MEDLEARN_SERVER_PORT", 8000),
			Host: envStr("MEDLEARN_SERVER_HOST", "0.0.0.0"),
		},
		CORS: CORSConfig{
			FrontendURL: envStr("MEDLEARN_FRONTEND_URL", envStr("FRONTEND_URL", "http://localhost:5173")),
		},
		Database: DatabaseConfig{
			URL:      envStr("MEDLEARN_DATABASE_URL", "sqlite://data/medlearn.db"),
			MaxConns: envInt("MEDLEARN_DATABASE_MAX_CONNS", 10),
			MinConns: envInt("MEDLEARN_DATABASE_MIN_CONNS", 1),
		},
		Cache: CacheConfig{
			URL: envStr("MEDLEARN_CACHE_URL", ""),
			TTL: envSeconds("MEDLEARN_CACHE_TTL", time.Hour),
		},
		AI: AIConfig{
			HuggingFace: HuggingFaceConfig{
				Token:   envStr("MEDLEARN_AI_HUGGINGFACE_TOKEN", envStr("HUGGINGFACE_TOKEN", "")),
				Model:   envStr("MEDLEARN_AI_HUGGINGFACE_MODEL", "mistralai/Mistral-7B-Instruct-v0.2"),
				BaseURL: envStr("MEDLEARN_AI_HUGGINGFACE_BASE_URL", "https://router.huggingface.co/v1"),
			},
			OpenAI: OpenAIConfig{
				APIKey: envStr("MEDLEARN_AI_OPENAI_API_KEY", ""),
			},
			OpenRouter: OpenRouterConfig{
				APIKey: envStr("MEDLEARN_AI_OPENROUTER_API_KEY", ""),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("MEDLEARN_AI_OLLAMA_ENABLED", false),
				URL:     envStr("MEDLEARN_AI_OLLAMA_URL", "http://localhost:11434"),
			},
			Timeout: envSeconds("MEDLEARN_AI_TIMEOUT", 60*time.Second),
		},
		Media: MediaConfig{
			StaticDir:          envStr("MEDLEARN_MEDIA_STATIC_DIR", "static"),
			ImageBaseURL:       envStr("MEDLEARN_MEDIA_IMAGE_BASE_URL", "https://image.pollinations.ai/prompt"),
			PlaceholderBaseURL: envStr("MEDLEARN_MEDIA_PLACEHOLDER_BASE_URL", "https://via.placeholder.com/800x500/4F46E5/FFFFFF"),
		},
		TTS: TTSConfig{
			GoogleAPIKey: envStr("MEDLEARN_TTS_GOOGLE_API_KEY", ""),
			Voice:        envStr("MEDLEARN_TTS_VOICE", "en-US-Neural2-F"),
			LanguageCode: envStr("MEDLEARN_TTS_LANGUAGE", "en-US"),
			Timeout:      envSeconds("MEDLEARN_TTS_TIMEOUT", 30*time.Second),
		},
		Log: LogConfig{
			Level:  envStr("MEDLEARN_LOG_LEVEL", "info"),
			Format: envStr("MEDLEARN_LOG_FORMAT", "json"),
		},
		FallbackPath:  envStr("MEDLEARN_FALLBACK_PATH", ""),
		ExportEnabled: envBool("MEDLEARN_EXPORT_ENABLED", false),
	}

	return cfg, nil
}

// Validate checks that the configuration is usable. A missing AI credential
// is not an error: lessons are then served from fallback content.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("MEDLEARN_SERVER_PORT must be in 1..65535, got %d", c.Server.Port)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("MEDLEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	u := c.Database.URL
	if u != "memory" && !strings.HasPrefix(u, "postgres://") && !strings.HasPrefix(u, "postgresql://") && !strings.HasPrefix(u, "sqlite://") {
		return fmt.Errorf("MEDLEARN_DATABASE_URL must be postgres://, sqlite:// or memory, got %q", u)
	}

	if c.AI.Timeout <= 0 {
		return fmt.Errorf("MEDLEARN_AI_TIMEOUT must be positive")
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.HuggingFace.Token != "" ||
		c.AI.OpenAI.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

// envSeconds reads a whole number of seconds.
func envSeconds(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}
