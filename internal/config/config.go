package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime settings for the news assistant service.
type Config struct {
	// Server configuration
	BindAddr         string        `envconfig:"APP_BIND_ADDR" default:":8080"`
	ShutdownTimeout  time.Duration `envconfig:"APP_SHUTDOWN_TIMEOUT" default:"15s"`
	MetricsNamespace string        `envconfig:"APP_METRICS_NAMESPACE" default:"akashvani"`
	AllowAnyOrigin   bool          `envconfig:"APP_ALLOW_ANY_ORIGIN" default:"false"`

	// OpenAI intent classification
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY" required:"true"`
	OpenAIModel     string `envconfig:"OPENAI_MODEL" default:"gpt-3.5-turbo"`
	OpenAIMaxTokens int    `envconfig:"OPENAI_MAX_TOKENS" default:"150"`

	// Deepgram speech-to-text and text-to-speech
	DeepgramAPIKey   string `envconfig:"DEEPGRAM_API_KEY" required:"true"`
	DeepgramModel    string `envconfig:"DEEPGRAM_MODEL" default:"nova-2"`
	DeepgramLanguage string `envconfig:"DEEPGRAM_LANGUAGE" default:"en-US"`

	// NewsAPI headlines
	NewsAPIKey  string `envconfig:"NEWS_API_KEY" required:"true"`
	NewsCountry string `envconfig:"NEWS_COUNTRY" default:"us"`

	// Outbound provider calls share one timeout.
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"30s"`

	// Synthesized audio blobs are one-shot; unclaimed ones are swept.
	AudioTTL           time.Duration `envconfig:"AUDIO_TTL" default:"5m"`
	AudioSweepInterval time.Duration `envconfig:"AUDIO_SWEEP_INTERVAL" default:"30s"`

	// Optional Postgres turn log. Empty keeps the in-memory store.
	DatabaseURL string `envconfig:"DATABASE_URL" default:""`

	// Observability
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty bool   `envconfig:"LOG_PRETTY" default:"false"`
}

// Load reads configuration from a .env file when present, then from the
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFromEnv()
}

// LoadFromEnv skips the .env lookup, for containerized deployments.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required")
	}
	if c.DeepgramAPIKey == "" {
		return fmt.Errorf("DEEPGRAM_API_KEY is required")
	}
	if c.NewsAPIKey == "" {
		return fmt.Errorf("NEWS_API_KEY is required")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.AudioTTL <= 0 {
		return fmt.Errorf("AUDIO_TTL must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("APP_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
