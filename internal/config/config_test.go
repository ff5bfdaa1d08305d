package config

import (
	"os"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("OPENAI_API_KEY", "test-openai-key")
	t.Setenv("DEEPGRAM_API_KEY", "test-deepgram-key")
	t.Setenv("NEWS_API_KEY", "test-news-key")
}

func TestLoadFromEnv(t *testing.T) {
	setRequired(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.OpenAIAPIKey != "test-openai-key" {
		t.Fatalf("OpenAIAPIKey = %q", cfg.OpenAIAPIKey)
	}
	if cfg.DeepgramAPIKey != "test-deepgram-key" {
		t.Fatalf("DeepgramAPIKey = %q", cfg.DeepgramAPIKey)
	}
}

func TestLoadFromEnvDefaults(t *testing.T) {
	setRequired(t)
	os.Unsetenv("APP_BIND_ADDR")
	os.Unsetenv("PROVIDER_TIMEOUT")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.DeepgramModel != "nova-2" || cfg.DeepgramLanguage != "en-US" {
		t.Fatalf("deepgram defaults = %q/%q", cfg.DeepgramModel, cfg.DeepgramLanguage)
	}
	if cfg.OpenAIModel != "gpt-3.5-turbo" || cfg.OpenAIMaxTokens != 150 {
		t.Fatalf("openai defaults = %q/%d", cfg.OpenAIModel, cfg.OpenAIMaxTokens)
	}
	if cfg.NewsCountry != "us" {
		t.Fatalf("NewsCountry = %q, want us", cfg.NewsCountry)
	}
	if cfg.ProviderTimeout != 30*time.Second {
		t.Fatalf("ProviderTimeout = %v, want 30s", cfg.ProviderTimeout)
	}
	if cfg.AudioTTL != 5*time.Minute || cfg.AudioSweepInterval != 30*time.Second {
		t.Fatalf("audio defaults = %v/%v", cfg.AudioTTL, cfg.AudioSweepInterval)
	}
	if cfg.MetricsNamespace != "akashvani" {
		t.Fatalf("MetricsNamespace = %q", cfg.MetricsNamespace)
	}
	if cfg.LogLevel != "info" || cfg.LogPretty {
		t.Fatalf("log defaults = %q/%v", cfg.LogLevel, cfg.LogPretty)
	}
}

func TestLoadFromEnvMissingRequired(t *testing.T) {
	setRequired(t)
	t.Setenv("NEWS_API_KEY", "")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error when NEWS_API_KEY is missing")
	}
}

func TestLoadFromEnvRejectsNonPositiveTimeout(t *testing.T) {
	setRequired(t)
	t.Setenv("PROVIDER_TIMEOUT", "0s")

	if _, err := LoadFromEnv(); err == nil {
		t.Fatalf("expected error for zero provider timeout")
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("APP_BIND_ADDR", ":9090")
	t.Setenv("AUDIO_TTL", "2m")
	t.Setenv("DATABASE_URL", "postgres://localhost/akashvani")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv() error = %v", err)
	}
	if cfg.BindAddr != ":9090" {
		t.Fatalf("BindAddr = %q", cfg.BindAddr)
	}
	if cfg.AudioTTL != 2*time.Minute {
		t.Fatalf("AudioTTL = %v", cfg.AudioTTL)
	}
	if cfg.DatabaseURL == "" {
		t.Fatalf("DATABASE_URL override lost")
	}
}
