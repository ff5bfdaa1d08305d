package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/bsagevedant/akashvani-ai/internal/assistant"
	"github.com/bsagevedant/akashvani-ai/internal/audiostore"
	"github.com/bsagevedant/akashvani-ai/internal/config"
	"github.com/bsagevedant/akashvani-ai/internal/httpapi"
	"github.com/bsagevedant/akashvani-ai/internal/intent"
	"github.com/bsagevedant/akashvani-ai/internal/memory"
	"github.com/bsagevedant/akashvani-ai/internal/news"
	"github.com/bsagevedant/akashvani-ai/internal/observability"
	"github.com/bsagevedant/akashvani-ai/internal/speech"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	turnStore, err := memory.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("turn store init failed")
	}
	defer turnStore.Close()

	classifier := intent.NewClassifier(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIMaxTokens)
	newsClient := news.NewNewsAPIClient(cfg.NewsAPIKey, cfg.ProviderTimeout)
	deepgram := speech.NewDeepgramProvider(speech.DeepgramConfig{
		APIKey:   cfg.DeepgramAPIKey,
		STTModel: cfg.DeepgramModel,
		Language: cfg.DeepgramLanguage,
		Timeout:  cfg.ProviderTimeout,
	})

	orchestrator := assistant.New(classifier, newsClient, deepgram, deepgram, turnStore, metrics, cfg.NewsCountry)

	blobs := audiostore.New(cfg.AudioTTL)
	blobs.SetEvictHook(func(count int) {
		metrics.AudioBlobsSwept.Add(float64(count))
		metrics.PendingAudioBlobs.Set(float64(blobs.Len()))
	})

	api := httpapi.New(cfg, orchestrator, newsClient, blobs, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	blobs.StartJanitor(runCtx, cfg.AudioSweepInterval)

	go func() {
		log.Info().Str("addr", cfg.BindAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen error")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown failed")
		_ = httpServer.Close()
	}

	log.Info().Msg("shutdown complete")
}
