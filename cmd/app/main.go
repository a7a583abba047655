package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clinical-consult-assistant/internal/config"
	"clinical-consult-assistant/internal/domain/ports/adapter"
	"clinical-consult-assistant/internal/domain/ports/repository"
	aiAdapters "clinical-consult-assistant/internal/infra/adapters/ai"
	"clinical-consult-assistant/internal/infra/adapters/doc"
	apiv1 "clinical-consult-assistant/internal/infra/api/apiv1"
	"clinical-consult-assistant/internal/infra/extract"
	"clinical-consult-assistant/internal/infra/logging"
	"clinical-consult-assistant/internal/infra/memory"
	"clinical-consult-assistant/internal/infra/metrics"
	red "clinical-consult-assistant/internal/infra/redis"
	"clinical-consult-assistant/internal/usecase"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop completion adapter, no credential needed)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}
	metrics.MustRegister()

	// ---- Session store ----
	var sessions repository.ConsultSessionRepository
	if cfg.Redis.URL != "" {
		redisClient, err := red.NewClient(ctx, &cfg.Redis)
		if err != nil {
			logger.Fatal().Err(err).Msg("redis")
		}
		defer redisClient.Close()
		sessions = red.NewSessionRepo(redisClient, cfg.Redis.TTL)
		logger.Info().Str("backend", "redis").Dur("ttl", cfg.Redis.TTL).Msg("session store ready")
	} else {
		sessions = memory.NewSessionRepo()
		logger.Info().Str("backend", "memory").Msg("session store ready")
	}

	// ---- Completion adapter ----
	var completions adapter.CompletionAdapter
	if cfg.Runtime.Dev && cfg.AI.OpenAIKey == "" {
		completions = aiAdapters.NewNoopCompletionAdapter()
		logger.Warn().Msg("no credential: using noop completion adapter")
	} else {
		completions, err = aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("openai adapter")
		}
		logger.Info().Str("model", cfg.AI.Model).Msg("completion adapter: OpenAI")
	}
	completions = aiAdapters.NewLimitedCompletion(completions, cfg.AI.ConcurrentLimit)

	// ---- Use cases ----
	pipeline := usecase.NewDiagnosisPipeline(completions, cfg.AI.Model, cfg.AI.Temperature)
	consultUC := usecase.NewConsultUseCase(sessions, pipeline, doc.NewPDFExtractor(), extract.NewRegexSnapshotExtractor(), logger)

	// ---- HTTP server ----
	srv := apiv1.NewServer(consultUC, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: srv.Router(),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()
	logger.Info().Int("port", cfg.Server.Port).Msg("http server listening")

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server")
		}
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancelShutdown()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown")
		}
	}
	logger.Info().Msg("bye")
}
