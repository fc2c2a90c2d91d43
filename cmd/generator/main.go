package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ocf-deckgen/internal/api"
	"ocf-deckgen/internal/config"
	"ocf-deckgen/internal/generation"
	"ocf-deckgen/internal/jobs"
	"ocf-deckgen/internal/llm"
	"ocf-deckgen/internal/logging"
	"ocf-deckgen/internal/metrics"
	"ocf-deckgen/internal/storage"
	"ocf-deckgen/internal/worker"
	pkgstorage "ocf-deckgen/pkg/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// .env est optionnel
	envErr := godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Environment, cfg.LogLevel)

	if envErr != nil {
		logger.Debug().Err(envErr).Msg("No .env file loaded")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.NewRecorder(registry)

	gateway, err := llm.NewGateway(cfg.LLM, recorder)
	if err != nil {
		logger.Fatal().Err(err).Str("provider", cfg.LLM.Provider).Msg("Failed to initialize LLM gateway")
	}

	// Export des decks terminés, désactivé avec STORAGE_TYPE=none
	backend, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Str("storage_type", cfg.Storage.Type).Msg("Failed to initialize storage")
	}

	store := jobs.NewStore(logger)

	opts := []generation.Option{generation.WithRecorder(recorder)}
	var results api.ResultStore
	if backend != nil {
		resultService := storage.NewResultService(backend)
		opts = append(opts, generation.WithResultSink(resultService))
		results = resultService
	}

	orchestrator := generation.NewOrchestrator(gateway, store, generation.Config{
		MaxParallelSlides: cfg.MaxParallelSlides,
		MaxOutputTokens:   cfg.LLM.MaxOutputTokens,
	}, logger, opts...)

	pool := worker.NewWorkerPool(orchestrator, &worker.PoolConfig{JobTimeout: cfg.JobTimeout}, logger)

	cleanupService := jobs.NewCleanupService(store, cfg.CleanupInterval, cfg.JobRetention, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanupService.Start(ctx)

	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.SetupRouter(api.RouterDeps{
		JobService:     store,
		Dispatcher:     pool,
		Results:        results,
		Gatherer:       registry,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	event := logger.Info().
		Str("port", cfg.Port).
		Str("provider", cfg.LLM.Provider).
		Str("model", cfg.LLM.Model).
		Str("storage_type", cfg.Storage.Type)
	if cfg.Storage.Type == pkgstorage.TypeFilesystem {
		event = event.Str("storage_path", cfg.Storage.BasePath)
	}
	event.Msg("Starting ocf-deckgen")

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Fatal().Err(err).Msg("Server failed")
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// Les générations en cours vont au bout tant que le délai le permet
	if err := pool.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Worker pool stopped before all jobs finished")
	}

	cleanupService.Stop()
	cancel()

	logger.Info().Msg("Server shutdown complete")
}
