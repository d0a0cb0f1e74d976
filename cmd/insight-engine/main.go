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

	"insight-engine/internal/api"
	"insight-engine/internal/config"
	"insight-engine/internal/embedding"
	"insight-engine/internal/llm"
	"insight-engine/internal/rag/cache"
	"insight-engine/internal/rag/index"
	"insight-engine/internal/rag/pipeline"
	"insight-engine/internal/rag/splitters"
	"insight-engine/internal/service"
	"insight-engine/pkg/circuitbreaker"
	"insight-engine/pkg/logger"
	"insight-engine/pkg/ratelimiter"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Initialize Logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	appLogger := logger.New("InsightEngine", "")
	appLogger.Info("Starting Insight Engine...")

	// 3. Initialize model clients
	embedder, err := embedding.NewModel(cfg.Embedding)
	if err != nil {
		log.Fatalf("Failed to create embedding client: %v", err)
	}

	llmClient, err := llm.NewClient(cfg.LLM)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	// 4. Optional middleware: rate limiter paces embedding calls and the ask
	// endpoint; circuit breaker guards the LLM endpoint.
	var limiter ratelimiter.RateLimiter
	if rl := cfg.Middleware.RateLimiter; rl.Enabled {
		limiter = ratelimiter.NewTokenBucket(rl.TokenBucket.Rate, rl.TokenBucket.Capacity)
	}

	var breaker circuitbreaker.CircuitBreaker
	if cb := cfg.Middleware.CircuitBreaker; cb.Enabled {
		timeout, err := time.ParseDuration(cb.Timeout)
		if err != nil {
			log.Fatalf("Invalid circuit breaker timeout %q: %v", cb.Timeout, err)
		}
		breaker = circuitbreaker.New(cb.FailureThreshold, cb.SuccessThreshold, timeout)
	}

	// 5. Wire the pipelines
	splitter, err := splitters.NewCharacterSplitter(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		log.Fatalf("Invalid chunking configuration: %v", err)
	}

	store := index.NewStore(cfg.Storage.IndexDir, embedder, limiter, appLogger)

	contentCache, err := cache.NewContentCache(cfg.Storage.CacheDir, appLogger)
	if err != nil {
		log.Fatalf("Failed to initialize content cache: %v", err)
	}

	indexing := pipeline.NewIndexingPipeline(splitter, store, contentCache, appLogger)
	retrieval := pipeline.NewRetrievalPipeline(embedder, store, appLogger)
	qa := pipeline.NewQAPipeline(retrieval, llmClient, breaker, cfg.Retrieval.TopK, appLogger)

	svc := service.New(indexing, qa, cfg.Storage.UploadDir, appLogger)

	// 6. Start the HTTP server
	router := api.NewRouter(svc, limiter, appLogger)
	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		appLogger.Info(fmt.Sprintf("HTTP server listening at %s", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve HTTP: %v", err)
		}
	}()

	// 7. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("server shutdown failed")
	}

	appLogger.Info("Server gracefully stopped")
}
