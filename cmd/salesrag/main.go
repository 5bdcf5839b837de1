package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/kailas-cloud/salesrag/internal/config"
	"github.com/kailas-cloud/salesrag/internal/domain"
	"github.com/kailas-cloud/salesrag/internal/index"
	logpkg "github.com/kailas-cloud/salesrag/internal/logger"
	"github.com/kailas-cloud/salesrag/internal/metrics"
	"github.com/kailas-cloud/salesrag/internal/prompt"
	"github.com/kailas-cloud/salesrag/internal/repository/embcache"
	salesrepo "github.com/kailas-cloud/salesrag/internal/repository/sales"
	"github.com/kailas-cloud/salesrag/internal/splitter"
	chiTransport "github.com/kailas-cloud/salesrag/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/salesrag/internal/transport/openai"
	answeruc "github.com/kailas-cloud/salesrag/internal/usecase/answer"
	healthuc "github.com/kailas-cloud/salesrag/internal/usecase/health"
	"github.com/kailas-cloud/salesrag/internal/version"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting salesrag API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("chat_model", cfg.Chat.Model),
	)

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to create database pool", zap.Error(err))
	}
	defer pool.Close()

	readyCtx, cancelReady := context.WithTimeout(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second)
	defer cancelReady()
	if err := pool.Ping(readyCtx); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	metrics.RegisterProviderMetrics()

	// Embedder chain — composition root. The raw provider batches natively;
	// the cache decorator (when configured) trades that for per-chunk reuse.
	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	var embedder domain.Embedder = baseEmbedder
	var cacheStore *embcache.Store
	if len(cfg.Cache.Addrs) > 0 {
		cacheStore, err = embcache.NewStore(embcache.StoreConfig{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
			TTL:      time.Duration(cfg.Cache.TTLHours) * time.Hour,
		})
		if err != nil {
			logger.Fatal("Failed to create embedding cache", zap.Error(err))
		}
		defer cacheStore.Close()
		embedder = embcache.New(baseEmbedder, cacheStore, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, logger)
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	chatModel := openaiTransport.NewChatModel(&openaiTransport.ChatConfig{
		APIKey:      cfg.Chat.APIKey,
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		Provider:    cfg.Chat.Provider,
		Logger:      logger,
	})

	tpl, err := prompt.Load(cfg.Prompt.Path)
	if err != nil {
		logger.Fatal("Failed to load prompt template", zap.Error(err))
	}

	// The precomputed index is optional at startup: without it the filtered
	// path still works and /chat/full answers 503.
	var static answeruc.Searcher
	if idx, err := index.Load(cfg.Index.Dir); err != nil {
		logger.Warn("Precomputed index not loaded; full-index endpoint disabled",
			zap.String("dir", cfg.Index.Dir), zap.Error(err))
	} else {
		static = idx
		logger.Info("Precomputed index loaded",
			zap.String("dir", cfg.Index.Dir),
			zap.Int("chunks", idx.Len()),
			zap.Int("dimensions", idx.Dimensions()),
		)
	}

	split, err := splitter.New(cfg.Retrieval.ChunkSize, cfg.Retrieval.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid retrieval splitter config", zap.Error(err))
	}
	builder := index.NewBuilder(split, embedder, cfg.Embedding.Model, cfg.Embedding.Dimensions, logger)

	salesRepo := salesrepo.New(pool)
	answerSvc := answeruc.New(
		salesRepo,
		static,
		searcherBuilder{builder},
		embedder,
		chatModel,
		tpl,
		cfg.Retrieval.TopK,
		logger,
	)
	healthSvc := healthuc.New(salesRepo, baseEmbedder)

	server := chiTransport.NewServer(answerSvc, healthSvc, cfg.Retrieval.FallbackAnswer, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// searcherBuilder adapts *index.Builder to the answer usecase contract.
type searcherBuilder struct {
	b *index.Builder
}

func (s searcherBuilder) Build(ctx context.Context, docs []domain.Document) (answeruc.Searcher, error) {
	idx, err := s.b.Build(ctx, docs)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
