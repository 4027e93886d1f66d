// Package main is the entry point for the API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/merqado/concierge/internal/capability"
	"github.com/merqado/concierge/internal/catalog"
	"github.com/merqado/concierge/internal/config"
	"github.com/merqado/concierge/internal/handler"
	"github.com/merqado/concierge/internal/llm"
	"github.com/merqado/concierge/internal/middleware"
	natsclient "github.com/merqado/concierge/internal/nats"
	"github.com/merqado/concierge/internal/service"
	"github.com/merqado/concierge/pkg/logger"
	"github.com/merqado/concierge/pkg/tracing"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	log.Info("starting API server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "concierge", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(context.Background(), tp)
		}
	}

	natsClient, err := natsclient.Connect(natsclient.Config{
		URL:      cfg.NATSURL,
		CAFile:   cfg.NATSCAFile,
		CertFile: cfg.NATSCertFile,
		KeyFile:  cfg.NATSKeyFile,
		Token:    cfg.NATSToken,
	}, log)
	if err != nil {
		log.Error("failed to connect to NATS", zap.Error(err))
		os.Exit(1)
	}
	defer natsClient.Close()

	streamManager := natsclient.NewStreamManager(natsClient, cfg.NATSCatalogStream, cfg.NATSCatalogDurable)
	if err := streamManager.EnsureStream(ctx); err != nil {
		log.Error("failed to ensure catalog stream", zap.Error(err))
		os.Exit(1)
	}

	snapshot := catalog.NewSnapshot()
	ingest := catalog.NewIngest(natsClient.JetStream(), snapshot, cfg.NATSCatalogStream, cfg.NATSCatalogDurable, log)

	baseClient, err := newLLMClient(cfg)
	if err != nil {
		log.Error("failed to create LLM client", zap.Error(err))
		os.Exit(1)
	}
	llmClient := llm.NewRetryClient(baseClient, cfg.LLMMaxRetries, log)
	log.Info("LLM provider ready", zap.String("provider", baseClient.Name()))

	registry := capability.NewRegistry(snapshot, log)
	assistant := service.NewAssistant(llmClient, registry, snapshot, service.Options{
		Model:         cfg.LLMModel,
		MaxTokens:     cfg.LLMMaxTokens,
		MaxIterations: cfg.MaxIterations,
	}, log)

	healthHandler := handler.NewHealthHandler(natsClient, snapshot)
	chatHandler := handler.NewChatHandler(assistant, log)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS())

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Get("/capabilities", chatHandler.Capabilities)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireScope(middleware.ScopeChat))
			r.Use(middleware.UserRateLimit(cfg.ChatRateLimitRequests, cfg.RateLimitWindow))
			r.Post("/chat", chatHandler.Chat)
		})
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return ingest.Run(ctx)
	})

	g.Go(func() error {
		return streamManager.Monitor(ctx, 30*time.Second)
	})

	g.Go(func() error {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	log.Info("server stopped")
}

// newLLMClient picks the completion provider. The configured default wins
// when its key is present; otherwise whichever key exists is used.
func newLLMClient(cfg *config.Config) (llm.Client, error) {
	type candidate struct {
		provider llm.Provider
		key      string
	}

	candidates := []candidate{
		{llm.ProviderAnthropic, cfg.AnthropicAPIKey},
		{llm.ProviderOpenAI, cfg.OpenAIAPIKey},
	}
	if llm.Provider(cfg.DefaultLLM) == llm.ProviderOpenAI {
		candidates[0], candidates[1] = candidates[1], candidates[0]
	}

	for _, c := range candidates {
		if c.key != "" {
			return llm.NewClient(c.provider, c.key)
		}
	}
	return nil, fmt.Errorf("no LLM API key configured, set ANTHROPIC_API_KEY or OPENAI_API_KEY")
}
