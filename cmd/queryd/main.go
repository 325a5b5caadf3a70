// queryd is the AI query microservice: it exposes POST /api/query and
// answers each question through the first available backend — local
// inference daemon, hosted completion API, retrieval index over the
// document collection, or a direct store search.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kataras/golog"
	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"

	"github.com/systemstock/queryd/internal/backend"
	"github.com/systemstock/queryd/internal/config"
	"github.com/systemstock/queryd/internal/index"
	"github.com/systemstock/queryd/internal/log"
	"github.com/systemstock/queryd/internal/server"
	"github.com/systemstock/queryd/internal/service"
	"github.com/systemstock/queryd/internal/store"
)

func main() {
	cfg := config.Load()

	logger := log.NewGologLogger(golog.Default)
	logger.SetLevel(log.ParseLevel(cfg.LogLevel))

	svc, manager, err := buildService(cfg, logger)
	if err != nil {
		logger.Error("failed to assemble service: %v", err)
		os.Exit(1)
	}

	// Eager index build at startup; failure only clears readiness, the
	// server starts and serves health/info endpoints regardless.
	if manager != nil {
		go func() {
			if err := manager.EnsureReady(context.Background(), false); err != nil {
				logger.Error("eager index initialization failed: %v", err)
			}
		}()
	}

	srv := server.New(svc, statusReporter(manager), server.Config{
		AllowedOrigins:  cfg.AllowedOrigins,
		MongoConfigured: cfg.MongoConfigured(),
	}, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ModelTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting AI query microservice on port %d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown: %v", err)
	}
}

// buildService assembles the backend chain in priority order from the
// configuration: local daemon, hosted API, retrieval index, store search.
func buildService(cfg *config.Config, logger log.Logger) (*service.QueryService, *service.Manager, error) {
	var entries []service.Entry

	if cfg.OllamaEnabled {
		ollama, err := backend.NewOllamaBackend(backend.OllamaConfig{
			Host:    cfg.OllamaHost,
			Model:   cfg.OllamaModel,
			Timeout: cfg.ModelTimeout,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("ollama backend: %w", err)
		}
		entries = append(entries, service.Entry{Backend: ollama})
		logger.Info("local daemon backend enabled (model %s)", cfg.OllamaModel)
	}

	if cfg.OpenAIConfigured() {
		client := openai.NewClient(cfg.OpenAIAPIKey)
		hosted := backend.NewOpenAIBackend(client, cfg.OpenAIModel, cfg.ModelTimeout, logger)
		entries = append(entries, service.Entry{Backend: hosted, Terminal: !cfg.OpenAIFallthrough})
		logger.Info("hosted API backend enabled (model %s, fallthrough %v)", cfg.OpenAIModel, cfg.OpenAIFallthrough)
	}

	var st *store.Store
	if cfg.MongoConfigured() {
		st = store.New(store.Config{
			URI:         cfg.MongoURI,
			Database:    cfg.MongoDB,
			Collection:  cfg.MongoCollection,
			SearchField: cfg.SearchField,
			PingTimeout: cfg.PingTimeout,
		}, logger)
	} else {
		logger.Warn("%v; index and offline search backends disabled", service.ErrMongoURIMissing)
	}

	var manager *service.Manager
	if cfg.IndexEnabled && st != nil && cfg.OpenAIConfigured() {
		llm, err := lcopenai.New(
			lcopenai.WithToken(cfg.OpenAIAPIKey),
			lcopenai.WithModel(cfg.OpenAIModel),
			lcopenai.WithEmbeddingModel(cfg.EmbeddingModel),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("langchain client: %w", err)
		}
		embedder, err := embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, nil, fmt.Errorf("embedder: %w", err)
		}

		wrapped := index.NewLangChainEmbedder(embedder)
		manager = service.NewManager(service.ManagerConfig{
			Loader: st,
			Builder: func(ctx context.Context, docs []index.Document) (*index.Index, error) {
				return index.Build(ctx, docs, wrapped, llm, index.Options{TopK: cfg.IndexTopK})
			},
			Cooldown:    cfg.InitCooldown,
			LoadTimeout: cfg.LoadTimeout,
		}, logger)

		entries = append(entries, service.Entry{Backend: backend.NewRetrievalBackend(manager, logger)})
		logger.Info("retrieval index backend enabled (top-k %d)", cfg.IndexTopK)
	}

	if st != nil {
		entries = append(entries, service.Entry{Backend: backend.NewSearchBackend(st, logger)})
		logger.Info("offline search backend enabled (field %q)", cfg.SearchField)
	}

	var trigger service.InitTrigger
	if manager != nil {
		trigger = manager
	}
	return service.New(entries, trigger, logger), manager, nil
}

// statusReporter keeps the nil *Manager from becoming a non-nil
// interface value inside the server.
func statusReporter(m *service.Manager) server.StatusReporter {
	if m == nil {
		return nil
	}
	return m
}
