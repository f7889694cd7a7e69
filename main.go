package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/opsight-ai/opsight-engine/pkg/agents"
	"github.com/opsight-ai/opsight-engine/pkg/audit"
	"github.com/opsight-ai/opsight-engine/pkg/cache"
	"github.com/opsight-ai/opsight-engine/pkg/config"
	"github.com/opsight-ai/opsight-engine/pkg/database"
	"github.com/opsight-ai/opsight-engine/pkg/handlers"
	"github.com/opsight-ai/opsight-engine/pkg/llm"
	"github.com/opsight-ai/opsight-engine/pkg/mcp"
	"github.com/opsight-ai/opsight-engine/pkg/mcp/tools"
	"github.com/opsight-ai/opsight-engine/pkg/middleware"
	"github.com/opsight-ai/opsight-engine/pkg/schema"
	"github.com/opsight-ai/opsight-engine/pkg/services"
	"github.com/opsight-ai/opsight-engine/pkg/store"
)

// Version is set at build time via ldflags
var Version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("environment", cfg.Env),
		zap.String("version", cfg.Version),
		zap.String("database", fmt.Sprintf("%s@%s:%d/%s",
			cfg.Database.User, cfg.Database.Host, cfg.Database.Port, cfg.Database.Database)),
		zap.String("driver", cfg.Database.Driver),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("cache_enabled", cfg.Redis.Enabled()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Bundled migrations are postgres-only; other datasets are provisioned
	// externally.
	if cfg.Database.RunMigrations && cfg.Database.Driver == "postgres" {
		if err := database.RunMigrations(cfg.Database.ConnectionString(), cfg.Database.MigrationsPath, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	st, err := store.New(ctx, &cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to dataset store", zap.Error(err))
	}
	defer st.Close()

	llmClient, err := llm.NewClient(&llm.Config{
		Provider:   cfg.LLM.Provider,
		BaseURL:    cfg.LLM.BaseURL,
		Model:      cfg.LLM.Model,
		APIKey:     cfg.LLM.APIKey,
		Timeout:    cfg.LLM.Timeout(),
		MaxRetries: cfg.LLM.MaxRetries,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create LLM client", zap.Error(err))
	}

	glossary, err := schema.LoadGlossary(cfg.Schema.LabelsPath)
	if err != nil {
		logger.Fatal("Failed to load schema glossary", zap.Error(err))
	}
	mapper := schema.NewMapper(glossary)

	// Resolution pipeline
	classifier := services.NewIntentClassifier(llmClient, mapper, services.DefaultClassifierConfig(), logger)
	validator := services.NewQueryValidator(llmClient, mapper, logger)
	generator := services.NewQueryGenerator(llmClient, st.Dialect(), cfg.LLM.Temperature, logger)
	engine := services.NewExecutionEngine(st, generator, cfg.Pipeline.RetryLimit, logger)
	insights := services.NewInsightService(llmClient, cfg.Pipeline.InsightPreviewChars, cfg.Pipeline.FollowupPreviewChars, logger)
	chat := agents.NewPersonaChat(llmClient, logger)
	knowledge := agents.NewGlossaryKnowledge(llmClient, mapper, logger)

	// The cache is best-effort: an unreachable Redis downgrades to uncached
	// operation rather than blocking startup.
	respCache, err := cache.New(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Response cache unavailable, continuing without it", zap.Error(err))
		respCache = nil
	}
	defer respCache.Close()

	auditor := audit.NewSecurityAuditor(logger)

	router := services.NewRouter(classifier, validator, generator, engine, insights,
		knowledge, chat, respCache, mapper, auditor, cfg.Pipeline, logger)

	// MCP surface shares the router with the HTTP API
	mcpServer := mcp.NewServer("opsight-engine", cfg.Version, logger)
	tools.RegisterAskTool(mcpServer.MCP(), router, logger)
	tools.RegisterCapabilitiesTool(mcpServer.MCP())

	mux := http.NewServeMux()
	handlers.NewQueryHandler(router, logger).RegisterRoutes(mux)
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%s", cfg.BindAddr, cfg.Port),
		Handler: middleware.RequestLogger(logger)(mux),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting opsight-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		logger.Fatal("Server failed", zap.Error(err))
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received, draining connections")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Forced shutdown", zap.Error(err))
	}
	logger.Info("Server stopped")
}

// newLogger builds the process logger for the given environment. Local and
// development environments get human-readable console output; everything
// else logs structured JSON.
func newLogger(env string) (*zap.Logger, error) {
	switch env {
	case "local", "development":
		return zap.NewDevelopment()
	default:
		return zap.NewProduction()
	}
}
