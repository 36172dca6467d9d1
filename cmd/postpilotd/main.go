// Command postpilotd runs the content-suggestion service: the HTTP entry
// point plus the cron scheduler that triggers per-user pipeline runs.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/postpilot/postpilot/internal/config"
	"github.com/postpilot/postpilot/internal/fetcher"
	"github.com/postpilot/postpilot/internal/generate"
	"github.com/postpilot/postpilot/internal/llm"
	"github.com/postpilot/postpilot/internal/pipeline"
	"github.com/postpilot/postpilot/internal/relevance"
	"github.com/postpilot/postpilot/internal/scheduler"
	"github.com/postpilot/postpilot/internal/server"
	"github.com/postpilot/postpilot/internal/store"
	"github.com/postpilot/postpilot/internal/tracker"
)

func main() {
	godotenv.Load()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		if os.IsNotExist(err) {
			cfg = config.Default()
			if err := cfg.Save(); err != nil {
				logger.Warn("could not save default config", "error", err)
			} else {
				path, _ := config.ConfigPath()
				logger.Info("created default config", "path", path)
			}
		} else {
			logger.Warn("could not load config, using defaults", "error", err)
			cfg = config.Default()
		}
	}

	dbPath, err := cfg.DatabasePath()
	if err != nil {
		logger.Error("resolve database path", "error", err)
		os.Exit(1)
	}
	st, err := store.New(dbPath)
	if err != nil {
		logger.Error("open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	pipe := buildPipeline(cfg, st, logger)

	sched := scheduler.New(st, pipe, logger)
	if cfg.Scheduler.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := sched.LoadJobs(ctx); err != nil {
			logger.Error("load schedules", "error", err)
			cancel()
			os.Exit(1)
		}
		cancel()
		sched.Start()
	}

	srv := server.New(cfg.Server.Addr, pipe, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logger.Error("http server failed", "error", err)
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if cfg.Scheduler.Enabled {
		<-sched.Stop().Done()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "error", err)
	}
}

// buildPipeline wires the fetchers, model chain, and stages from config.
func buildPipeline(cfg *config.Config, st *store.Store, logger *slog.Logger) *pipeline.Pipeline {
	retry := fetcher.RetryPolicy{
		Attempts:  cfg.Sources.RetryAttempts,
		BaseDelay: time.Duration(cfg.Sources.RetryBaseMillis) * time.Millisecond,
	}

	fetchers := []fetcher.Fetcher{
		fetcher.NewNewsletterFetcher(cfg.Sources.NewsletterBaseURL, cfg.Sources.NewsletterAPIKey, retry, logger),
		fetcher.NewWebsiteFetcher(cfg.Sources.Headless, retry, logger),
		fetcher.NewNetworkFetcher(cfg.Sources.NetworkBaseURL, cfg.Sources.NetworkAPIKey, retry, logger),
	}

	chain := buildChain(cfg.Analysis, logger)
	filter := relevance.NewFilter(chain, logger)
	generator := generate.NewGenerator(chain, logger)

	exclusionWindow := time.Duration(cfg.Pipeline.ExclusionWindowDays) * 24 * time.Hour
	tr := tracker.New(st, exclusionWindow)

	return pipeline.New(st, tr, fetchers, filter, generator, pipeline.Config{
		RelevanceLimit: cfg.Pipeline.RelevanceLimit,
		DraftTarget:    cfg.Pipeline.DraftTarget,
		FetchTimeout:   time.Duration(cfg.Pipeline.FetchTimeoutSecs) * time.Second,
		ModelTimeout:   time.Duration(cfg.Pipeline.ModelTimeoutSecs) * time.Second,
		PersistTimeout: time.Duration(cfg.Pipeline.PersistTimeoutSecs) * time.Second,
	}, logger)
}

// buildChain assembles the fallback-model chain: the primary model, then
// the configured same-vendor fallbacks, then the OpenAI-compatible
// cross-vendor fallback when configured.
func buildChain(ac config.AnalysisConfig, logger *slog.Logger) *llm.Chain {
	var providers []llm.Provider
	providers = append(providers, llm.NewAnthropicProvider(ac.APIKey, ac.Model, ac.MaxTokens))
	for _, model := range ac.FallbackModels {
		providers = append(providers, llm.NewAnthropicProvider(ac.APIKey, model, ac.MaxTokens))
	}
	if ac.OpenAIAPIKey != "" {
		providers = append(providers, llm.NewOpenAIProvider(ac.OpenAIAPIKey, ac.OpenAIBaseURL, ac.OpenAIModel, ac.MaxTokens))
	}
	return llm.NewChain(logger, providers...)
}
