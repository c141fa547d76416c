// Command orbiseo runs the OrbiSEO HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/orbiseo/orbiseo"
	"github.com/orbiseo/orbiseo/cluster"
	"github.com/orbiseo/orbiseo/config"
	"github.com/orbiseo/orbiseo/dataforseo"
	"github.com/orbiseo/orbiseo/embedding"
	openaiembed "github.com/orbiseo/orbiseo/embedding/openai"
	"github.com/orbiseo/orbiseo/index"
	"github.com/orbiseo/orbiseo/internal/httpapi"
	"github.com/orbiseo/orbiseo/naming"
	"github.com/orbiseo/orbiseo/naming/gemini"
	openainame "github.com/orbiseo/orbiseo/naming/openai"
	"github.com/orbiseo/orbiseo/resource"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "orbiseo:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "config.yaml", "path to YAML config")
		addr       = flag.String("addr", "", "listen address (overrides config)")
		logJSON    = flag.Bool("log-json", false, "log in JSON format")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	var logger *orbiseo.Logger
	if *logJSON {
		logger = orbiseo.NewJSONLogger(level)
	} else {
		logger = orbiseo.NewTextLogger(level)
	}

	secrets := config.LoadSecrets()

	engine, err := buildEngine(cfg, secrets, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      httpapi.New(engine, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err)
	}

	if cfg.Index.SnapshotPath != "" {
		if err := engine.Index().SaveFile(cfg.Index.SnapshotPath, nil); err != nil {
			logger.Error("failed to save index snapshot", "path", cfg.Index.SnapshotPath, "error", err)
		} else {
			logger.Info("index snapshot saved", "path", cfg.Index.SnapshotPath, "records", engine.Index().Len())
		}
	}

	return nil
}

func buildEngine(cfg *config.Config, secrets config.Secrets, logger *orbiseo.Logger) (*orbiseo.Engine, error) {
	var embedder embedding.Embedder
	if secrets.OpenAIAPIKey != "" {
		var embedOpts []openaiembed.Option
		if cfg.Embedding.Model != "" {
			embedOpts = append(embedOpts, openaiembed.WithModel(cfg.Embedding.Model))
		}
		if cfg.Embedding.Dimension > 0 {
			embedOpts = append(embedOpts, openaiembed.WithDimension(cfg.Embedding.Dimension))
		}
		if cfg.Embedding.BaseURL != "" {
			embedOpts = append(embedOpts, openaiembed.WithBaseURL(cfg.Embedding.BaseURL))
		}
		embedder = openaiembed.NewEmbedder(secrets.OpenAIAPIKey, embedOpts...)
	} else {
		logger.Warn("OPENAI_API_KEY not set, search and clustering disabled")
	}

	namer, err := buildNamer(cfg, secrets, logger)
	if err != nil {
		return nil, err
	}

	ctrl := resource.NewController(resource.Config{
		MaxConcurrentCalls: int64(cfg.Limits.MaxConcurrentCalls),
		CallsPerSecond:     cfg.Limits.CallsPerSecond,
		Burst:              cfg.Limits.Burst,
	})

	clusterer := cluster.New(namer,
		cluster.WithLogger(logger.Logger),
		cluster.WithController(ctrl),
		cluster.WithSeed(cfg.Clustering.Seed),
		cluster.WithMaxIterations(cfg.Clustering.MaxIterations),
		cluster.WithNamingTimeout(cfg.Naming.Timeout),
		cluster.WithNamingConcurrency(cfg.Naming.Concurrency),
	)

	opts := []orbiseo.Option{
		orbiseo.WithLogger(logger),
		orbiseo.WithMetrics(&orbiseo.BasicMetricsCollector{}),
		orbiseo.WithClusterer(clusterer),
	}

	if path := cfg.Index.SnapshotPath; path != "" {
		if ix, err := index.LoadFile(path); err == nil {
			logger.Info("index snapshot loaded", "path", path, "records", ix.Len())
			opts = append(opts, orbiseo.WithIndex(ix))
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load index snapshot %s: %w", path, err)
		}
	}

	if secrets.DataForSEOLogin != "" && secrets.DataForSEOPassword != "" {
		seo, err := dataforseo.New(dataforseo.Config{
			Login:        secrets.DataForSEOLogin,
			Password:     secrets.DataForSEOPassword,
			LocationCode: cfg.DataForSEO.LocationCode,
			LanguageCode: cfg.DataForSEO.LanguageCode,
		})
		if err != nil {
			return nil, err
		}
		opts = append(opts, orbiseo.WithKeywordMetricsClient(seo))
	}

	return orbiseo.New(embedder, namer, opts...), nil
}

func buildNamer(cfg *config.Config, secrets config.Secrets, logger *orbiseo.Logger) (naming.Namer, error) {
	switch cfg.Naming.Provider {
	case "gemini":
		if secrets.GeminiAPIKey == "" {
			logger.Warn("GEMINI_API_KEY not set, clusters will use fallback labels")
			return nil, nil
		}
		return gemini.NewNamer(gemini.Config{
			APIKey: secrets.GeminiAPIKey,
			Model:  cfg.Naming.Model,
		})
	case "openai":
		if secrets.OpenAIAPIKey == "" {
			logger.Warn("OPENAI_API_KEY not set, clusters will use fallback labels")
			return nil, nil
		}
		var opts []openainame.Option
		if cfg.Naming.Model != "" {
			opts = append(opts, openainame.WithModel(cfg.Naming.Model))
		}
		return openainame.NewNamer(secrets.OpenAIAPIKey, opts...), nil
	default:
		return nil, fmt.Errorf("unknown naming provider %q", cfg.Naming.Provider)
	}
}
