package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/osbi/saiku_services/internal/export_service/adapters/queryengine"
	"github.com/osbi/saiku_services/internal/export_service/app"
	"github.com/osbi/saiku_services/internal/export_service/converter"
	"github.com/osbi/saiku_services/internal/export_service/domain"
	"github.com/osbi/saiku_services/internal/export_service/repository/cached"
	"github.com/osbi/saiku_services/internal/export_service/repository/filesystem"
	"github.com/osbi/saiku_services/internal/export_service/repository/postgres"
	adapter_http "github.com/osbi/saiku_services/internal/export_service/transport/http"
	"github.com/osbi/saiku_services/internal/platform/config"
	"github.com/osbi/saiku_services/internal/platform/database"
	"github.com/osbi/saiku_services/internal/platform/logger"
	"github.com/osbi/saiku_services/internal/platform/messagebroker"
)

const serviceName = "export_api_service"

func main() {
	if err := run(); err != nil {
		slog.Error("Export API service exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	mainCtx, mainCancel := context.WithCancel(context.Background())
	defer mainCancel()

	cfg, err := config.Load(serviceName)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat).With("service", serviceName)
	appLogger.Info("Export API service starting...",
		"version", cfg.SaikuVersion,
		"enterprise", app.IsEnterpriseVersion(cfg.SaikuVersion),
		"repository_backend", cfg.RepositoryBackend,
		"query_engine_transport", cfg.QueryEngineTransport,
	)

	repo, closeRepo, err := newRepository(mainCtx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeRepo()

	engine, closeEngine, err := newQueryEngine(mainCtx, cfg, appLogger)
	if err != nil {
		return err
	}
	defer closeEngine()

	substitution, err := app.ParseSubstitutionFormats(cfg.ParamSubstitutionFormats)
	if err != nil {
		return fmt.Errorf("invalid PARAM_SUBSTITUTION_FORMATS: %w", err)
	}

	tabular := app.NewTabularExporter(repo, engine, substitution, appLogger)
	registry := converter.NewRegistry(converter.WithRsvgConvert(cfg.RsvgConvertPath))
	charts := app.NewChartExporter(registry, cfg.SaikuVersion, appLogger)
	appLogger.Info("Export pipelines initialized", "converters", registry.Types(), "param_substitution", substitution)

	handler := adapter_http.NewExportHandler(tabular, charts, appLogger, validator.New())
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ExportAPIServicePort),
		Handler:           adapter_http.NewRouter(handler, cfg.SaikuVersion),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		appLogger.Info("HTTP server starting", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			appLogger.Info("Shutdown signal received", "signal", sig.String())
		case <-groupCtx.Done():
		}

		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancelShutdown()
		if err := httpServer.Shutdown(ctxShutdown); err != nil {
			appLogger.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	appLogger.Info("Export API service stopped")
	return nil
}

func newRepository(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.Repository, func(), error) {
	var (
		repo    domain.Repository
		cleanup = func() {}
	)

	switch cfg.RepositoryBackend {
	case "postgres":
		pool, err := database.NewDBPool(ctx, cfg.PostgresDSN, log)
		if err != nil {
			return nil, nil, fmt.Errorf("initializing database: %w", err)
		}
		repo = postgres.NewPgResourceRepository(pool, log)
		cleanup = pool.Close
	case "filesystem":
		if _, err := os.Stat(cfg.RepositoryRoot); err != nil {
			return nil, nil, fmt.Errorf("repository root %s: %w", cfg.RepositoryRoot, err)
		}
		repo = filesystem.NewFsResourceRepository(cfg.RepositoryRoot, log)
	default:
		return nil, nil, fmt.Errorf("unknown REPOSITORY_BACKEND %q (want postgres or filesystem)", cfg.RepositoryBackend)
	}

	if cfg.RepositoryCacheTTL <= 0 {
		return repo, cleanup, nil
	}
	c, err := cached.NewRepository(repo, cfg.RepositoryCacheTTL, cfg.RepositoryCacheMaxCost, log)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	log.Info("Repository cache enabled", "ttl", cfg.RepositoryCacheTTL, "max_cost", cfg.RepositoryCacheMaxCost)
	return c, func() { c.Close(); cleanup() }, nil
}

func newQueryEngine(ctx context.Context, cfg *config.Config, log *slog.Logger) (domain.QueryEngine, func(), error) {
	switch cfg.QueryEngineTransport {
	case "nats":
		nc, err := messagebroker.NewNatsClient(cfg.NATSURL, serviceName, log)
		if err != nil {
			return nil, nil, err
		}
		log.Info("NATS client connected", "url", cfg.NATSURL)
		return queryengine.NewNATSClient(nc, cfg.QueryEngineSubjectPrefix, cfg.QueryEngineTimeout, log), nc.Close, nil
	case "grpc":
		conn, err := queryengine.DialGRPC(ctx, cfg.QueryEngineGRPCTarget, log)
		if err != nil {
			return nil, nil, err
		}
		return queryengine.NewGRPCClient(conn, cfg.QueryEngineTimeout, log), func() { _ = conn.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown QUERY_ENGINE_TRANSPORT %q (want nats or grpc)", cfg.QueryEngineTransport)
	}
}
