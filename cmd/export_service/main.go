package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/osbi/saiku_services/internal/export_service/app"
	"github.com/osbi/saiku_services/internal/export_service/converter"
	"github.com/osbi/saiku_services/internal/platform/config"
	"github.com/osbi/saiku_services/internal/platform/logger"
	"github.com/osbi/saiku_services/internal/platform/messagebroker"
)

// export_service is the NATS chart worker: it answers chart export requests from other
// services with the same pipeline the HTTP API uses.
const serviceName = "export_service"

func main() {
	if err := run(); err != nil {
		slog.Error("Chart export worker exited with error", "error", err)
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
	appLogger.Info("Chart export worker starting...",
		"nats_url", cfg.NATSURL,
		"subject", cfg.ChartExportSubject,
		"queue_group", cfg.ChartExportQueueGroup,
		"enterprise", app.IsEnterpriseVersion(cfg.SaikuVersion),
	)

	if cfg.NATSURL == "" {
		return errors.New("NATS URL not configured (APP_NATS_URL)")
	}
	natsClient, err := messagebroker.NewNatsClient(cfg.NATSURL, serviceName, appLogger)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer natsClient.Close()

	registry := converter.NewRegistry(converter.WithRsvgConvert(cfg.RsvgConvertPath))
	charts := app.NewChartExporter(registry, cfg.SaikuVersion, appLogger)
	consumer := app.NewChartRequestConsumer(charts, natsClient, cfg.ChartExportSubject, appLogger)

	g, groupCtx := errgroup.WithContext(mainCtx)

	g.Go(func() error {
		sub, err := natsClient.QueueSubscribe(groupCtx, consumer.Subject(), cfg.ChartExportQueueGroup, consumer.HandleChartRequest)
		if err != nil {
			return err
		}
		<-groupCtx.Done()
		appLogger.Info("Unsubscribing chart worker", "subject", consumer.Subject())
		if err := sub.Unsubscribe(); err != nil {
			appLogger.Warn("Failed to unsubscribe", "error", err)
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
			mainCancel()
		case <-groupCtx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	appLogger.Info("Chart export worker stopped")
	return nil
}
