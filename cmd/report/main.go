package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/water-balance-report/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/water-balance-report/internal/adapter/kafka"
	"github.com/couchcryptid/water-balance-report/internal/adapter/sheet"
	"github.com/couchcryptid/water-balance-report/internal/config"
	"github.com/couchcryptid/water-balance-report/internal/observability"
	"github.com/couchcryptid/water-balance-report/internal/report"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	source, err := sheet.Open(cfg)
	if err != nil {
		logger.Error("failed to open source", "error", err)
		os.Exit(1)
	}

	// Alert publication is feature-flagged via KAFKA_ENABLED.
	var opts []report.Option
	var writer *kafkaadapter.AlertWriter
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewAlertWriter(cfg, logger)
		opts = append(opts, report.WithPublisher(writer))
		logger.Info("kafka alert publication enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaAlertTopic)
	} else {
		logger.Info("kafka alert publication disabled")
	}

	svc := report.New(source, logger, metrics, cfg.RefreshInterval, opts...)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the refresh loop.
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := svc.Run(ctx); err != nil {
			logger.Error("report service error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("refresh loop did not stop before shutdown timeout")
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
