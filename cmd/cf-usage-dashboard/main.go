// Package main provides the entry point for the Cloudflare usage dashboard server.
package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sipico/cf-usage-dashboard/internal/background"
	"github.com/sipico/cf-usage-dashboard/internal/cloudflare"
	"github.com/sipico/cf-usage-dashboard/internal/config"
	"github.com/sipico/cf-usage-dashboard/internal/metrics"
	"github.com/sipico/cf-usage-dashboard/internal/notify"
	"github.com/sipico/cf-usage-dashboard/internal/storage"
	"github.com/sipico/cf-usage-dashboard/internal/usage"
	"github.com/sipico/cf-usage-dashboard/internal/web"
)

const version = "1.0.0"

// components holds everything main needs to serve and shut down.
type components struct {
	cfg      *config.Config
	logger   *slog.Logger
	logLevel *slog.LevelVar
	store    *storage.SQLiteStorage
	runner   *background.Runner
	handler  *web.Handler
}

// parseLevel maps the configured level string onto a slog level.
func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// buildLogger constructs the process logger. A configured LOG_FILE routes
// output through size-based rotation instead of stderr.
func buildLogger(cfg *config.Config) (*slog.Logger, *slog.LevelVar) {
	levelVar := new(slog.LevelVar)
	levelVar.Set(parseLevel(cfg.LogLevel))

	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: levelVar}))
	slog.SetDefault(logger)
	return logger, levelVar
}

// initializeComponents wires the full application graph from configuration.
func initializeComponents(cfg *config.Config) (*components, error) {
	logger, levelVar := buildLogger(cfg)

	store, err := storage.New(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	resolver := config.NewResolver(logger,
		config.EnvProvider{},
		config.NewConfigTableProvider(store, logger),
		config.NewKVProvider(store, logger),
	)

	var cfOpts []cloudflare.Option
	if cfg.CloudflareAPIURL != "" {
		cfOpts = append(cfOpts, cloudflare.WithBaseURL(cfg.CloudflareAPIURL))
	}
	cfClient := cloudflare.NewClient(cfOpts...)

	var tgOpts []notify.TelegramOption
	if cfg.TelegramAPIURL != "" {
		tgOpts = append(tgOpts, notify.WithBaseURL(cfg.TelegramAPIURL))
	}
	tgClient := notify.NewTelegramClient(tgOpts...)

	fetcher := usage.NewFetcher(cfClient, logger)
	aggregator := usage.NewAggregator(fetcher, resolver, logger)
	notifier := notify.NewThresholdNotifier(tgClient, resolver, logger)
	runner := background.NewRunner(logger)
	handler := web.NewHandler(store, aggregator, notifier, resolver, runner, logger)

	return &components{
		cfg:      cfg,
		logger:   logger,
		logLevel: levelVar,
		store:    store,
		runner:   runner,
		handler:  handler,
	}, nil
}

// startMetricsServer serves Prometheus metrics on its own listener.
func startMetricsServer(addr string, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Info("metrics listener starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics listener failed", "error", err)
		}
	}()
	return srv
}

func run() error {
	// A missing .env file is fine; the environment may carry everything.
	//nolint:errcheck
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	comps, err := initializeComponents(cfg)
	if err != nil {
		return err
	}
	defer func() {
		//nolint:errcheck
		comps.store.Close()
	}()

	if err := metrics.Init(prometheus.DefaultRegisterer); err != nil {
		return err
	}
	metricsSrv := startMetricsServer(cfg.MetricsListenAddr, comps.logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           comps.handler.NewRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		comps.logger.Info("dashboard starting", "addr", cfg.ListenAddr, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		comps.logger.Info("shutting down")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		comps.logger.Warn("server shutdown failed", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		comps.logger.Warn("metrics shutdown failed", "error", err)
	}

	// Let in-flight access logs and alerts finish before the store closes.
	comps.runner.Wait()
	return nil
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}
