// Package main is the entry point for the LOF premium-rate scanner, which
// reports listed funds trading above their net asset value.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/yourorg/lof-premium/internal/config"
	"github.com/yourorg/lof-premium/internal/export"
	"github.com/yourorg/lof-premium/internal/fetch"
	otelsetup "github.com/yourorg/lof-premium/internal/otel"
	"github.com/yourorg/lof-premium/internal/pipeline"
	"github.com/yourorg/lof-premium/internal/report"
)

func main() {
	// A .env file is optional; real environment variables win
	_ = godotenv.Load()

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Configuration error: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}

	shutdown := otelsetup.InitTracer(cfg.OtelEndpoint)
	defer shutdown()

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	provider, err := fetch.New(cfg)
	if err != nil {
		logrus.Fatalf("Provider setup failed: %v", err)
	}

	// SIGINT/SIGTERM cancels the run; in-flight NAV calls abort and surface
	// as per-instrument failures
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := pipeline.New(cfg, provider)
	rep, err := runner.RunSafe(ctx)
	if err != nil {
		fmt.Println(pipeline.RenderError(err))
		os.Exit(1)
	}

	fmt.Print(report.Render(rep))

	if cfg.WebhookURL != "" {
		if err := export.NewWebhook(cfg.WebhookURL).Publish(ctx, rep); err != nil {
			logrus.Warnf("Webhook publish failed: %v", err)
		}
	}
}

// setupLogging configures logrus from LOG_FORMAT and LOG_LEVEL.
func setupLogging() {
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	default:
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "warn", "warning":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// serveMetrics exposes the Prometheus endpoint for scrape during long runs.
func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logrus.Infof("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logrus.Warnf("Metrics server stopped: %v", err)
	}
}
