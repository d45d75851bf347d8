package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/api"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/assistant"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/auth"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/cm360"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/config"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/db"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/observability"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/proxy"
	"github.com/data540/CM360-Manager-Pro-Evolution-OpenCode-sub000/internal/publish"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := observability.InitLoggerWithService(cfg.ServiceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}

	defer func() {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to sync logger: %v\n", err)
		}
	}()

	if err := run(logger, cfg); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
}

func run(logger *zap.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TracingEnabled {
		shutdown, err := observability.InitTracing(ctx, logger, cfg.ServiceName, cfg.TempoEndpoint, cfg.Environment, cfg.TracingSampleRate)
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		defer shutdown()
	}

	store, err := db.InitRedis(ctx, cfg.RedisAddr, cfg.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to connect redis: %w", err)
	}
	defer store.Close()

	metricsRegistry := observability.NewPrometheusRegistry()

	gateway := cm360.NewClient(cfg.CM360BaseURL, nil, logger, metricsRegistry)
	if cfg.CM360RateLimit > 0 {
		gateway.SetThrottle(cm360.NewThrottle(cfg.CM360RateBurst, cfg.CM360RateLimit))
	}
	validator := auth.NewValidator(cfg.UserInfoURL, cfg.AuthTimeout, nil, gateway, logger)
	authSvc := auth.NewService(validator, store, logger, metricsRegistry)
	publisher := publish.NewPublisher(logger, metricsRegistry, cfg.PublishConcurrency)

	var model assistant.Model
	gemini, err := assistant.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		logger.Warn("assistant disabled", zap.Error(err))
	} else if gemini != nil {
		model = gemini
		logger.Info("assistant enabled", zap.String("model", cfg.GeminiModel))
	}
	asst := assistant.New(model, cfg.AssistantSystemPrompt, logger, metricsRegistry)

	var cmProxy http.Handler
	if cfg.CM360ProxyPrefix != "" {
		p, err := proxy.New(cfg.CM360UpstreamURL, cfg.CM360ProxyPrefix, nil, logger, metricsRegistry)
		if err != nil {
			return fmt.Errorf("init cm360 proxy: %w", err)
		}
		cmProxy = p
	}

	r := mux.NewRouter()
	srvDeps := api.NewServer(logger, metricsRegistry, cfg, authSvc, store, gateway, publisher, asst, cmProxy)
	srvDeps.Routes(r)

	if _, err := os.Stat("./static"); err == nil {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir("./static")))
	}

	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/", otelhttp.NewHandler(r, cfg.ServiceName))

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      root,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("CM360 dashboard running",
		zap.String("addr", addr),
		zap.String("cm360_base_url", cfg.CM360BaseURL),
		zap.Int("publish_concurrency", cfg.PublishConcurrency))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	return nil
}
