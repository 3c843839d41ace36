package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/flagkeep/flagkeep/internal/api"
	"github.com/flagkeep/flagkeep/internal/audit"
	"github.com/flagkeep/flagkeep/internal/config"
	"github.com/flagkeep/flagkeep/internal/store"
	"github.com/flagkeep/flagkeep/internal/telemetry"
	"github.com/flagkeep/flagkeep/internal/webhook"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	logger := newLogger(cfg)
	telemetry.Init()

	ctx := context.Background()
	st, err := store.NewStore(ctx, cfg.StoreType, cfg.DSN(), cfg.DBPoolSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := st.Ping(pingCtx); err != nil {
		cancel()
		logger.Fatal().Err(err).Msg("store unreachable")
	}
	cancel()

	auditSvc := audit.NewService(audit.NewZerologSink(logger), logger, 256)
	defer auditSvc.Close()

	var hooks *webhook.Dispatcher
	if len(cfg.WebhookURLs) > 0 {
		hooks = webhook.NewDispatcher(cfg.WebhookURLs, cfg.WebhookSecret, logger)
		hooks.Start()
		defer hooks.Close()
		logger.Info().Strs("targets", cfg.WebhookURLs).Msg("webhook dispatcher started")
	}

	srvAPI := api.NewServer(st, logger, api.Options{
		AppEnv:         cfg.AppEnv,
		RateLimitPerIP: cfg.RateLimitPerIP,
		Audit:          auditSvc,
		Hooks:          hooks,
	})

	// initial snapshot
	if err := srvAPI.RebuildSnapshot(ctx); err != nil {
		logger.Fatal().Err(err).Msg("initial snapshot failed")
	}

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srvAPI.Router(),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server")
		}
	}()

	metricsSrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux()}
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listening")
		if err := metricsSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("metrics server")
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	ctxShut, cancelShut := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShut()
	_ = srv.Shutdown(ctxShut)
	_ = metricsSrv.Shutdown(ctxShut)
	logger.Info().Msg("stopped")
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if cfg.AppEnv == "dev" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}
