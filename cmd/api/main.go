package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"userhub/internal/auth"
	"userhub/internal/config"
	"userhub/internal/db"
	httpx "userhub/internal/http"
	"userhub/internal/observability"
	repo "userhub/internal/repo/mongo"
	"userhub/internal/security"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.JWTSecret == "" {
		log.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	ctx := context.Background()

	// Tracing is optional; without an endpoint the app runs untraced.
	if cfg.OTLPEndpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, "userhub", cfg.OTLPEndpoint)

		if err != nil {
			log.Error("tracer init failed", "err", err)
			os.Exit(1)
		}

		defer func() {
			shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()
			_ = shutdownTracer(shutdownCtx)
		}()
	}

	client, err := db.Connect(cfg.MongoURI)

	if err != nil {
		log.Error("mongo connect failed", "err", err)
		os.Exit(1)
	}

	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	prom := observability.NewProm(registry)

	database := client.Database(cfg.MongoDB)

	setupCtx, cancelSetup := config.WithTimeout(10 * time.Second)
	defer cancelSetup()

	users, err := repo.NewUsersRepo(setupCtx, database, prom)

	if err != nil {
		log.Error("users repo init failed", "err", err)
		os.Exit(1)
	}

	if err := db.EnsureAdminUser(setupCtx, users, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
		os.Exit(1)
	}

	hasher := security.NewHasher(cfg.BcryptCost, cfg.HashWorkers, prom)
	defer hasher.Stop()

	tokens := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())

	ping := func() error {
		pingCtx, cancel := config.WithTimeout(1 * time.Second)
		defer cancel()

		return client.Ping(pingCtx, readpref.Primary())
	}

	router := httpx.NewRouter(httpx.Deps{
		Cfg:            cfg,
		Log:            log,
		Users:          users,
		Hasher:         hasher,
		Tokens:         tokens,
		MetricsHandler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		HTTPMetrics:    prom.HTTPMetrics(),
		Ping:           ping,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		shutdownCtx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
