package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/residence-portal/api/controllers"
	"github.com/angelmondragon/residence-portal/api/middleware"
	"github.com/angelmondragon/residence-portal/api/responses"
	"github.com/angelmondragon/residence-portal/api/routes"
	"github.com/angelmondragon/residence-portal/api/views"
	"github.com/angelmondragon/residence-portal/internal/cart"
	"github.com/angelmondragon/residence-portal/internal/catalog"
	"github.com/angelmondragon/residence-portal/internal/consumption"
	"github.com/angelmondragon/residence-portal/pkg/apiclient"
	"github.com/angelmondragon/residence-portal/pkg/config"
	"github.com/angelmondragon/residence-portal/pkg/logger"
	"github.com/angelmondragon/residence-portal/pkg/metrics"
	"github.com/angelmondragon/residence-portal/pkg/redis"
	"github.com/angelmondragon/residence-portal/pkg/session"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "portal"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "portal",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		redisClient *redis.Client
		readiness   []controllers.ReadinessCheck
	)
	if cfg.Session.UsesRedis() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		readiness = append(readiness, controllers.ReadinessCheck{Name: "redis", Pinger: redisClient})
	} else {
		redisClient, err = redis.NewInMemory()
		if err != nil {
			logg.Error(ctx, "failed to start embedded redis", err)
			os.Exit(1)
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	store, err := session.NewStore(redisClient, session.Options{
		TTL:      cfg.Session.TTL,
		FlashTTL: cfg.Session.FlashTTL,
		LockTTL:  cfg.Session.LockTTL,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session store", err)
		os.Exit(1)
	}
	bus := session.NewBus()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	backendMetrics := metrics.NewBackendMetrics(registry)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	api, err := apiclient.NewFromConfig(cfg.Backend,
		apiclient.WithSessionBus(bus),
		apiclient.WithMetrics(backendMetrics),
		apiclient.WithLogger(logg),
		apiclient.WithRequestID(middleware.RequestIDFromContext),
	)
	if err != nil {
		logg.Error(ctx, "failed to create backend client", err)
		os.Exit(1)
	}

	snapshots := cart.NewSnapshots(store)
	cartService, err := cart.NewService(api, store, snapshots, logg)
	if err != nil {
		logg.Error(ctx, "failed to create cart service", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(api, store, snapshots, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}
	consumptionService, err := consumption.NewService(api, logg)
	if err != nil {
		logg.Error(ctx, "failed to create consumption service", err)
		os.Exit(1)
	}

	render, err := responses.NewRenderer(views.FS(), views.LayoutFile, store, logg)
	if err != nil {
		logg.Error(ctx, "failed to parse page templates", err)
		os.Exit(1)
	}

	handler, err := routes.NewRouter(cfg, logg, render, store, redisClient, bus, routes.Services{
		Auth:        api,
		Catalog:     catalogService,
		Cart:        cartService,
		Consumption: consumptionService,
	}, routes.Observability{HTTP: httpMetrics, Gatherer: registry}, readiness...)
	if err != nil {
		logg.Error(ctx, "failed to build router", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":            cfg.App.Env,
		"addr":           addr,
		"backend":        cfg.Backend.BaseURL,
		"session_driver": cfg.Session.Driver,
	})
	logg.Info(logCtx, "starting portal")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(logCtx, "portal shutdown failed", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(logCtx, "portal stopped unexpectedly", err)
		os.Exit(1)
	}
}
