package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/oggyb/irlobby/internal/api"
	"github.com/oggyb/irlobby/internal/app"
	"github.com/oggyb/irlobby/internal/cache"
	"github.com/oggyb/irlobby/internal/config"
	"github.com/oggyb/irlobby/internal/core/eligibility"
	"github.com/oggyb/irlobby/internal/db"
	"github.com/oggyb/irlobby/internal/events"
	"github.com/oggyb/irlobby/internal/logger"
	"github.com/oggyb/irlobby/internal/observability"
	"github.com/oggyb/irlobby/internal/server"
	"github.com/oggyb/irlobby/internal/service/lobby"
	"github.com/oggyb/irlobby/internal/ws"
)

func main() {
	// .env is optional; real env vars win
	_ = godotenv.Load()

	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg)
	if err != nil {
		log.Error("failed to init tracing", "err", err)
		return
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(sctx)
	}()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	publisher := events.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange)
	defer publisher.Close()
	log.Info("event publisher ready", "mode", events.PublisherMode(publisher), "noop_reason", events.PublisherNoopReason(publisher))

	hub := ws.NewHub()

	// Inject logger into app context
	appCtx := app.New(database, redisCache, log,
		app.WithPublisher(publisher),
		app.WithNotifier(hub),
		app.WithPolicy(eligibility.Policy{
			MinCapacity: cfg.Eligibility.MinCapacity,
			MaxCapacity: cfg.Eligibility.MaxCapacity,
		}),
	)

	if cfg.App.ENV == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	svc := lobby.NewService(appCtx)

	router := api.NewRouter(api.RouterConfig{
		ServiceName: cfg.Tracing.ServiceName,
		JWTSecret:   cfg.Auth.JWTSecret,
		Logger:      log,
		Handler:     api.NewHandler(svc),
		WebSocket:   ws.NewNotificationHandler(hub, api.TokenAuthenticator(cfg.Auth.JWTSecret), cfg.WS.AllowedOrigins).Handle,
		Health: func(ctx context.Context) error {
			sqlDB, err := database.DB()
			if err != nil {
				return err
			}
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			return redisCache.Ping(ctx)
		},
	})

	health := server.NewHealthRegistrar()
	grpcServer, grpcErr, err := server.StartGRPCServer(cfg, health)
	if err != nil {
		log.Error("failed to start gRPC server", "err", err)
		return
	}
	log.Info("gRPC health server started", "addr", cfg.GRPCAddr())

	go func() {
		if err := <-grpcErr; err != nil {
			log.Error("gRPC server stopped", "err", err)
			stop()
		}
	}()

	log.Info("starting HTTP server", "addr", cfg.HTTPAddr())
	if err := server.ServeHTTP(ctx, server.NewHTTPServer(cfg, router), 10*time.Second); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("HTTP server failed", "err", err)
	}

	health.SetServing("", false)
	grpcServer.GracefulStop()
	log.Info("shutdown complete")
}
