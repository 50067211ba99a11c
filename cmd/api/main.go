package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/helpdesk/internal/api/http"
	"github.com/spec-kit/helpdesk/internal/api/http/handlers"
	"github.com/spec-kit/helpdesk/internal/audit"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/cache"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/repository/memory"
	"github.com/spec-kit/helpdesk/internal/service"
	"github.com/spec-kit/helpdesk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checks := map[string]handlers.Pinger{}

	var store repository.Store
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		logger.Warn("using in-memory store; data is lost on restart")
		store = memory.NewStore()
	default:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		store = repository.NewPostgresStore(pg.Pool)
		checks["postgres"] = pg
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	var (
		revoked auth.RevocationList
		stats   cache.StatsCache
	)
	if redis.Available() {
		revoked = auth.NewRedisRevocationList(redis.Client)
		stats = cache.NewRedisStatsCache(redis.Client, cfg.Cache.StatsTTL())
		checks["redis"] = redis
	} else {
		revoked = auth.NewMemoryRevocationList(nil)
		stats = cache.NewMemoryStatsCache(cfg.Cache.StatsTTL(), nil)
	}

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL())
	dispatcher := events.NewInMemoryDispatcher(logger)
	worker.StartStatsInvalidator(dispatcher, stats, logger)
	worker.StartActivityLogger(dispatcher, logger)

	authService := service.NewAuthService(service.AuthDependencies{
		Store:                  store,
		Hasher:                 auth.NewPasswordHasher(),
		Tokens:                 tokens,
		Revocations:            revoked,
		AllowAdminRegistration: cfg.Auth.AllowAdminRegistration,
		Logger:                 logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:      store,
		Recorder:   audit.NewRecorder(store, logger, metrics),
		Dispatcher: dispatcher,
		StatsCache: stats,
		Logger:     logger,
	})
	commentService := service.NewCommentService(store, dispatcher)
	auditService := service.NewAuditService(store)

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName:        cfg.App.Name,
		RequestTimeout: cfg.App.RequestTimeout(),
		Logger:         logger,
		Metrics:        metrics,
		Routes: httptransport.RouteConfig{
			Health:            handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, checks, metrics),
			Auth:              handlers.NewAuthHandler(authService),
			Tickets:           handlers.NewTicketsHandler(ticketService, commentService),
			Audit:             handlers.NewAuditHandler(auditService),
			Resolver:          auth.NewResolver(tokens, revoked, store, logger),
			RegisterPerMinute: cfg.RateLimit.RegisterPerMinute,
			LoginPerMinute:    cfg.RateLimit.LoginPerMinute,
			LimiterStorage:    redis.NewLimiterStorage(),
		},
	})

	go func() {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()), zap.String("store", cfg.Store.Driver))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
