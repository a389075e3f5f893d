package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/reelhouse/movie-catalog/internal/api/http"
	"github.com/reelhouse/movie-catalog/internal/api/http/handlers"
	"github.com/reelhouse/movie-catalog/internal/backend"
	"github.com/reelhouse/movie-catalog/internal/config"
	"github.com/reelhouse/movie-catalog/internal/events"
	"github.com/reelhouse/movie-catalog/internal/observability"
	"github.com/reelhouse/movie-catalog/internal/persistence"
	"github.com/reelhouse/movie-catalog/internal/service"
	"github.com/reelhouse/movie-catalog/internal/session"
	"github.com/reelhouse/movie-catalog/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartActivityWorker(service.NewActivityService(dispatcher, logger))

	client := backend.New(backend.Options{
		BaseURL: cfg.Backend.BaseURL,
		Timeout: cfg.Backend.Timeout(),
		Logger:  logger,
		Metrics: metrics,
	})

	dependencies := map[string]handlers.Pinger{"backend": client}
	stores := func(string) session.Store { return session.NewMemoryStore(logger) }
	if cfg.Session.Backend == config.SessionBackendRedis {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		dependencies["redis"] = redis
		stores = func(scope string) session.Store {
			return session.NewRedisStore(redis.Client, cfg.Session.KeyPrefix, scope, logger)
		}
	}

	registry := session.NewRegistry(session.RegistryOptions{
		Stores:     stores,
		APIs:       func(m *session.Manager) session.AuthAPI { return client.WithCredentials(m) },
		Logger:     logger,
		Dispatcher: dispatcher,
	})
	sweeperDone := worker.StartSessionSweeper(ctx, registry, cfg.Session.IdleTimeout()/2, cfg.Session.IdleTimeout(), logger)

	deps := handlers.Dependencies{Logger: logger, Dispatcher: dispatcher}

	app := fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, metrics, dependencies),
		Auth:    handlers.NewAuthHandler(),
		Movies:  handlers.NewMoviesHandler(deps),
		Drafts:  handlers.NewDraftsHandler(deps, handlers.NewDraftStore()),
		Persons: handlers.NewPersonsHandler(deps),
		Reviews: handlers.NewReviewsHandler(deps),
		Clients: handlers.NewClientBinder(registry, client, cfg.App.CookieSecure),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("backend", cfg.Backend.BaseURL))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	<-sweeperDone
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
