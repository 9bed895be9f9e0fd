package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/healthfirst/provider-auth/internal/api/http"
	"github.com/healthfirst/provider-auth/internal/api/http/handlers"
	"github.com/healthfirst/provider-auth/internal/auth"
	"github.com/healthfirst/provider-auth/internal/config"
	"github.com/healthfirst/provider-auth/internal/observability"
	"github.com/healthfirst/provider-auth/internal/persistence"
	"github.com/healthfirst/provider-auth/internal/repository"
	"github.com/healthfirst/provider-auth/internal/service"
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

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	tokens, err := auth.NewTokenService(cfg.JWT)
	if err != nil {
		logger.Fatal("invalid jwt configuration", zap.Error(err))
	}

	providerStore := repository.NewProviderRepository(pg.PoolHandle())
	cachedProviders := repository.NewCachedProviderRepository(
		providerStore,
		redis.Client,
		cfg.Redis.ProviderCacheTTL(),
		logger,
	)

	metrics := observability.NewMetrics()
	authService := service.NewProviderAuthService(providerStore, tokens, logger)
	authMiddleware := auth.NewAuthMiddleware(tokens, cachedProviders, logger, metrics)
	strictAuthMiddleware := auth.NewAuthMiddleware(tokens, providerStore, logger, metrics)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Tokens:               handlers.NewTokenHandler(authService),
		Providers:            handlers.NewProvidersHandler(),
		AuthMiddleware:       authMiddleware,
		StrictAuthMiddleware: strictAuthMiddleware,
	})

	go func() {
		logger.Info("http server starting",
			zap.String("addr", cfg.App.Addr()),
			zap.String("issuer", cfg.JWT.Issuer),
			zap.Duration("token_ttl", tokens.ExpirationTime()),
		)
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.Shutdown(); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
