package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/ManuelReschke/MealPilot/app/controllers"
	"github.com/ManuelReschke/MealPilot/internal/pkg/billing"
	"github.com/ManuelReschke/MealPilot/internal/pkg/cache"
	"github.com/ManuelReschke/MealPilot/internal/pkg/config"
	"github.com/ManuelReschke/MealPilot/internal/pkg/database"
	"github.com/ManuelReschke/MealPilot/internal/pkg/entitlements"
	"github.com/ManuelReschke/MealPilot/internal/pkg/mealplan"
	"github.com/ManuelReschke/MealPilot/internal/pkg/metrics/counter"
	"github.com/ManuelReschke/MealPilot/internal/pkg/middleware"
	perfmonitor "github.com/ManuelReschke/MealPilot/internal/pkg/monitor"
	"github.com/ManuelReschke/MealPilot/internal/pkg/ratelimit"
	"github.com/ManuelReschke/MealPilot/internal/pkg/router"
	"github.com/ManuelReschke/MealPilot/internal/pkg/statistics"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			db, err := database.Open(cfg.Database, logger)
			if err != nil {
				return err
			}
			client := cache.NewClient(cfg.Cache)
			defer func() { _ = client.Close() }()

			app := NewApplication(cfg, db, client, logger)
			return listen(cmd.Context(), app, cfg.Addr(), logger)
		},
	}
}

// NewApplication wires every component once and installs the routes.
func NewApplication(cfg *config.Config, db *gorm.DB, client *redis.Client, logger *zap.Logger) *fiber.App {
	cacheSvc := cache.New(client, cache.Options{Prefix: cfg.Cache.Prefix, Timeout: cfg.Cache.Timeout}, logger)
	hits := counter.New(client, counter.CacheCountersKey, logger)
	perf := perfmonitor.New(cacheSvc, hits, perfmonitor.Options{Coalesce: cfg.MealPlanCoalesce}, logger)

	repo := billing.NewRepository(db, cfg.Database.Timeout)
	gate := entitlements.NewGate(repo, cacheSvc, cfg.EntitlementCacheTTL, logger)
	reconciler := billing.NewReconciler(repo, cfg.Stripe.WebhookSecret, gate, logger)
	billingSvc := billing.NewService(repo, billing.NewStripeGateway(cfg.Stripe.SecretKey), billing.ServiceOptions{
		Prices:      billing.PriceIDsFromConfig(cfg.Stripe),
		BaseURL:     cfg.PublicDomain,
		Invalidator: gate,
	}, logger)
	mealplanSvc := mealplan.NewService(mealplan.NewOpenRouterClient(cfg.OpenRouter), perf,
		cfg.MealPlanCacheTTL, cfg.GenerationTimeout, logger)

	app := fiber.New(fiber.Config{
		AppName:   "MealPilot",
		BodyLimit: 1 << 20,
	})

	// recovery, request ids and logging
	app.Use(recover.New(), requestid.New(requestid.Config{Generator: uuid.NewString}), fiberlogger.New())

	// fiber metrics
	app.Get("/metrics", middleware.AdminAuth(cfg.Admin.User, cfg.Admin.PasswordHash), monitor.New())

	// SWAGGER / OPENAPI
	specPath := filepath.Join(cfg.PublicDir, "docs", "v1", "openapi.yml")
	if _, err := os.Stat(specPath); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/docs/api/",
			FilePath: specPath,
			Path:     "v1",
		}))
	} else {
		logger.Warn("openapi document not found, docs disabled", zap.String("path", specPath))
	}

	var limiterStorage fiber.Storage
	if cfg.RateLimitMax > 0 {
		limiterStorage = ratelimit.NewStorage(cfg.Cache)
	}

	// ROUTER
	router.InstallRouter(app, router.Deps{
		Config:         cfg,
		Gate:           gate,
		Billing:        controllers.NewBillingController(reconciler, billingSvc, cfg.WebhookTimeout, logger),
		Subscription:   controllers.NewSubscriptionController(gate),
		Cache:          controllers.NewCacheController(cacheSvc, hits),
		MealPlan:       controllers.NewMealPlanController(mealplanSvc),
		Health:         controllers.NewHealthController(healthChecks(db, cacheSvc)),
		Admin:          controllers.NewAdminController(statistics.New(db, perf), logger),
		LimiterStorage: limiterStorage,
	})

	return app
}

func healthChecks(db *gorm.DB, c *cache.Service) map[string]controllers.Pinger {
	dbPing := controllers.PingFunc(func(ctx context.Context) error {
		return database.Ping(ctx, db)
	})
	return map[string]controllers.Pinger{
		"cache":    c,
		"database": dbPing,
	}
}

func listen(ctx context.Context, app *fiber.App, addr string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}
