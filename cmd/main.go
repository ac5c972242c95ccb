package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/Pelan2022/Koulio/config"
	"github.com/Pelan2022/Koulio/db"
	"github.com/Pelan2022/Koulio/internal/audit"
	"github.com/Pelan2022/Koulio/internal/auth/handler"
	repo "github.com/Pelan2022/Koulio/internal/auth/repository/postgres"
	"github.com/Pelan2022/Koulio/internal/auth/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; config failure is fatal either way.
		panic(err)
	}

	logger := newLogger(cfg.Env)
	defer func() { _ = logger.Sync() }()

	if err := db.Migrate(cfg.Database.URL); err != nil {
		logger.Fatal("database migration failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	authRepo := repo.NewPostgresRepository(pool)
	auditRepo := audit.NewPostgresAuditRepository(pool)
	auditor := audit.NewRecorder(auditRepo, logger)

	hasher := service.NewPasswordService(cfg.Hash)
	tokenService := service.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	userService := service.NewUserService(authRepo, authRepo, hasher, tokenService, auditor, cfg.Auth, logger)

	authHandler := handler.NewAuthHandler(userService, logger)
	auditHandler := handler.NewAuditHandler(auditRepo)

	app := fiber.New(fiber.Config{
		AppName:               "koulio-backend",
		DisableStartupMessage: cfg.Env != "development",
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		if err := pool.Ping(c.UserContext()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unhealthy"})
		}
		return c.JSON(fiber.Map{"status": "ok"})
	})
	handler.RegisterRoutes(app, authHandler, auditHandler)

	go runMaintenance(ctx, logger, authRepo, auditRepo, cfg.Audit)

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("addr", cfg.ListenAddr))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

// runMaintenance periodically drops expired or revoked sessions and audit
// rows past the retention window, off the request path.
func runMaintenance(ctx context.Context, logger *zap.Logger, sessions *repo.PostgresRepository, auditRepo *audit.PostgresAuditRepository, cfg config.AuditConfig) {
	ticker := time.NewTicker(cfg.PurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purged, err := sessions.PurgeExpired(ctx)
			if err != nil {
				logger.Error("session purge failed", zap.Error(err))
			} else if purged > 0 {
				logger.Info("purged sessions", zap.Int64("count", purged))
			}

			cutoff := time.Now().Add(-cfg.Retention)
			purged, err = auditRepo.PurgeOlderThan(ctx, cutoff)
			if err != nil {
				logger.Error("audit purge failed", zap.Error(err))
			} else if purged > 0 {
				logger.Info("purged audit records", zap.Int64("count", purged))
			}
		}
	}
}

func newLogger(env string) *zap.Logger {
	if env == "development" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}
