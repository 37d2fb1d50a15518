package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"studio-site-backend/config"
	"studio-site-backend/database"
	_ "studio-site-backend/docs" // Import generated docs
	"studio-site-backend/logging"
	"studio-site-backend/middleware"
	"studio-site-backend/routes"
	"studio-site-backend/utils"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"go.uber.org/zap"
)

// @title Studio Site API
// @version 1.0
// @description Content API for the studio site: blog posts and portfolio projects.

// @contact.name API Support
// @contact.email support@studio.test

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @BasePath /
// @schemes http https

// matchOriginPattern checks if an origin matches a pattern with a single wildcard
func matchOriginPattern(pattern, origin string) bool {
	if !strings.Contains(pattern, "*") {
		return false
	}

	parts := strings.Split(pattern, "*")
	if len(parts) != 2 {
		return false
	}

	return strings.HasPrefix(origin, parts[0]) && strings.HasSuffix(origin, parts[1])
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Requested-With", "X-Request-ID"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		ExposeHeaders: []string{"Content-Length", "Content-Type", "X-Request-ID"},
		MaxAge:        86400, // 24 hours
	}

	// If origins contain wildcard, don't use credentials
	if len(origins) == 1 && origins[0] == "*" {
		cfg.AllowOrigins = []string{"*"}
		cfg.AllowCredentials = false
		return cfg
	}

	cfg.AllowOriginsFunc = func(origin string) bool {
		for _, allowed := range origins {
			if origin == allowed || matchOriginPattern(allowed, origin) {
				return true
			}
		}
		return false
	}
	cfg.AllowCredentials = true
	return cfg
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
			return c.Status(code).JSON(utils.NewErrorResponse(message, fiber.ErrInternalServerError))
		}
		return c.Status(code).JSON(utils.NewErrorResponse(message, err))
	}
}

func newApp(cfg *config.Config, logger *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: errorHandler(logger),
		AppName:      cfg.AppName,
		ServerHeader: "Fiber",
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(middleware.RequestLogger(logger))
	app.Use(helmet.New())
	app.Use(cors.New(corsConfig(cfg.CorsOrigins)))
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 60 * time.Second,
	}))

	return app
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := logging.NewLogger(logging.FromConfig("api", cfg))
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.ConnectDatabase(cfg, logger)
	if err != nil {
		logger.Fatal("database unavailable", zap.Error(err))
	}
	if err := database.MigrateDatabase(db, logger); err != nil {
		logger.Fatal("content migration failed", zap.Error(err))
	}

	if cfg.MigrateOnStart {
		for _, summary := range database.RunSchemaMigrations(context.Background(), db, logger) {
			if summary.HasFailures() {
				logger.Warn("schema migration finished with failures", zap.String("migration", summary.Migration))
			}
		}
	}

	app := newApp(cfg, logger)
	routes.SetupRoutes(app, cfg, db, logger)

	logger.Info("server ready",
		zap.String("port", cfg.Port),
		zap.String("health", cfg.AppUrl+"/api/health"),
		zap.String("docs", cfg.AppUrl+"/docs"),
	)

	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}
