package bootstrap

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/chillbuddy/backend-go/internal/config"
	"github.com/chillbuddy/backend-go/internal/database"
	"github.com/chillbuddy/backend-go/internal/di"
	"github.com/chillbuddy/backend-go/internal/logger"
	"github.com/chillbuddy/backend-go/internal/safety"
)

// App encapsulates lifecycle resources that need to be cleaned up on shutdown.
type App struct {
	cleanupTasks  []func() error
	healthChecker *database.HealthChecker
}

// HealthChecker returns the background database health checker, if running.
func (a *App) HealthChecker() *database.HealthChecker {
	return a.healthChecker
}

// Global app instance for controllers to access
var globalApp *App

// GetApp returns the global app instance
func GetApp() *App {
	return globalApp
}

// SetGlobalApp sets the global app instance
func SetGlobalApp(app *App) {
	globalApp = app
}

// Init bootstraps configuration, logger, database connections and other shared
// infrastructure components required by the Beego application.
func Init() (*App, error) {
	// Load environment variables from .env if present (non-fatal if missing).
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize structured logger.
	if err := logger.InitLogger(); err != nil {
		return nil, err
	}

	// Load dynamic configuration.
	if err := config.LoadConfig(); err != nil {
		return nil, err
	}

	app := &App{}

	// Initialize database.
	if _, err := database.InitDB(); err != nil {
		return nil, err
	}
	app.cleanupTasks = append(app.cleanupTasks, func() error {
		return database.CloseDB()
	})

	// Background database health checks back the readiness endpoint.
	if sqlDB, err := database.DB.DB(); err == nil {
		checkerLogger := logrus.New()
		checkerLogger.SetLevel(logrus.WarnLevel)
		app.healthChecker = database.NewHealthChecker(sqlDB, checkerLogger)
		go app.healthChecker.Start(context.Background())
		app.cleanupTasks = append(app.cleanupTasks, func() error {
			app.healthChecker.Stop()
			return nil
		})
	}

	// Initialize Redis (optional). Failure shouldn't block the app.
	if _, err := database.InitRedis(); err != nil {
		logger.Warn("Failed to initialize Redis, history cache degrades to in-process LRU", zap.Error(err))
	} else {
		app.cleanupTasks = append(app.cleanupTasks, func() error {
			return database.CloseRedis()
		})
	}

	// Populate the DI container.
	container := di.InitContainer()
	if err := di.RegisterProviders(container); err != nil {
		return nil, err
	}

	// Watch the keyword file and hot-reload the assessor on change.
	cfg := config.GetAppConfig()
	if cfg.Safety.HotReload && cfg.Safety.KeywordFile != "" {
		if err := container.Invoke(func(assessor *safety.RiskAssessor) {
			config.WatchSafetyKeywords(func(path string) {
				set, err := safety.LoadKeywordSet(path)
				if err != nil {
					logger.Error("Keyword hot reload rejected, keeping previous set", zap.Error(err))
					return
				}
				assessor.Reload(set)
				logger.Info("Safety keyword set hot reloaded", zap.String("file", path))
			})
		}); err != nil {
			logger.Warn("Failed to start keyword file watcher", zap.Error(err))
		}
	}

	return app, nil
}

// Shutdown flushes/logs and closes resources gracefully.
func (a *App) Shutdown() {
	// Execute cleanup tasks in reverse order (best effort).
	for i := len(a.cleanupTasks) - 1; i >= 0; i-- {
		if err := a.cleanupTasks[i](); err != nil {
			log.Printf("Cleanup error: %v\n", err)
		}
	}

	// Flush logger buffers.
	logger.Sync()
}
