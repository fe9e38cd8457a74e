// cmd/server/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "label-service/docs"
	"label-service/internal/config"
	"label-service/internal/handler"
	"label-service/internal/imaging"
	"label-service/internal/repository"
	"label-service/internal/routes"
	"label-service/internal/service"
	"label-service/internal/utils"
)

// Application represents the main application
type Application struct {
	config *config.Config
	logger *zap.Logger
	server *http.Server
	bus    *handler.EventBus

	// Services
	printerService   *service.PrinterService
	jobService       *service.JobService
	discoveryService *service.DiscoveryService

	// Repositories
	printerRepo repository.PrinterRepository
	jobRepo     repository.JobRepository
}

// @title Label Service API
// @version 1.0.0
// @description Label printing service for ZPL printers with template rendering, asset management and network discovery
// @termsOfService http://swagger.io/terms/

// @contact.name Label Service API Support
// @contact.email support@labelservice.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8086
// @BasePath /api/v1
func main() {
	app, err := NewApplication()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Application failed to start", zap.Error(err))
	}
}

// NewApplication creates and initializes the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	serviceLogger := utils.NewServiceLogger(logger, cfg.App.Name)
	serviceLogger.LogServiceStart(cfg.App.Version, cfg)

	app := &Application{
		config: cfg,
		logger: logger,
	}

	app.initializeRepositories()
	app.initializeEventBus()
	app.initializeServices()
	app.initializeServer()

	return app, nil
}

// initializeRepositories sets up the in-memory stores
func (app *Application) initializeRepositories() {
	app.printerRepo = repository.NewPrinterRepository(app.logger)
	app.jobRepo = repository.NewJobRepository(app.logger)

	app.logger.Info("Repositories initialized")
}

// initializeEventBus starts the event distribution loop
func (app *Application) initializeEventBus() {
	app.bus = handler.NewEventBus(app.logger)
	go app.bus.Start()

	app.logger.Info("Event bus initialized")
}

// initializeServices wires the service layer
func (app *Application) initializeServices() {
	processor := imaging.NewProcessor(imaging.Options{
		MaxWidth:     app.config.Imaging.MaxWidth,
		MaxHeight:    app.config.Imaging.MaxHeight,
		MaxBytes:     app.config.Imaging.MaxBytes,
		AllowUpscale: app.config.Imaging.AllowUpscale,
	}, app.logger)

	app.printerService = service.NewPrinterService(app.printerRepo, app.config, app.bus, app.logger)
	app.jobService = service.NewJobService(app.jobRepo, app.printerRepo, processor, app.config, app.bus, app.logger)
	app.discoveryService = service.NewDiscoveryService(app.printerRepo, app.config, app.bus, app.logger)

	app.logger.Info("Services initialized")
}

// initializeServer builds the HTTP server
func (app *Application) initializeServer() {
	router := routes.NewRouter(
		app.config,
		app.logger,
		app.printerRepo,
		app.jobRepo,
		app.printerService,
		app.jobService,
		app.discoveryService,
		app.bus,
	)

	engine := router.SetupRouter()

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      engine,
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.server.Addr),
	)
}

// startBackgroundServices starts the periodic maintenance loops
func (app *Application) startBackgroundServices() {
	go app.startStatusProbing()
	go app.startJobCleanup()

	app.logger.Info("Background services started")
}

// startStatusProbing periodically probes registered printers and updates
// their reachability status
func (app *Application) startStatusProbing() {
	interval := app.config.Jobs.ProbeInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	app.logger.Info("Status probing started",
		zap.Duration("interval", interval),
	)

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), interval)
		app.printerService.RefreshStatuses(ctx)
		cancel()
	}
}

// startJobCleanup periodically removes finished jobs older than the
// configured retention window
func (app *Application) startJobCleanup() {
	interval := app.config.Jobs.CleanupInterval
	if interval <= 0 {
		interval = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	app.logger.Info("Job cleanup started",
		zap.Duration("interval", interval),
		zap.Duration("retention", app.config.Jobs.Retention),
	)

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)

		removed, err := app.jobService.CleanupFinished(ctx)
		if err != nil {
			app.logger.Error("Failed to clean up finished jobs", zap.Error(err))
		} else if removed > 0 {
			app.logger.Info("Cleaned up finished jobs", zap.Int("removed", removed))
		}

		cancel()
	}
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func (app *Application) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	app.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	app.shutdown()
}

// shutdown performs graceful shutdown
func (app *Application) shutdown() {
	serviceLogger := utils.NewServiceLogger(app.logger, app.config.App.Name)
	serviceLogger.LogServiceStop("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		app.logger.Info("HTTP server stopped")
	}

	app.bus.Close()

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}

	app.logger.Info("Application shutdown completed")
}

func (app *Application) Start() error {
	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		if err := app.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.startBackgroundServices()

	app.waitForShutdown()

	return nil
}
