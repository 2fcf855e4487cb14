// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "serial-monitor/docs"
	"serial-monitor/internal/config"
	"serial-monitor/internal/database"
	"serial-monitor/internal/discovery"
	serialscan "serial-monitor/internal/discovery/serial"
	tcpscan "serial-monitor/internal/discovery/tcp"
	"serial-monitor/internal/handler"
	"serial-monitor/internal/protocol"
	"serial-monitor/internal/repository"
	"serial-monitor/internal/routes"
	"serial-monitor/internal/service"
	"serial-monitor/internal/utils"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// Application represents the main application
type Application struct {
	config   *config.Config
	logger   *zap.Logger
	server   *http.Server
	database *database.DB

	// Session core
	scanners *discovery.ScannerManager
	manager  *service.SessionManager
	journal  repository.JournalRepository

	// Event plumbing
	eventBus    *handler.EventBus
	connections *handler.ConnectionManager
	prompts     *handler.PromptBroker
	websocket   *handler.WebSocketHandler

	cancel context.CancelFunc
}

// @title Serial Monitor API
// @version 1.0.0
// @description Single-device serial session manager with frame decoding and raw traffic recording

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8085
// @BasePath /api/v1
func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	listPorts := flag.Bool("list-ports", false, "print the available ports and exit")
	showVersion := flag.Bool("version", false, "print the version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	app, err := NewApplication(*configPath)
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}

	if *listPorts {
		app.printPorts()
		return
	}

	if err := app.Start(); err != nil {
		app.logger.Fatal("Failed to start application", zap.Error(err))
	}
}

// NewApplication creates a new application instance
func NewApplication(configPath string) (*Application, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app := &Application{
		config: cfg,
		logger: logger,
	}

	if err := app.initializeDatabase(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	app.initializeRepositories()
	app.initializeDiscovery()
	app.initializeServices()
	app.initializeServer()

	return app, nil
}

// initializeDatabase connects the session journal database when enabled
func (app *Application) initializeDatabase() error {
	if !app.config.Database.Enabled {
		app.logger.Info("Database disabled, session journal kept in memory")
		return nil
	}

	db, err := database.NewConnection(app.config, app.logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	app.database = db

	if app.config.Database.RunMigrations {
		migrator := database.NewMigrator(db, app.logger, &app.config.Database)
		if err := migrator.Up(); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
		version, dirty, err := migrator.Version()
		if err == nil {
			app.logger.Info("Database schema version",
				zap.Uint("version", version),
				zap.Bool("dirty", dirty),
			)
		}
	}

	app.logger.Info("Database initialized successfully")
	return nil
}

// initializeRepositories creates repository instances
func (app *Application) initializeRepositories() {
	if app.database != nil {
		app.journal = repository.NewJournalRepository(app.database, app.logger)
	} else {
		app.journal = repository.NewMemoryJournalRepository()
	}
}

// initializeDiscovery registers the port scanners
func (app *Application) initializeDiscovery() {
	app.scanners = discovery.NewScannerManager(app.logger)
	app.scanners.RegisterScanner(serialscan.NewScanner(app.logger))
	app.scanners.RegisterScanner(tcpscan.NewScanner(app.logger, app.config.Serial.NetworkEndpoints))

	app.logger.Info("Port scanners registered",
		zap.Strings("available", app.scanners.GetAvailableScanners()),
	)
}

// initializeServices wires the session manager to the event plumbing
func (app *Application) initializeServices() {
	app.eventBus = handler.NewEventBus(app.logger)
	app.connections = handler.NewConnectionManager(app.logger)
	app.prompts = handler.NewPromptBroker(app.connections, app.logger)

	opener := protocol.NewOpener(protocol.DefaultsFromConfig(&app.config.Serial), app.logger)
	app.manager = service.NewSessionManager(
		app.scanners,
		opener,
		app.eventBus,
		app.prompts,
		app.config,
		app.logger,
	)

	app.websocket = handler.NewWebSocketHandler(
		app.connections,
		app.manager,
		app.prompts,
		app.config.Prompt.Timeout,
		app.config.Security.AllowedOrigins,
		app.logger,
	)

	app.logger.Info("Services initialized successfully")
}

// initializeServer sets up HTTP server and routes
func (app *Application) initializeServer() {
	routerManager := routes.NewRouter(
		app.config,
		app.logger,
		app.database,
		app.manager,
		app.scanners,
		app.journal,
		app.connections,
		app.websocket,
	)

	app.server = &http.Server{
		Addr:         app.config.GetServerAddr(),
		Handler:      routerManager.SetupRouter(),
		ReadTimeout:  app.config.Server.ReadTimeout,
		WriteTimeout: app.config.Server.WriteTimeout,
		IdleTimeout:  app.config.Server.IdleTimeout,
	}

	app.logger.Info("HTTP server initialized",
		zap.String("address", app.config.GetServerAddr()),
		zap.Bool("tls_enabled", app.config.Server.TLS.Enabled),
	)
}

// startBackgroundServices starts the event bus and its consumers
func (app *Application) startBackgroundServices(ctx context.Context) {
	go app.eventBus.Start()

	go app.websocket.Run(ctx, app.eventBus.Subscribe())

	journal := service.NewJournal(app.journal, app.logger)
	go journal.Run(ctx, app.eventBus.Subscribe(service.JournalEventTypes...))

	app.logger.Info("Background services started")
}

func (app *Application) printPorts() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ports := app.scanners.ListPorts(ctx)
	if len(ports) == 0 {
		fmt.Println("No ports found")
		return
	}
	for _, p := range ports {
		line := p.Name
		if p.IsUSB {
			line += fmt.Sprintf("  [%s:%s] %s %s", p.VID, p.PID, p.Vendor, p.Product)
		}
		fmt.Println(line)
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

	// Closing the session publishes its final events before the bus stops
	app.manager.Shutdown()
	app.eventBus.Stop()
	time.Sleep(100 * time.Millisecond)
	if app.cancel != nil {
		app.cancel()
	}

	if app.database != nil {
		if err := app.database.Close(); err != nil {
			app.logger.Error("Database close error", zap.Error(err))
		} else {
			app.logger.Info("Database connection closed")
		}
	}

	app.logger.Info("Application shutdown completed")

	if err := utils.CloseLogger(app.logger); err != nil {
		fmt.Printf("Logger close error: %v\n", err)
	}
}

// Start runs the HTTP server until a shutdown signal arrives
func (app *Application) Start() error {
	serviceLogger := utils.NewServiceLogger(app.logger, app.config.App.Name)
	serviceLogger.LogServiceStart(app.config.App.Version, map[string]interface{}{
		"server":    app.config.Server,
		"serial":    app.config.Serial,
		"recording": app.config.Recording,
		"database":  app.config.Database.Enabled,
	})

	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.startBackgroundServices(ctx)

	go func() {
		app.logger.Info("Starting HTTP server",
			zap.String("address", app.server.Addr),
		)

		var err error
		if app.config.Server.TLS.Enabled {
			err = app.server.ListenAndServeTLS(
				app.config.Server.TLS.CertFile,
				app.config.Server.TLS.KeyFile,
			)
		} else {
			err = app.server.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	app.waitForShutdown()

	return nil
}
