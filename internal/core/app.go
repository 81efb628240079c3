package core

import (
	"database/sql"
	"fmt"
	"log"

	"github.com/kvasir-dev/plugvault/internal/config"
	"github.com/kvasir-dev/plugvault/internal/db"
	"github.com/kvasir-dev/plugvault/internal/jobs"
	"github.com/kvasir-dev/plugvault/internal/websocket"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// App holds the core components of the application that are shared
// between the server and the CLI.
type App struct {
	cfg        *config.Config
	db         *sql.DB
	wsHub      *websocket.Hub
	jobManager *jobs.JobManager
	version    string
}

// New sets up and returns a new App instance. It handles loading the
// configuration, initializing the database connection, and running
// migrations.
func New() (*App, error) {
	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Run database migrations
	if err := db.RunMigrations(database); err != nil {
		// We can't proceed without a valid database schema.
		// Close the DB connection before failing.
		database.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	hub := websocket.NewHub()
	go hub.Run()

	log.Println("Core application setup complete.")
	return &App{
		cfg:        cfg,
		db:         database,
		wsHub:      hub,
		jobManager: jobs.NewManager(),
		version:    Version,
	}, nil
}

// NewWithComponents assembles an App from pre-built components. Used by
// tests that supply an in-memory database and their own config.
func NewWithComponents(cfg *config.Config, database *sql.DB, hub *websocket.Hub, version string) *App {
	return &App{
		cfg:        cfg,
		db:         database,
		wsHub:      hub,
		jobManager: jobs.NewManager(),
		version:    version,
	}
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config { return a.cfg }

// DB returns the database handle.
func (a *App) DB() *sql.DB { return a.db }

// WsHub returns the websocket progress hub.
func (a *App) WsHub() *websocket.Hub { return a.wsHub }

// JobManager returns the background job manager.
func (a *App) JobManager() *jobs.JobManager { return a.jobManager }

// Version returns the application version.
func (a *App) Version() string { return a.version }

// Close gracefully closes the application's resources, like the DB
// connection.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
