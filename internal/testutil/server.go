package testutil

import (
	"database/sql"
	"testing"

	"github.com/kvasir-dev/plugvault/internal/api"
	"github.com/kvasir-dev/plugvault/internal/config"
	"github.com/kvasir-dev/plugvault/internal/core"
	"github.com/kvasir-dev/plugvault/internal/search"
	"github.com/kvasir-dev/plugvault/internal/websocket"
)

// SetupTestApp builds a core.App backed by an in-memory database, suitable
// for job and service tests.
func SetupTestApp(t *testing.T) *core.App {
	t.Helper()
	database := SetupTestDB(t)

	cfg := &config.Config{}
	cfg.Vault.Path = t.TempDir()
	hub := websocket.NewHub()
	go hub.Run()
	return core.NewWithComponents(cfg, database, hub, "test")
}

// SetupTestServer initializes a full core.App and api.Server for integration
// testing. NewServer registers the search sources, so the registry is cleared
// when the test completes.
func SetupTestServer(t *testing.T) (*api.Server, *sql.DB) {
	t.Helper()
	app := SetupTestApp(t)

	t.Cleanup(func() {
		search.UnregisterAll()
	})

	server := api.NewServer(app)
	return server, app.DB()
}

// SetupTestServerWithConfig is SetupTestServer with a caller-supplied
// configuration, for tests that point the upstream URLs at httptest
// servers.
func SetupTestServerWithConfig(t *testing.T, cfg *config.Config) (*api.Server, *sql.DB) {
	t.Helper()
	database := SetupTestDB(t)

	hub := websocket.NewHub()
	go hub.Run()
	app := core.NewWithComponents(cfg, database, hub, "test")

	t.Cleanup(func() {
		search.UnregisterAll()
	})

	server := api.NewServer(app)
	return server, database
}
