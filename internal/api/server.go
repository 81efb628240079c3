// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kvasir-dev/plugvault/internal/core"
	"github.com/kvasir-dev/plugvault/internal/github"
	"github.com/kvasir-dev/plugvault/internal/installer"
	"github.com/kvasir-dev/plugvault/internal/resolve"
	"github.com/kvasir-dev/plugvault/internal/search"
	"github.com/kvasir-dev/plugvault/internal/store"
	"github.com/kvasir-dev/plugvault/internal/update"
	"github.com/kvasir-dev/plugvault/internal/vault"
)

// Server holds the dependencies for our API.
type Server struct {
	app        *core.App
	db         *sql.DB
	store      *store.Store
	gh         *github.Client
	vault      *vault.Vault
	archive    *search.ArchiveSource
	forum      *search.ForumClient
	classifier *search.Classifier
	resolver   *resolve.Resolver
	evaluator  *update.Evaluator
	installer  *installer.Installer
}

// NewServer creates a new Server instance and wires the whole discovery,
// resolution, and installation pipeline from the app's configuration. It
// registers the repository-shaped search sources; tests that build several
// servers must unregister between them.
func NewServer(app *core.App) *Server {
	cfg := app.Config()
	st := store.New(app.DB())
	gh := github.New(cfg.GitHub.APIURL, cfg.GitHub.RawURL, cfg.GitHub.Token)
	activeVault := vault.New(cfg.Vault.Path)
	archive := search.NewArchiveSource(cfg.Archive.URL, time.Duration(cfg.Archive.RefreshInterval)*time.Minute)
	resolver := resolve.New(archive, st, gh)

	s := &Server{
		app:        app,
		db:         app.DB(),
		store:      st,
		gh:         gh,
		vault:      activeVault,
		archive:    archive,
		forum:      search.NewForumClient(cfg.Forum.URL),
		classifier: search.NewClassifier(gh),
		resolver:   resolver,
		evaluator:  update.NewEvaluator(resolver, gh, st, activeVault, cfg.AppVersion),
		installer:  installer.New(gh, cfg, activeVault),
	}

	search.Register(archive)
	search.Register(search.NewGitHubSource(gh))
	return s
}

// Store returns the store instance.
func (s *Server) Store() *store.Store { return s.store }

// Archive returns the archive source, for job wiring.
func (s *Server) Archive() *search.ArchiveSource { return s.archive }

// Evaluator returns the update evaluator, for job wiring.
func (s *Server) Evaluator() *update.Evaluator { return s.evaluator }

// Vault returns the active vault adapter.
func (s *Server) Vault() *vault.Vault { return s.vault }

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(60 * time.Second))

	// API routes
	r.Post("/api/users/login", s.handleLogin)
	r.Get("/api/version", s.handleGetVersion)

	r.Group(func(r chi.Router) {
		r.Use(s.AuthMiddleware)

		r.Post("/api/users/logout", s.handleLogout)
		r.Get("/api/users/me", s.handleGetMe)

		r.Route("/api", func(r chi.Router) {
			// Search Routes
			r.Get("/search/sources", s.handleListSources)
			r.Get("/search/archive", s.handleSearchArchive)
			r.Get("/search/repositories", s.handleSearchRepositories)
			r.Get("/search/authors", s.handleSearchAuthors)
			r.Get("/search/forum", s.handleSearchForum)

			// Update / Install Routes
			r.Post("/updates/check", s.handleCheckUpdates)
			r.Post("/install", s.handleInstall)
			r.Post("/update", s.handleBulkUpdate)
			r.Get("/vaults", s.handleListVaults)

			// Plugin Set Routes
			r.Get("/sets", s.handleListSets)
			r.Post("/sets", s.handleCreateSet)
			r.Get("/sets/{setID}", s.handleGetSet)
			r.Delete("/sets/{setID}", s.handleDeleteSet)
			r.Post("/sets/{setID}/repos", s.handleAddRepoToSet)
			r.Delete("/sets/{setID}/repos", s.handleRemoveRepoFromSet)
			r.Post("/sets/{setID}/install", s.handleInstallSet)

			// Job Triggers
			r.Get("/jobs/status", s.handleGetJobsStatus)
			r.Post("/jobs/run", s.handleRunJob)
		})
	})

	// WebSocket route
	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub().ServeWs(w, r)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
