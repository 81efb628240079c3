package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kvasir-dev/plugvault/internal/api"
	"github.com/kvasir-dev/plugvault/internal/auth"
	"github.com/kvasir-dev/plugvault/internal/core"
	"github.com/kvasir-dev/plugvault/internal/jobs"
	"github.com/kvasir-dev/plugvault/internal/store"
	"github.com/kvasir-dev/plugvault/internal/vault"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Initialize the core application components
	app, err := core.New()
	if err != nil {
		log.Fatalf("Fatal error during application setup: %v", err)
	}
	defer app.Close()

	// --- First User Provisioning ---
	st := store.New(app.DB())
	userCount, err := st.CountUsers()
	if err != nil {
		log.Fatalf("Could not check user count: %v", err)
	}
	if userCount == 0 {
		log.Println("No users found. Creating default admin account.")
		password := generateRandomPassword(12)
		passwordHash, _ := auth.HashPassword(password)
		_, err := st.CreateUser("admin", passwordHash, "admin")
		if err != nil {
			log.Fatalf("Could not create default admin user: %v", err)
		}
		log.Println("==================================================")
		log.Println("Default admin user created.")
		log.Printf("Username: admin")
		log.Printf("Password: %s", password)
		log.Println("Please change this password immediately.")
		log.Println("==================================================")
	}

	// Setup the API server. This wires the archive, the GitHub client and
	// the whole resolution pipeline, so the background jobs close over it.
	server := api.NewServer(app)

	app.JobManager().Register(jobs.JobArchiveRefresh, func(ctx jobs.JobContext) {
		if err := server.Archive().Refresh(); err != nil {
			log.Printf("Archive refresh failed: %v", err)
			ctx.JobManager().Fail(jobs.JobArchiveRefresh, err.Error())
		}
	})
	app.JobManager().Register(jobs.JobUpdateCheck, func(ctx jobs.JobContext) {
		candidates, err := server.Evaluator().CheckForUpdates()
		if err != nil {
			log.Printf("Update check failed: %v", err)
			ctx.JobManager().Fail(jobs.JobUpdateCheck, err.Error())
			return
		}
		outdated := 0
		for _, c := range candidates {
			if c.NeedsUpdate {
				outdated++
			}
		}
		log.Printf("Update check complete: %d plugins checked, %d with updates available.", len(candidates), outdated)
	})

	// Warm the community directory cache before the first scheduled run.
	go app.JobManager().RunJob(jobs.JobArchiveRefresh, app)

	// Start the periodic jobs.
	jobs.StartJobs(app)

	// Watch the active vault so installs done outside the server are
	// picked up without a restart.
	watcher := vault.NewWatcher(server.Vault())
	if err := watcher.Start(); err != nil {
		log.Printf("Warning: could not watch vault: %v", err)
	}
	defer watcher.Stop()

	addr := fmt.Sprintf(":%d", app.Config().Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: server.Router(),
	}
	// --- Graceful Shutdown ---
	// Start the server in a goroutine so it doesn't block.
	go func() {
		log.Printf("Starting web server on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %v", err)
		}
	}()

	// Wait for an interrupt signal.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Create a context with a timeout to allow existing connections to finish.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Attempt a graceful shutdown.
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}

func generateRandomPassword(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	seededRand := rand.New(rand.NewSource(time.Now().UnixNano()))
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}
