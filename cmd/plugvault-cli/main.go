// A one-shot command line companion to the server: check the active vault
// for plugin updates without keeping a daemon running.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/kvasir-dev/plugvault/internal/config"
	"github.com/kvasir-dev/plugvault/internal/db"
	"github.com/kvasir-dev/plugvault/internal/github"
	"github.com/kvasir-dev/plugvault/internal/resolve"
	"github.com/kvasir-dev/plugvault/internal/search"
	"github.com/kvasir-dev/plugvault/internal/store"
	"github.com/kvasir-dev/plugvault/internal/update"
	"github.com/kvasir-dev/plugvault/internal/vault"
)

func main() {
	query := flag.String("search", "", "search the community directory instead of checking for updates")
	flag.Parse()

	// Load configuration from config.yml
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize the database connection
	database, err := db.InitDB(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Run database migrations
	if err := db.RunMigrations(database); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	archive := search.NewArchiveSource(cfg.Archive.URL, time.Duration(cfg.Archive.RefreshInterval)*time.Minute)

	if *query != "" {
		results, err := archive.Search(search.Normalize(*query))
		if err != nil {
			log.Fatalf("Directory search failed: %v", err)
		}
		if len(results) == 0 {
			fmt.Println("No matching plugins in the community directory.")
			return
		}
		for _, r := range results {
			fmt.Printf("%-45s %s\n", r.FullName, r.Description)
		}
		return
	}

	st := store.New(database)
	gh := github.New(cfg.GitHub.APIURL, cfg.GitHub.RawURL, cfg.GitHub.Token)
	v := vault.New(cfg.Vault.Path)
	resolver := resolve.New(archive, st, gh)
	evaluator := update.NewEvaluator(resolver, gh, st, v, cfg.AppVersion)

	log.Printf("Checking plugins in vault: %s", cfg.Vault.Path)
	candidates, err := evaluator.CheckForUpdates()
	if err != nil {
		log.Fatalf("Error checking for updates: %v", err)
	}

	if len(candidates) == 0 {
		fmt.Println("No plugins installed.")
		return
	}

	outdated := 0
	for _, c := range candidates {
		status := string(c.Status)
		if c.Error != "" {
			status = "error: " + c.Error
		}
		marker := " "
		if c.NeedsUpdate {
			marker = "*"
			outdated++
		}
		fmt.Printf("%s %-30s %-10s -> %-10s %s\n", marker, c.PluginID, c.InstalledVersion, c.LatestVersion, status)
	}
	fmt.Printf("%d of %d plugins have updates available.\n", outdated, len(candidates))
}
