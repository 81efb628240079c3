package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kvasir-dev/plugvault/internal/models"
	"github.com/kvasir-dev/plugvault/internal/websocket"
)

// handleCheckUpdates evaluates every installed plugin and returns the
// ordered candidate list: update-needed first, then alphabetical.
func (s *Server) handleCheckUpdates(w http.ResponseWriter, r *http.Request) {
	candidates, err := s.evaluator.CheckForUpdates()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to check for updates: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, candidates)
}

// handleInstall installs a plugin from a repository into every configured
// target.
func (s *Server) handleInstall(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Repo string `json:"repo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Repo == "" {
		RespondWithError(w, http.StatusBadRequest, "Repo is required")
		return
	}

	installed, err := s.installer.Install(req.Repo)
	if err != nil {
		RespondWithError(w, http.StatusBadGateway, fmt.Sprintf("Failed to install %s: %v", req.Repo, err))
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]int{"installed_targets": installed})
}

// handleBulkUpdate installs the latest release of each given repository.
// The batch always completes; failures are collected per repository and
// reported, never raised.
func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Repos []string `json:"repos"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Repos) == 0 {
		RespondWithError(w, http.StatusBadRequest, "Repos are required")
		return
	}

	report := s.installMany("bulk-update", req.Repos)
	RespondWithJSON(w, http.StatusOK, report)
}

// installMany runs the collect-and-report fan-out shared by bulk update and
// set installation, broadcasting progress over the websocket hub.
func (s *Server) installMany(job string, repos []string) models.UpdateReport {
	report := models.UpdateReport{
		Updated: make([]string, 0, len(repos)),
		Failed:  make(map[string]string),
	}
	for i, repo := range repos {
		if _, err := s.installer.Install(repo); err != nil {
			report.Failed[repo] = err.Error()
		} else {
			report.Updated = append(report.Updated, repo)
		}
		s.app.WsHub().Broadcast(websocket.ProgressEvent{
			Job:   job,
			Item:  repo,
			Done:  i + 1,
			Total: len(repos),
		})
	}
	return report
}

// handleListVaults returns all current installation targets.
func (s *Server) handleListVaults(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string][]string{"targets": s.installer.Targets()})
}
