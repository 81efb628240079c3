package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (s *Server) setIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "setID"), 10, 64)
	if err != nil {
		RespondWithError(w, http.StatusBadRequest, "Invalid set ID")
		return 0, false
	}
	return id, true
}

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := s.store.ListSets()
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to list plugin sets")
		return
	}
	RespondWithJSON(w, http.StatusOK, sets)
}

func (s *Server) handleCreateSet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		RespondWithError(w, http.StatusBadRequest, "Name is required")
		return
	}

	set, err := s.store.CreateSet(req.Name)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to create plugin set")
		return
	}
	RespondWithJSON(w, http.StatusCreated, set)
}

func (s *Server) handleGetSet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.setIDParam(w, r)
	if !ok {
		return
	}

	set, err := s.store.GetSet(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			RespondWithError(w, http.StatusNotFound, "Plugin set not found")
		} else {
			RespondWithError(w, http.StatusInternalServerError, "Failed to get plugin set")
		}
		return
	}
	RespondWithJSON(w, http.StatusOK, set)
}

func (s *Server) handleDeleteSet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.setIDParam(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteSet(id); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to delete plugin set")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Set deleted"})
}

func (s *Server) handleAddRepoToSet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.setIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Repo string `json:"repo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Repo == "" {
		RespondWithError(w, http.StatusBadRequest, "Repo is required")
		return
	}

	if err := s.store.AddRepoToSet(id, req.Repo); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to add repo to set")
		return
	}
	set, err := s.store.GetSet(id)
	if err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to get plugin set")
		return
	}
	RespondWithJSON(w, http.StatusOK, set)
}

func (s *Server) handleRemoveRepoFromSet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.setIDParam(w, r)
	if !ok {
		return
	}

	var req struct {
		Repo string `json:"repo"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Repo == "" {
		RespondWithError(w, http.StatusBadRequest, "Repo is required")
		return
	}

	if err := s.store.RemoveRepoFromSet(id, req.Repo); err != nil {
		RespondWithError(w, http.StatusInternalServerError, "Failed to remove repo from set")
		return
	}
	RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Repo removed"})
}

// handleInstallSet installs every repository in a set into all targets.
// Individual failures never abort the batch; they come back in the report.
func (s *Server) handleInstallSet(w http.ResponseWriter, r *http.Request) {
	id, ok := s.setIDParam(w, r)
	if !ok {
		return
	}

	set, err := s.store.GetSet(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			RespondWithError(w, http.StatusNotFound, "Plugin set not found")
		} else {
			RespondWithError(w, http.StatusInternalServerError, "Failed to get plugin set")
		}
		return
	}
	if len(set.Repos) == 0 {
		RespondWithError(w, http.StatusBadRequest, "Set has no repositories")
		return
	}

	report := s.installMany("set-install", set.Repos)
	RespondWithJSON(w, http.StatusOK, report)
}
