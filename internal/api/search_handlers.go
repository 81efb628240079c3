package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/kvasir-dev/plugvault/internal/github"
	"github.com/kvasir-dev/plugvault/internal/search"
)

// handleListSources lists the registered repository search sources.
func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, search.GetAll())
}

// handleSearchArchive searches the official community plugin directory.
// Archive results passed the directory's own filter already and skip the
// repository classifier.
func (s *Server) handleSearchArchive(w http.ResponseWriter, r *http.Request) {
	q := search.Normalize(r.URL.Query().Get("q"))
	src, ok := search.Get("archive")
	if !ok {
		RespondWithError(w, http.StatusServiceUnavailable, "Archive source not registered")
		return
	}
	results, err := src.Search(q)
	if err != nil {
		RespondWithError(w, http.StatusBadGateway, fmt.Sprintf("Archive search failed: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, results)
}

// handleSearchRepositories runs a keyword search against the code-hosting
// API, then classifies and annotates the results.
func (s *Server) handleSearchRepositories(w http.ResponseWriter, r *http.Request) {
	s.searchRepos(w, search.Normalize(r.URL.Query().Get("q")))
}

// handleSearchAuthors searches repositories by author handle.
func (s *Server) handleSearchAuthors(w http.ResponseWriter, r *http.Request) {
	handle := r.URL.Query().Get("handle")
	if handle == "" {
		RespondWithError(w, http.StatusBadRequest, "Author handle is required")
		return
	}
	s.searchRepos(w, search.Normalize("@"+handle))
}

func (s *Server) searchRepos(w http.ResponseWriter, q search.Query) {
	src, ok := search.Get("github")
	if !ok {
		RespondWithError(w, http.StatusServiceUnavailable, "Repository source not registered")
		return
	}
	results, err := src.Search(q)
	if err != nil {
		if errors.Is(err, github.ErrRateLimited) {
			RespondWithError(w, http.StatusTooManyRequests, "Search rate limited; add a token or try again later")
			return
		}
		RespondWithError(w, http.StatusBadGateway, fmt.Sprintf("Repository search failed: %v", err))
		return
	}

	results = s.classifier.Classify(q, results)
	s.classifier.AnnotateDesktopOnly(results)
	RespondWithJSON(w, http.StatusOK, results)
}

// handleSearchForum searches the community discussion forum.
func (s *Server) handleSearchForum(w http.ResponseWriter, r *http.Request) {
	q := search.Normalize(r.URL.Query().Get("q"))
	hits, err := s.forum.Search(q)
	if err != nil {
		RespondWithError(w, http.StatusBadGateway, fmt.Sprintf("Forum search failed: %v", err))
		return
	}
	RespondWithJSON(w, http.StatusOK, hits)
}
