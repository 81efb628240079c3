package search

import (
	"fmt"

	"github.com/kvasir-dev/plugvault/internal/github"
	"github.com/kvasir-dev/plugvault/internal/models"
)

// GitHubSource searches the code-hosting API for plugin repositories.
type GitHubSource struct {
	gh *github.Client
}

// NewGitHubSource creates a source backed by the given API client.
func NewGitHubSource(gh *github.Client) *GitHubSource {
	return &GitHubSource{gh: gh}
}

// Info returns static information about this source.
func (g *GitHubSource) Info() models.SourceInfo {
	return models.SourceInfo{ID: "github", Name: "GitHub"}
}

// Search runs a repository search. Keyword queries carry boolean exclusions
// for theme, css, and vault repos so the bulk of the noise never leaves the
// API; the classifier applies the finer-grained heuristics afterwards.
// Author queries scope to the handle instead and skip the exclusions, since
// an author's themes are a legitimate answer to "what did this author make".
func (g *GitHubSource) Search(q Query) ([]models.RepoResult, error) {
	var query string
	if q.IsAuthor() {
		query = fmt.Sprintf("obsidian user:%s", q.Author)
	} else {
		query = fmt.Sprintf("%s obsidian plugin NOT theme NOT css NOT vault", q.Raw)
	}
	return g.gh.SearchRepositories(query)
}
