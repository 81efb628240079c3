package search

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kvasir-dev/plugvault/internal/models"
)

// ArchiveSource searches the official community plugin directory: a single
// static JSON manifest that is fetched periodically and filtered in memory.
// The directory also serves as the authoritative plugin-id -> repository
// mapping for the resolver.
type ArchiveSource struct {
	client *http.Client
	url    string
	ttl    time.Duration

	mu        sync.Mutex
	directory []models.CommunityPlugin
	fetchedAt time.Time
}

// NewArchiveSource creates an archive source backed by the directory at url.
// ttl bounds how stale the cached directory may get before a search triggers
// a refetch.
func NewArchiveSource(url string, ttl time.Duration) *ArchiveSource {
	return &ArchiveSource{
		client: &http.Client{Timeout: 30 * time.Second},
		url:    url,
		ttl:    ttl,
	}
}

// Info returns static information about this source.
func (a *ArchiveSource) Info() models.SourceInfo {
	return models.SourceInfo{ID: "archive", Name: "Community Plugin Directory"}
}

// Refresh forces a refetch of the directory manifest. Network failures
// propagate to the caller; this call is expected to fail fast and visibly.
func (a *ArchiveSource) Refresh() error {
	resp, err := a.client.Get(a.url)
	if err != nil {
		return fmt.Errorf("failed to fetch plugin directory: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("plugin directory returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read plugin directory: %w", err)
	}

	var directory []models.CommunityPlugin
	if err := json.Unmarshal(data, &directory); err != nil {
		return fmt.Errorf("failed to parse plugin directory JSON: %w", err)
	}

	a.mu.Lock()
	a.directory = directory
	a.fetchedAt = time.Now()
	a.mu.Unlock()
	return nil
}

// Directory returns the cached directory, fetching it when empty or stale.
func (a *ArchiveSource) Directory() ([]models.CommunityPlugin, error) {
	a.mu.Lock()
	fresh := a.directory != nil && time.Since(a.fetchedAt) < a.ttl
	cached := a.directory
	a.mu.Unlock()

	if fresh {
		return cached, nil
	}
	if err := a.Refresh(); err != nil {
		// A stale cache beats no results, but an empty one means the
		// failure must surface.
		if cached != nil {
			return cached, nil
		}
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.directory, nil
}

// Lookup returns the repository for a plugin id straight from the official
// directory. This is the resolver's trusted tier: a hit needs no
// verification.
func (a *ArchiveSource) Lookup(pluginID string) (string, bool) {
	directory, err := a.Directory()
	if err != nil {
		return "", false
	}
	for _, entry := range directory {
		if entry.ID == pluginID {
			return entry.Repo, true
		}
	}
	return "", false
}

// Search filters the directory by case-insensitive substring match over
// name, author, description, and id, using both the original and singular
// query forms. An empty or wildcard query matches everything. The directory
// carries no popularity data, so Stars is always zero.
func (a *ArchiveSource) Search(q Query) ([]models.RepoResult, error) {
	directory, err := a.Directory()
	if err != nil {
		return nil, err
	}

	results := make([]models.RepoResult, 0)
	for _, entry := range directory {
		if q.IsAuthor() {
			if !strings.Contains(strings.ToLower(entry.Author), strings.ToLower(q.Author)) {
				continue
			}
		} else if !q.Matches(entry.Name, entry.Author, entry.Description, entry.ID) {
			continue
		}
		owner := entry.Repo
		if i := strings.IndexByte(owner, '/'); i >= 0 {
			owner = owner[:i]
		}
		results = append(results, models.RepoResult{
			FullName:    entry.Repo,
			Description: entry.Description,
			OwnerLogin:  owner,
		})
	}
	return results, nil
}
