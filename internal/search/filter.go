package search

import (
	"sort"
	"strings"
	"sync"

	"github.com/kvasir-dev/plugvault/internal/models"
)

// ManifestFetcher is the slice of the API client the classifier needs for
// its desktop-only side-fetches.
type ManifestFetcher interface {
	GetManifest(fullName string) (*models.PluginManifest, error)
}

// DesktopCache memoizes desktop-only lookups per repository full name so
// repeated renders never re-fetch a manifest. Entries are write-once: the
// first resolution wins and is never invalidated.
type DesktopCache struct {
	mu      sync.Mutex
	entries map[string]bool
}

// NewDesktopCache creates an empty cache. Its lifetime is the classifier's;
// there is no ambient global copy.
func NewDesktopCache() *DesktopCache {
	return &DesktopCache{entries: make(map[string]bool)}
}

// Get returns the cached value for a repository, if any.
func (c *DesktopCache) Get(fullName string) (bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[fullName]
	return v, ok
}

// Put records a value unless one is already present.
func (c *DesktopCache) Put(fullName string, desktopOnly bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[fullName]; !exists {
		c.entries[fullName] = desktopOnly
	}
}

// Classifier applies the shared heuristics to repository-shaped results
// before they reach the UI. Archive results have already passed the
// directory's own filter and forum results use their own heuristic, so
// neither goes through here.
type Classifier struct {
	fetcher ManifestFetcher
	cache   *DesktopCache
}

// NewClassifier creates a classifier owning its desktop-only cache.
func NewClassifier(fetcher ManifestFetcher) *Classifier {
	return &Classifier{fetcher: fetcher, cache: NewDesktopCache()}
}

// Cache exposes the desktop-only cache for sharing with other callers.
func (cl *Classifier) Cache() *DesktopCache { return cl.cache }

// Classify filters and re-ranks results for the given query:
//   - personal vault dumps are dropped, unless the query itself mentions
//     "vault";
//   - theme and CSS snippet repos are dropped, unless this is an author
//     search or the query mentions them;
//   - author searches re-rank so owner-handle-prefix matches come first,
//     popularity descending as tie-break.
func (cl *Classifier) Classify(q Query, results []models.RepoResult) []models.RepoResult {
	kept := make([]models.RepoResult, 0, len(results))
	for _, r := range results {
		if !q.MentionsVault() && looksLikeVaultDump(r) {
			continue
		}
		if !q.IsAuthor() {
			if !q.MentionsTheme() && looksLikeTheme(r) {
				continue
			}
			if !q.MentionsCSS() && looksLikeSnippet(r) {
				continue
			}
		}
		kept = append(kept, r)
	}

	if q.IsAuthor() {
		handle := strings.ToLower(q.Author)
		sort.SliceStable(kept, func(i, j int) bool {
			pi := strings.HasPrefix(strings.ToLower(kept[i].OwnerLogin), handle)
			pj := strings.HasPrefix(strings.ToLower(kept[j].OwnerLogin), handle)
			if pi != pj {
				return pi
			}
			return kept[i].Stars > kept[j].Stars
		})
	}
	return kept
}

// AnnotateDesktopOnly resolves the desktop-only flag for each result via a
// manifest side-fetch, memoized process-wide by repository full name.
// Desktop-only is never a filter, only an annotation; a failed fetch leaves
// the flag unknown and uncached.
func (cl *Classifier) AnnotateDesktopOnly(results []models.RepoResult) {
	for i := range results {
		r := &results[i]
		if v, ok := cl.cache.Get(r.FullName); ok {
			r.DesktopOnly = &v
			continue
		}
		manifest, err := cl.fetcher.GetManifest(r.FullName)
		if err != nil {
			continue
		}
		cl.cache.Put(r.FullName, manifest.IsDesktopOnly)
		v, _ := cl.cache.Get(r.FullName)
		r.DesktopOnly = &v
	}
}

// looksLikeVaultDump flags repositories that are somebody's published note
// vault rather than a plugin.
func looksLikeVaultDump(r models.RepoResult) bool {
	name := repoName(r.FullName)
	if strings.HasSuffix(name, "vault") || strings.Contains(name, "vault-") {
		return true
	}
	desc := strings.ToLower(r.Description)
	return strings.Contains(desc, "my vault") ||
		strings.Contains(desc, "personal vault") ||
		strings.Contains(desc, "my obsidian notes")
}

func looksLikeTheme(r models.RepoResult) bool {
	name := repoName(r.FullName)
	desc := strings.ToLower(r.Description)
	return strings.Contains(name, "theme") || strings.Contains(desc, "theme for obsidian") ||
		strings.HasPrefix(desc, "a theme") || strings.HasPrefix(desc, "an obsidian theme")
}

func looksLikeSnippet(r models.RepoResult) bool {
	name := repoName(r.FullName)
	desc := strings.ToLower(r.Description)
	return strings.Contains(name, "css") || strings.Contains(name, "snippet") ||
		strings.Contains(desc, "css snippet")
}

// repoName returns the lowercase "name" half of an owner/name pair.
func repoName(fullName string) string {
	name := fullName
	if i := strings.LastIndexByte(fullName, '/'); i >= 0 {
		name = fullName[i+1:]
	}
	return strings.ToLower(name)
}
