// Package resolve recovers the originating repository of an installed
// plugin when no authoritative mapping exists. It is deliberately
// best-effort: a miss is a negative result, never a hard error.
package resolve

import (
	"errors"
	"log"
	"regexp"

	"github.com/kvasir-dev/plugvault/internal/github"
	"github.com/kvasir-dev/plugvault/internal/models"
)

// Failure reasons, coarse on purpose: callers only branch on rate limiting.
const (
	ReasonNoMatch     = "no matching repository found"
	ReasonRateLimited = "search rate limited; try again later"
)

// Failure is a resolution miss. It is a value, not an error: callers treat
// the plugin as unknown and keep going.
type Failure struct {
	Reason string
}

// OfficialDirectory is the trusted plugin-id -> repository mapping (the
// community plugin directory). A hit here needs no verification.
type OfficialDirectory interface {
	Lookup(pluginID string) (string, bool)
}

// TrackedMappings is the persistent mapping written back by earlier
// detections.
type TrackedMappings interface {
	GetRepoMapping(pluginID string) (string, error)
}

// APIClient is the slice of the code-hosting client the resolver uses.
type APIClient interface {
	GetManifest(fullName string) (*models.PluginManifest, error)
	SearchRepositories(query string) ([]models.RepoResult, error)
}

// maxVerifiedPerQuery bounds how many results of each fallback search get a
// manifest verification fetch.
const maxVerifiedPerQuery = 12

var profileURLPattern = regexp.MustCompile(`(?i)github\.com/([A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?)`)

// Resolver maps plugin ids back to repositories via a tiered strategy:
// official directory, tracked mapping, pattern-based candidates with
// verification, then full-text search with verification.
type Resolver struct {
	official OfficialDirectory
	tracked  TrackedMappings
	gh       APIClient
}

// New creates a Resolver.
func New(official OfficialDirectory, tracked TrackedMappings, gh APIClient) *Resolver {
	return &Resolver{official: official, tracked: tracked, gh: gh}
}

// Resolve returns the repository full name for a plugin, plus where it came
// from, or a Failure when every tier misses. Tiers run strictly in order
// and short-circuit on the first verified match.
func (r *Resolver) Resolve(pluginID string, manifest *models.PluginManifest) (string, models.ResolutionSource, *Failure) {
	// Tier 1: the official directory is trusted as-is.
	if repo, ok := r.official.Lookup(pluginID); ok {
		return repo, models.SourceOfficial, nil
	}

	// Tier 2: a previously detected mapping is trusted over re-detection.
	if repo, err := r.tracked.GetRepoMapping(pluginID); err == nil && repo != "" {
		return repo, models.SourceTracked, nil
	}

	// Tier 3: pattern-based candidates, verified one by one.
	owner := ownerFromAuthorURL(manifest.AuthorURL)
	if owner != "" {
		for _, candidate := range Candidates(owner, pluginID, manifest.Name) {
			if r.verify(candidate, pluginID) {
				return candidate, models.SourceDetected, nil
			}
		}
	}

	// Tier 4: full-text search fallback.
	return r.searchFallback(pluginID, manifest, owner)
}

// verify fetches a candidate repository's manifest at the default branch
// and checks that its declared id matches.
func (r *Resolver) verify(fullName, pluginID string) bool {
	manifest, err := r.gh.GetManifest(fullName)
	if err != nil {
		return false
	}
	return manifest.ID == pluginID
}

// searchFallback issues up to three search queries in priority order,
// scoped to the owner when one is known, and verifies at most the first
// twelve results of each. A rate-limited query is recorded but does not
// abort the remaining ones; only when every query was rate limited does the
// failure say so instead of "no match".
func (r *Resolver) searchFallback(pluginID string, manifest *models.PluginManifest, owner string) (string, models.ResolutionSource, *Failure) {
	var queries []string
	if owner != "" {
		queries = []string{
			`"` + pluginID + `" user:` + owner,
			`"` + pluginID + `" obsidian plugin`,
			manifest.Name + " obsidian plugin",
		}
	} else {
		queries = []string{
			`"` + pluginID + `" obsidian plugin`,
			`"` + pluginID + `" plugin`,
			manifest.Name + " obsidian plugin",
		}
	}

	rateLimited := 0
	for _, query := range queries {
		results, err := r.gh.SearchRepositories(query)
		if err != nil {
			if errors.Is(err, github.ErrRateLimited) {
				rateLimited++
			} else {
				log.Printf("Resolver: search %q failed: %v", query, err)
			}
			continue
		}

		for i, result := range results {
			if i >= maxVerifiedPerQuery {
				break
			}
			if r.verify(result.FullName, pluginID) {
				return result.FullName, models.SourceDetected, nil
			}
		}
	}

	if rateLimited == len(queries) {
		return "", models.SourceUnknown, &Failure{Reason: ReasonRateLimited}
	}
	return "", models.SourceUnknown, &Failure{Reason: ReasonNoMatch}
}

// ownerFromAuthorURL extracts a code-hosting handle from a manifest's
// authorUrl, when it points at a profile there.
func ownerFromAuthorURL(authorURL string) string {
	if authorURL == "" {
		return ""
	}
	m := profileURLPattern.FindStringSubmatch(authorURL)
	if m == nil {
		return ""
	}
	return m[1]
}
