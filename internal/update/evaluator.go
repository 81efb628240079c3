// Package update cross-references installed plugin versions against the
// latest-release manifests of their resolved repositories.
package update

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/kvasir-dev/plugvault/internal/models"
	"github.com/kvasir-dev/plugvault/internal/resolve"
)

// Enumerator yields the currently installed plugins of the active vault.
type Enumerator interface {
	ListInstalled() (map[string]*models.PluginManifest, error)
}

// ReleaseClient is the slice of the code-hosting client the evaluator uses.
type ReleaseClient interface {
	LatestRelease(fullName string) (*models.Release, error)
	DownloadAsset(assetURL string) ([]byte, error)
}

// MappingWriter persists successful detections.
type MappingWriter interface {
	SaveRepoMapping(pluginID, repo string) (bool, error)
}

// Evaluator produces one UpdateCandidate per installed plugin.
type Evaluator struct {
	resolver   *resolve.Resolver
	gh         ReleaseClient
	mappings   MappingWriter
	vault      Enumerator
	appVersion string
}

// NewEvaluator creates an Evaluator. appVersion may be empty, which skips
// the minAppVersion compatibility annotation.
func NewEvaluator(resolver *resolve.Resolver, gh ReleaseClient, mappings MappingWriter, vault Enumerator, appVersion string) *Evaluator {
	return &Evaluator{
		resolver:   resolver,
		gh:         gh,
		mappings:   mappings,
		vault:      vault,
		appVersion: appVersion,
	}
}

// CheckForUpdates evaluates every installed plugin, one at a time. A plugin
// that cannot be resolved or evaluated becomes an "unknown" candidate
// carrying the reason; it never aborts the batch. Each successful detection
// is written back to the mapping table immediately, not batched, so an
// interrupted run loses at most the in-flight plugin.
//
// The output order is a contract: candidates needing an update first, then
// lexicographically by plugin id within each partition.
func (e *Evaluator) CheckForUpdates() ([]models.UpdateCandidate, error) {
	installed, err := e.vault.ListInstalled()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate installed plugins: %w", err)
	}

	ids := make([]string, 0, len(installed))
	for id := range installed {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	candidates := make([]models.UpdateCandidate, 0, len(ids))
	for _, id := range ids {
		c := e.evaluate(id, installed[id])
		if c.Source == models.SourceDetected {
			written, err := e.mappings.SaveRepoMapping(id, c.Repo)
			if err != nil {
				log.Printf("Update check: failed to save mapping %s -> %s: %v", id, c.Repo, err)
			} else if written {
				log.Printf("Update check: detected repository %s for plugin %s", c.Repo, id)
			}
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].NeedsUpdate != candidates[j].NeedsUpdate {
			return candidates[i].NeedsUpdate
		}
		return candidates[i].PluginID < candidates[j].PluginID
	})
	return candidates, nil
}

func (e *Evaluator) evaluate(id string, manifest *models.PluginManifest) models.UpdateCandidate {
	c := models.UpdateCandidate{
		PluginID:         id,
		InstalledVersion: manifest.Version,
		Source:           models.SourceUnknown,
		Status:           models.StatusUnknown,
	}

	repo, source, failure := e.resolver.Resolve(id, manifest)
	if failure != nil {
		c.Error = failure.Reason
		return c
	}
	c.Repo = repo
	c.Source = source

	release, err := e.gh.LatestRelease(repo)
	if err != nil {
		c.Error = fmt.Sprintf("failed to fetch latest release: %v", err)
		return c
	}

	asset := release.Asset("manifest.json")
	if asset == nil {
		c.Error = fmt.Sprintf("latest release %s of %s has no manifest.json asset", release.TagName, repo)
		return c
	}

	data, err := e.gh.DownloadAsset(asset.DownloadURL)
	if err != nil {
		c.Error = fmt.Sprintf("failed to download release manifest: %v", err)
		return c
	}
	var latest models.PluginManifest
	if err := json.Unmarshal(data, &latest); err != nil {
		c.Error = fmt.Sprintf("release manifest of %s is not valid JSON: %v", repo, err)
		return c
	}

	c.LatestVersion = latest.Version
	switch CompareVersions(manifest.Version, latest.Version) {
	case -1:
		c.Status = models.StatusUpdateAvailable
		c.NeedsUpdate = true
	case 0:
		c.Status = models.StatusUpToDate
	case 1:
		c.Status = models.StatusLocalNewer
	}

	if e.appVersion != "" && latest.MinAppVersion != "" {
		compatible := IsCompatible(latest.MinAppVersion, e.appVersion)
		c.Compatible = &compatible
	}
	return c
}
