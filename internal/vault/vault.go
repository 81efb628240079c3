// Package vault adapts a local vault directory: enumerating installed
// plugins, reading their manifests, and discovering sibling vaults under
// configured parent directories.
package vault

import (
	"encoding/json"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/kvasir-dev/plugvault/internal/models"
)

// MarkerDir is the subdirectory whose presence makes a directory a vault.
const MarkerDir = ".obsidian"

// Vault is one local installation target. The installed-plugin listing is
// cached until Invalidate is called (the watcher does that on filesystem
// changes).
type Vault struct {
	path string

	mu     sync.Mutex
	cached map[string]*models.PluginManifest
}

// New creates a Vault rooted at path. The directory is not required to
// exist yet; installation creates it.
func New(path string) *Vault {
	return &Vault{path: path}
}

// Path returns the vault's root directory.
func (v *Vault) Path() string { return v.path }

// PluginsDir returns the directory installed plugins live in.
func (v *Vault) PluginsDir() string {
	return filepath.Join(v.path, MarkerDir, "plugins")
}

// ListInstalled returns the manifest of every installed plugin, keyed by
// plugin id. The result is cached; call Invalidate to force a rescan.
func (v *Vault) ListInstalled() (map[string]*models.PluginManifest, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cached != nil {
		return v.cached, nil
	}

	installed := make(map[string]*models.PluginManifest)
	entries, err := os.ReadDir(v.PluginsDir())
	if err != nil {
		if os.IsNotExist(err) {
			// No plugins directory yet means no plugins, not a failure.
			v.cached = installed
			return installed, nil
		}
		return nil, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		manifestPath := filepath.Join(v.PluginsDir(), entry.Name(), "manifest.json")
		data, err := os.ReadFile(manifestPath)
		if err != nil {
			continue
		}
		var manifest models.PluginManifest
		if err := json.Unmarshal(data, &manifest); err != nil {
			log.Printf("Vault: skipping %s: invalid manifest.json: %v", entry.Name(), err)
			continue
		}
		if manifest.ID == "" {
			continue
		}
		installed[manifest.ID] = &manifest
	}

	v.cached = installed
	return installed, nil
}

// ReadManifest returns the locally recorded manifest for a plugin id, or
// fs.ErrNotExist when the plugin is absent.
func (v *Vault) ReadManifest(pluginID string) (*models.PluginManifest, error) {
	installed, err := v.ListInstalled()
	if err != nil {
		return nil, err
	}
	manifest, ok := installed[pluginID]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return manifest, nil
}

// Invalidate drops the cached plugin listing so the next ListInstalled
// rescans the directory.
func (v *Vault) Invalidate() {
	v.mu.Lock()
	v.cached = nil
	v.mu.Unlock()
}

// Discover returns the child directories of the given parents that contain
// a vault marker. Unreadable parents are skipped; discovery is best-effort.
func Discover(parents []string) []string {
	var vaults []string
	for _, parent := range parents {
		entries, err := os.ReadDir(parent)
		if err != nil {
			log.Printf("Vault discovery: cannot read %s: %v", parent, err)
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			child := filepath.Join(parent, entry.Name())
			if info, err := os.Stat(filepath.Join(child, MarkerDir)); err == nil && info.IsDir() {
				vaults = append(vaults, child)
			}
		}
	}
	return vaults
}
