// Package installer fetches release assets for a repository and writes them
// into one or more vaults.
package installer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	"github.com/kvasir-dev/plugvault/internal/config"
	"github.com/kvasir-dev/plugvault/internal/models"
	"github.com/kvasir-dev/plugvault/internal/vault"
)

// ReleaseClient is the slice of the code-hosting client the installer uses.
type ReleaseClient interface {
	LatestRelease(fullName string) (*models.Release, error)
	DownloadAsset(assetURL string) ([]byte, error)
}

// The three optional release assets a plugin ships, matched by exact name.
const (
	assetBundle     = "main.js"
	assetManifest   = "manifest.json"
	assetStylesheet = "styles.css"
)

// Installer deploys plugin release assets across installation targets: the
// active vault (mode-dependent), explicitly configured extra vaults, and
// vaults auto-discovered under configured parent directories.
type Installer struct {
	gh     ReleaseClient
	cfg    *config.Config
	active *vault.Vault
}

// New creates an Installer.
func New(gh ReleaseClient, cfg *config.Config, active *vault.Vault) *Installer {
	return &Installer{gh: gh, cfg: cfg, active: active}
}

// Install fetches the latest release of fullName and writes its plugin
// files into every configured target. It returns the number of targets
// written. Per-target failures are collected and logged, not raised; the
// whole operation fails only when the release is unusable or no target
// succeeded at all.
func (ins *Installer) Install(fullName string) (int, error) {
	files, pluginID, err := ins.fetchReleaseFiles(fullName)
	if err != nil {
		return 0, err
	}

	targets := ins.Targets()
	if len(targets) == 0 {
		return 0, fmt.Errorf("no installation targets configured")
	}

	installed := 0
	var failures []string
	for _, target := range targets {
		if err := writePluginFiles(target, pluginID, files); err != nil {
			log.Printf("Install %s: target %s failed: %v", fullName, target, err)
			failures = append(failures, fmt.Sprintf("%s: %v", target, err))
			continue
		}
		installed++
		if target == ins.active.Path() {
			ins.active.Invalidate()
		}
	}

	if installed == 0 {
		return 0, fmt.Errorf("install of %s failed on every target: %s", fullName, strings.Join(failures, "; "))
	}
	return installed, nil
}

// Targets returns the deduplicated list of installation target directories.
func (ins *Installer) Targets() []string {
	var targets []string
	if ins.cfg.Vault.InstallToActive && ins.active.Path() != "" {
		targets = append(targets, ins.active.Path())
	}
	targets = append(targets, ins.cfg.Vault.ExtraPaths...)
	targets = append(targets, vault.Discover(ins.cfg.Vault.ParentPaths)...)

	seen := make(map[string]bool)
	deduped := targets[:0]
	for _, t := range targets {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		deduped = append(deduped, t)
	}
	return deduped
}

// fetchReleaseFiles downloads the plugin files of the latest release and
// determines the plugin id from the release manifest. A release lacking
// both the bundle and the manifest is unusable.
func (ins *Installer) fetchReleaseFiles(fullName string) (map[string][]byte, string, error) {
	release, err := ins.gh.LatestRelease(fullName)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch latest release of %s: %w", fullName, err)
	}

	files := make(map[string][]byte)
	for _, name := range []string{assetBundle, assetManifest, assetStylesheet} {
		asset := release.Asset(name)
		if asset == nil {
			continue
		}
		data, err := ins.gh.DownloadAsset(asset.DownloadURL)
		if err != nil {
			return nil, "", fmt.Errorf("failed to download %s of %s: %w", name, fullName, err)
		}
		files[name] = data
	}

	// Some plugins ship a single zip asset instead of loose files.
	if files[assetBundle] == nil {
		if err := ins.extractZipAsset(release, files); err != nil {
			log.Printf("Install %s: zip asset extraction failed: %v", fullName, err)
		}
	}

	if files[assetBundle] == nil && files[assetManifest] == nil {
		return nil, "", fmt.Errorf("latest release %s of %s has neither a %s nor a %s asset",
			release.TagName, fullName, assetBundle, assetManifest)
	}

	pluginID := pluginIDFrom(files[assetManifest], fullName)
	return files, pluginID, nil
}

// extractZipAsset pulls the plugin files out of the release's first zip
// asset, when one exists. Files already downloaded loose take precedence.
func (ins *Installer) extractZipAsset(release *models.Release, files map[string][]byte) error {
	var zipAsset *models.ReleaseAsset
	for i := range release.Assets {
		if strings.HasSuffix(release.Assets[i].Name, ".zip") {
			zipAsset = &release.Assets[i]
			break
		}
	}
	if zipAsset == nil {
		return nil
	}

	data, err := ins.gh.DownloadAsset(zipAsset.DownloadURL)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", zipAsset.Name, err)
	}

	zip := archives.Zip{}
	return zip.Extract(context.Background(), bytes.NewReader(data), func(ctx context.Context, f archives.FileInfo) error {
		name := filepath.Base(f.NameInArchive)
		if name != assetBundle && name != assetManifest && name != assetStylesheet {
			return nil
		}
		if files[name] != nil {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return err
		}
		defer rc.Close()
		content, err := io.ReadAll(rc)
		if err != nil {
			return err
		}
		files[name] = content
		return nil
	})
}

// pluginIDFrom parses the plugin id out of the manifest, falling back to
// the repository name when the release carried no manifest.
func pluginIDFrom(manifestData []byte, fullName string) string {
	if manifestData != nil {
		var manifest models.PluginManifest
		if err := json.Unmarshal(manifestData, &manifest); err == nil && manifest.ID != "" {
			return manifest.ID
		}
	}
	name := fullName
	if i := strings.LastIndexByte(fullName, '/'); i >= 0 {
		name = fullName[i+1:]
	}
	return name
}

// writePluginFiles writes the downloaded files into a target vault.
// Directory creation is idempotent and existing files are overwritten.
func writePluginFiles(target, pluginID string, files map[string][]byte) error {
	dir := filepath.Join(target, vault.MarkerDir, "plugins", pluginID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create plugin directory: %w", err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}
	return nil
}
