package installer

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/kvasir-dev/plugvault/internal/config"
	"github.com/kvasir-dev/plugvault/internal/models"
	"github.com/kvasir-dev/plugvault/internal/vault"
)

// fakeReleases serves a single release per repo with in-memory assets.
type fakeReleases struct {
	releases map[string]*models.Release
	assets   map[string][]byte
}

func (f *fakeReleases) LatestRelease(fullName string) (*models.Release, error) {
	r, ok := f.releases[fullName]
	if !ok {
		return nil, fmt.Errorf("no releases for %s", fullName)
	}
	return r, nil
}

func (f *fakeReleases) DownloadAsset(assetURL string) ([]byte, error) {
	data, ok := f.assets[assetURL]
	if !ok {
		return nil, fmt.Errorf("unknown asset %s", assetURL)
	}
	return data, nil
}

func releaseWith(repo string, f *fakeReleases, names ...string) {
	release := &models.Release{TagName: "1.0.0"}
	for _, name := range names {
		url := "asset://" + repo + "/" + name
		release.Assets = append(release.Assets, models.ReleaseAsset{Name: name, DownloadURL: url})
	}
	f.releases[repo] = release
}

func newFakeReleases() *fakeReleases {
	return &fakeReleases{
		releases: make(map[string]*models.Release),
		assets:   make(map[string][]byte),
	}
}

func newInstaller(gh *fakeReleases, activePath string, extra ...string) *Installer {
	cfg := &config.Config{}
	cfg.Vault.Path = activePath
	cfg.Vault.InstallToActive = true
	cfg.Vault.ExtraPaths = extra
	return New(gh, cfg, vault.New(activePath))
}

func TestInstallWritesExactAssets(t *testing.T) {
	gh := newFakeReleases()
	releaseWith("acme/obsidian-calendar", gh, "main.js", "manifest.json")
	gh.assets["asset://acme/obsidian-calendar/main.js"] = []byte("bundle")
	gh.assets["asset://acme/obsidian-calendar/manifest.json"] = []byte(`{"id": "calendar", "version": "1.0.0"}`)

	active := t.TempDir()
	ins := newInstaller(gh, active)

	installed, err := ins.Install("acme/obsidian-calendar")
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if installed != 1 {
		t.Errorf("installed = %d, want 1", installed)
	}

	dir := filepath.Join(active, vault.MarkerDir, "plugins", "calendar")
	for _, name := range []string{"main.js", "manifest.json"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("expected %s to be written: %v", name, err)
		}
	}
	// No styles.css in the release, none on disk.
	if _, err := os.Stat(filepath.Join(dir, "styles.css")); err == nil {
		t.Error("styles.css should not exist")
	}
}

func TestInstallRejectsReleaseWithoutPluginFiles(t *testing.T) {
	gh := newFakeReleases()
	releaseWith("acme/empty", gh, "README.md")
	gh.assets["asset://acme/empty/README.md"] = []byte("nope")

	ins := newInstaller(gh, t.TempDir())
	if _, err := ins.Install("acme/empty"); err == nil {
		t.Fatal("a release with neither main.js nor manifest.json must fail")
	}
}

func TestInstallFansOutToAllTargets(t *testing.T) {
	gh := newFakeReleases()
	releaseWith("acme/obsidian-calendar", gh, "main.js", "manifest.json", "styles.css")
	gh.assets["asset://acme/obsidian-calendar/main.js"] = []byte("bundle")
	gh.assets["asset://acme/obsidian-calendar/manifest.json"] = []byte(`{"id": "calendar"}`)
	gh.assets["asset://acme/obsidian-calendar/styles.css"] = []byte("css")

	active := t.TempDir()
	extra := t.TempDir()
	ins := newInstaller(gh, active, extra)

	installed, err := ins.Install("acme/obsidian-calendar")
	if err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if installed != 2 {
		t.Errorf("installed = %d, want both targets", installed)
	}
	for _, target := range []string{active, extra} {
		path := filepath.Join(target, vault.MarkerDir, "plugins", "calendar", "styles.css")
		if _, err := os.Stat(path); err != nil {
			t.Errorf("expected styles.css in %s: %v", target, err)
		}
	}
}

func TestInstallZipFallback(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"calendar/main.js":       "zipped bundle",
		"calendar/manifest.json": `{"id": "calendar"}`,
		"calendar/README.md":     "ignored",
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(content))
	}
	zw.Close()

	gh := newFakeReleases()
	releaseWith("acme/obsidian-calendar", gh, "obsidian-calendar-1.0.0.zip")
	gh.assets["asset://acme/obsidian-calendar/obsidian-calendar-1.0.0.zip"] = buf.Bytes()

	active := t.TempDir()
	ins := newInstaller(gh, active)

	if _, err := ins.Install("acme/obsidian-calendar"); err != nil {
		t.Fatalf("Install from zip failed: %v", err)
	}

	bundle, err := os.ReadFile(filepath.Join(active, vault.MarkerDir, "plugins", "calendar", "main.js"))
	if err != nil {
		t.Fatalf("expected the zipped main.js on disk: %v", err)
	}
	if string(bundle) != "zipped bundle" {
		t.Errorf("main.js = %q", bundle)
	}
	if _, err := os.Stat(filepath.Join(active, vault.MarkerDir, "plugins", "calendar", "README.md")); err == nil {
		t.Error("non-plugin files in the zip must not be extracted")
	}
}

func TestInstallFallsBackToRepoNameForID(t *testing.T) {
	gh := newFakeReleases()
	releaseWith("acme/obsidian-calendar", gh, "main.js")
	gh.assets["asset://acme/obsidian-calendar/main.js"] = []byte("bundle")

	active := t.TempDir()
	ins := newInstaller(gh, active)

	if _, err := ins.Install("acme/obsidian-calendar"); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	dir := filepath.Join(active, vault.MarkerDir, "plugins", "obsidian-calendar")
	if _, err := os.Stat(filepath.Join(dir, "main.js")); err != nil {
		t.Errorf("expected the plugin dir named after the repo: %v", err)
	}
}

func TestTargetsDeduplicates(t *testing.T) {
	active := t.TempDir()
	parent := t.TempDir()
	if err := os.MkdirAll(filepath.Join(parent, "work", vault.MarkerDir), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &config.Config{}
	cfg.Vault.Path = active
	cfg.Vault.InstallToActive = true
	cfg.Vault.ExtraPaths = []string{active, filepath.Join(parent, "work")}
	cfg.Vault.ParentPaths = []string{parent}

	ins := New(newFakeReleases(), cfg, vault.New(active))
	targets := ins.Targets()
	if len(targets) != 2 {
		t.Errorf("targets = %v, want the active vault and the discovered one, once each", targets)
	}
}

func TestInstallNoTargets(t *testing.T) {
	gh := newFakeReleases()
	releaseWith("acme/x", gh, "main.js")
	gh.assets["asset://acme/x/main.js"] = []byte("bundle")

	cfg := &config.Config{}
	ins := New(gh, cfg, vault.New(""))
	if _, err := ins.Install("acme/x"); err == nil {
		t.Fatal("expected an error with no targets configured")
	}
}
