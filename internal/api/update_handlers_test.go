package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/kvasir-dev/plugvault/internal/config"
	"github.com/kvasir-dev/plugvault/internal/models"
	"github.com/kvasir-dev/plugvault/internal/testutil"
	"github.com/kvasir-dev/plugvault/internal/vault"
)

// releaseUpstream fakes the directory and the release endpoints for one
// plugin: calendar at version 2.0.0.
func releaseUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/community-plugins.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "calendar", "name": "Calendar", "author": "Liam", "description": "Calendar view", "repo": "liamcain/obsidian-calendar-plugin"}]`))
	})
	mux.HandleFunc("/repos/liamcain/obsidian-calendar-plugin/releases/latest", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tag_name": "2.0.0", "assets": [
			{"name": "manifest.json", "browser_download_url": "` + server.URL + `/dl/manifest.json"},
			{"name": "main.js", "browser_download_url": "` + server.URL + `/dl/main.js"}
		]}`))
	})
	mux.HandleFunc("/dl/manifest.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id": "calendar", "version": "2.0.0", "minAppVersion": "1.0.0"}`))
	})
	mux.HandleFunc("/dl/main.js", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("console.log('v2')"))
	})
	return server
}

func installPlugin(t *testing.T, vaultPath, id, version string) {
	t.Helper()
	dir := filepath.Join(vaultPath, vault.MarkerDir, "plugins", id)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	manifest := `{"id": "` + id + `", "version": "` + version + `"}`
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(manifest), 0644); err != nil {
		t.Fatal(err)
	}
}

func updateConfig(t *testing.T, upstream string) *config.Config {
	t.Helper()
	cfg := &config.Config{AppVersion: "1.5.0"}
	cfg.Vault.Path = t.TempDir()
	cfg.Vault.InstallToActive = true
	cfg.GitHub.APIURL = upstream
	cfg.GitHub.RawURL = upstream
	cfg.Archive.URL = upstream + "/community-plugins.json"
	cfg.Archive.RefreshInterval = 60
	cfg.Forum.URL = upstream
	return cfg
}

func TestUpdateHandlers(t *testing.T) {
	upstream := releaseUpstream(t)
	cfg := updateConfig(t, upstream.URL)
	installPlugin(t, cfg.Vault.Path, "calendar", "1.0.0")

	server, _ := testutil.SetupTestServerWithConfig(t, cfg)
	router := server.Router()
	cookie := testutil.GetAuthCookie(t, server, "update_user", "password", "user")

	do := func(method, path, body string) *httptest.ResponseRecorder {
		t.Helper()
		var req *http.Request
		if body != "" {
			req, _ = http.NewRequest(method, path, bytes.NewBufferString(body))
			req.Header.Set("Content-Type", "application/json")
		} else {
			req, _ = http.NewRequest(method, path, nil)
		}
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		return rr
	}

	t.Run("Check Updates", func(t *testing.T) {
		rr := do("POST", "/api/updates/check", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
		}
		var candidates []models.UpdateCandidate
		if err := json.Unmarshal(rr.Body.Bytes(), &candidates); err != nil {
			t.Fatalf("Could not unmarshal response: %v", err)
		}
		if len(candidates) != 1 {
			t.Fatalf("candidates = %+v", candidates)
		}
		c := candidates[0]
		if c.PluginID != "calendar" || !c.NeedsUpdate || c.LatestVersion != "2.0.0" {
			t.Errorf("candidate = %+v", c)
		}
		if c.Source != models.SourceOfficial {
			t.Errorf("source = %q, want the official directory", c.Source)
		}
	})

	t.Run("Install", func(t *testing.T) {
		rr := do("POST", "/api/install", `{"repo": "liamcain/obsidian-calendar-plugin"}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
		}
		bundle, err := os.ReadFile(filepath.Join(cfg.Vault.Path, vault.MarkerDir, "plugins", "calendar", "main.js"))
		if err != nil {
			t.Fatalf("expected the bundle on disk: %v", err)
		}
		if string(bundle) != "console.log('v2')" {
			t.Errorf("bundle = %q", bundle)
		}
	})

	t.Run("Install Requires Repo", func(t *testing.T) {
		rr := do("POST", "/api/install", `{}`)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("got %d, want 400", rr.Code)
		}
	})

	t.Run("Bulk Update Collects Failures", func(t *testing.T) {
		rr := do("POST", "/api/update", `{"repos": ["liamcain/obsidian-calendar-plugin", "acme/no-such-repo"]}`)
		if rr.Code != http.StatusOK {
			t.Fatalf("got %d: %s", rr.Code, rr.Body.String())
		}
		var report models.UpdateReport
		if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
			t.Fatalf("Could not unmarshal report: %v", err)
		}
		if len(report.Updated) != 1 || report.Updated[0] != "liamcain/obsidian-calendar-plugin" {
			t.Errorf("updated = %v", report.Updated)
		}
		if _, ok := report.Failed["acme/no-such-repo"]; !ok {
			t.Errorf("failed = %v, want the missing repo reported", report.Failed)
		}
	})

	t.Run("List Vaults", func(t *testing.T) {
		rr := do("GET", "/api/vaults", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("got %d", rr.Code)
		}
		var resp map[string][]string
		json.Unmarshal(rr.Body.Bytes(), &resp)
		if len(resp["targets"]) != 1 || resp["targets"][0] != cfg.Vault.Path {
			t.Errorf("targets = %v", resp["targets"])
		}
	})

	t.Run("Check Updates After Install", func(t *testing.T) {
		rr := do("POST", "/api/updates/check", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("got %d", rr.Code)
		}
		var candidates []models.UpdateCandidate
		json.Unmarshal(rr.Body.Bytes(), &candidates)
		if len(candidates) != 1 || candidates[0].NeedsUpdate {
			t.Errorf("candidates = %+v, want up to date after install", candidates)
		}
	})
}
