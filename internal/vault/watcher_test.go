package vault

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/kvasir-dev/plugvault/internal/models"
)

func TestWatcherInvalidatesOnChange(t *testing.T) {
	path := t.TempDir()
	writePlugin(t, path, "one", models.PluginManifest{ID: "one", Version: "1.0.0"})

	v := New(path)
	if installed, _ := v.ListInstalled(); len(installed) != 1 {
		t.Fatalf("got %d plugins, want 1", len(installed))
	}

	w := NewWatcher(v)
	w.debounceDelay = 20 * time.Millisecond
	if err := w.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer w.Stop()

	writePlugin(t, path, "two", models.PluginManifest{ID: "two", Version: "1.0.0"})

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if installed, _ := v.ListInstalled(); len(installed) == 2 {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("cache was never invalidated after a filesystem change")
}

func TestWatcherToleratesMissingDir(t *testing.T) {
	v := New(filepath.Join(t.TempDir(), "not-yet-created"))
	w := NewWatcher(v)
	if err := w.Start(); err != nil {
		t.Fatalf("a missing plugins directory must not be an error: %v", err)
	}
	w.Stop()
}

