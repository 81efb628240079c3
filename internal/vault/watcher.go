// This file implements a file system watcher for the active vault's plugin
// directory. OS-level events invalidate the cached plugin listing so the
// next enumeration reflects plugins installed or removed outside this
// process.

package vault

import (
	"log"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches a vault's plugins directory and invalidates the vault's
// installed-plugin cache when anything changes.
type Watcher struct {
	vault         *Vault
	watcher       *fsnotify.Watcher
	mu            sync.Mutex
	debounceTimer *time.Timer
	debounceDelay time.Duration
	stopChan      chan struct{}
}

// NewWatcher creates a watcher for the given vault.
func NewWatcher(v *Vault) *Watcher {
	return &Watcher{
		vault:         v,
		debounceDelay: 2 * time.Second, // settle before invalidating
		stopChan:      make(chan struct{}),
	}
}

// Start begins watching the plugins directory. It is not an error for the
// directory to be missing yet; the watcher simply stays idle until a
// restart after the first install.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	dir := w.vault.PluginsDir()
	if err := watcher.Add(dir); err != nil {
		log.Printf("Vault watcher: not watching %s: %v", dir, err)
		watcher.Close()
		w.watcher = nil
		return nil
	}

	log.Printf("Vault watcher started for: %s", dir)
	go w.processEvents()
	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	close(w.stopChan)
	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}

func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				w.scheduleInvalidate()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Vault watcher error: %v", err)
		case <-w.stopChan:
			return
		}
	}
}

// scheduleInvalidate debounces bursts of events (a plugin install writes
// several files) into a single cache invalidation.
func (w *Watcher) scheduleInvalidate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		log.Printf("Vault watcher: plugin directory changed, refreshing listing")
		w.vault.Invalidate()
	})
}
