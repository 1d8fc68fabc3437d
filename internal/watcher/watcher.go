// Package watcher reloads the configuration file when it changes on disk.
package watcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vignesh-gep/OpenAi-Curl-Generator/internal/config"
	log "github.com/vignesh-gep/OpenAi-Curl-Generator/internal/logging"
)

const configReloadDebounce = 150 * time.Millisecond

// Watcher watches the directory holding the config file, so editors that
// replace the file by rename are still seen.
type Watcher struct {
	configPath     string
	reloadCallback func(*config.Config)
	watcher        *fsnotify.Watcher

	configReloadMu    sync.Mutex
	configReloadTimer *time.Timer

	hashMu         sync.Mutex
	lastConfigHash string
}

// NewWatcher creates a watcher for configPath. reloadCallback receives every
// successfully parsed new configuration.
func NewWatcher(configPath string, reloadCallback func(*config.Config)) (*Watcher, error) {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}
	fw, errNewWatcher := fsnotify.NewWatcher()
	if errNewWatcher != nil {
		return nil, errNewWatcher
	}
	w := &Watcher{
		configPath:     abs,
		reloadCallback: reloadCallback,
		watcher:        fw,
	}
	if data, err := os.ReadFile(abs); err == nil {
		w.lastConfigHash = hashOf(data)
	}
	return w, nil
}

// Start begins watching. Events are processed until ctx is done or Stop is
// called.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.configPath)
	if err := w.watcher.Add(dir); err != nil {
		log.Errorf("failed to watch config directory %s: %v", dir, err)
		return err
	}
	if _, err := os.Stat(w.configPath); err != nil {
		log.Infof("config file %s not found, running with defaults (use --init to create)", w.configPath)
	} else {
		log.Debugf("watching config file: %s", w.configPath)
	}
	go w.processEvents(ctx)
	return nil
}

// Stop stops the file watcher.
func (w *Watcher) Stop() error {
	w.stopConfigReloadTimer()
	return w.watcher.Close()
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case errWatch, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Errorf("file watcher error: %v", errWatch)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	configOps := fsnotify.Write | fsnotify.Create | fsnotify.Rename
	if filepath.Clean(event.Name) != w.configPath || event.Op&configOps == 0 {
		return
	}
	log.Debugf("config file event: %s %s", event.Op.String(), event.Name)
	w.scheduleConfigReload()
}

func (w *Watcher) scheduleConfigReload() {
	w.configReloadMu.Lock()
	defer w.configReloadMu.Unlock()
	if w.configReloadTimer != nil {
		w.configReloadTimer.Stop()
	}
	w.configReloadTimer = time.AfterFunc(configReloadDebounce, func() {
		w.configReloadMu.Lock()
		w.configReloadTimer = nil
		w.configReloadMu.Unlock()
		w.reloadIfChanged()
	})
}

func (w *Watcher) stopConfigReloadTimer() {
	w.configReloadMu.Lock()
	if w.configReloadTimer != nil {
		w.configReloadTimer.Stop()
		w.configReloadTimer = nil
	}
	w.configReloadMu.Unlock()
}

// reloadIfChanged parses the file and hands it to the callback unless its
// content hash matches the last loaded version.
func (w *Watcher) reloadIfChanged() {
	w.hashMu.Lock()
	defer w.hashMu.Unlock()

	data, err := os.ReadFile(w.configPath)
	if err != nil {
		log.Errorf("failed to read config file for hash check: %v", err)
		return
	}
	if len(data) == 0 {
		log.Debugf("ignoring empty config file write event")
		return
	}
	newHash := hashOf(data)
	if w.lastConfigHash == newHash {
		log.Debugf("config file content unchanged (hash match), skipping reload")
		return
	}

	cfg, err := config.ParseConfig(data)
	if err != nil {
		log.Errorf("failed to reload config: %v", err)
		return
	}
	cfg.ApplyEnv(config.EnvLookup)
	w.lastConfigHash = newHash
	log.Infof("config file changed, reloaded: %s", w.configPath)
	if w.reloadCallback != nil {
		w.reloadCallback(cfg)
	}
}

func hashOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
