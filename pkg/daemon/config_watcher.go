package daemon

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/nowplaybot/nowplay/logging"
	"github.com/nowplaybot/nowplay/pkg/paths"
	"github.com/sirupsen/logrus"
)

// ConfigWatcher watches the config file's directory (and the XDG config
// directory) for changes and triggers a reload callback.
type ConfigWatcher struct {
	watcher      *fsnotify.Watcher
	debounceMs   int
	lastChange   time.Time
	mu           sync.Mutex
	logger       *logrus.Entry
	onReload     func(file string) // Callback invoked after the debounce window
	targetToLink map[string]string // Maps symlink target paths back to their names in the config dir
	configDir    string
}

// NewConfigWatcher creates a ConfigWatcher covering the XDG config directory
// and, when configFile lives elsewhere, that file's directory too. The
// debounceMs parameter controls how long to wait before processing rapid
// changes. It also watches symlink target directories so changes to linked
// files are detected.
func NewConfigWatcher(configFile string, debounceMs int, onReload func(string)) (*ConfigWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := logging.NewLogger("config-watcher")
	configDir := paths.ConfigDir()

	watchedDirs := make(map[string]bool)
	addDir := func(dir string) {
		if dir == "" || watchedDirs[dir] {
			return
		}
		if err := watcher.Add(dir); err != nil {
			logger.WithError(err).Warnf("Failed to watch %s", dir)
			return
		}
		watchedDirs[dir] = true
	}

	addDir(configDir)
	if configFile != "" {
		addDir(filepath.Dir(configFile))
	}
	if len(watchedDirs) == 0 {
		watcher.Close()
		return nil, os.ErrNotExist
	}

	// fsnotify doesn't follow symlinks, so find symlinked config files and
	// watch their target directories explicitly.
	targetToLink := make(map[string]string)
	entries, err := os.ReadDir(configDir)
	if err == nil {
		for _, entry := range entries {
			if !isConfigFile(entry.Name()) {
				continue
			}

			fullPath := filepath.Join(configDir, entry.Name())
			info, err := os.Lstat(fullPath)
			if err != nil || info.Mode()&os.ModeSymlink == 0 {
				continue
			}

			target, err := filepath.EvalSymlinks(fullPath)
			if err != nil {
				logger.WithError(err).Warnf("Failed to resolve symlink %s", entry.Name())
				continue
			}

			targetToLink[target] = entry.Name()
			addDir(filepath.Dir(target))
		}
	}

	if debounceMs <= 0 {
		debounceMs = 100
	}

	return &ConfigWatcher{
		watcher:      watcher,
		debounceMs:   debounceMs,
		logger:       logger,
		onReload:     onReload,
		targetToLink: targetToLink,
		configDir:    configDir,
	}, nil
}

// Start begins watching for config changes. It blocks until the context is
// cancelled.
func (w *ConfigWatcher) Start(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.logger.Debugf("fsnotify event: %s op=%v", event.Name, event.Op)

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				if isConfigFile(event.Name) {
					// Map target file changes back to symlink names
					displayName := event.Name
					if linkName, ok := w.targetToLink[event.Name]; ok {
						displayName = filepath.Join(w.configDir, linkName)
					}
					w.handleChange(displayName)
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("Watcher error: %v", err)
		case <-ctx.Done():
			w.watcher.Close()
			return
		}
	}
}

// handleChange processes a config file change with debouncing.
func (w *ConfigWatcher) handleChange(file string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	// Debounce rapid writes
	elapsed := time.Since(w.lastChange)
	if elapsed < time.Duration(w.debounceMs)*time.Millisecond {
		w.logger.Debugf("Debounced: %s (only %v since last change)", filepath.Base(file), elapsed)
		return
	}
	w.lastChange = time.Now()

	w.logger.Infof("Config changed: %s", filepath.Base(file))

	if w.onReload != nil {
		w.onReload(file)
	}
}

// Close stops the watcher and releases resources.
func (w *ConfigWatcher) Close() error {
	return w.watcher.Close()
}

func isConfigFile(name string) bool {
	switch filepath.Ext(name) {
	case ".toml", ".yml", ".yaml":
		return true
	}
	return false
}
