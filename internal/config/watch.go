package config

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
)

// Watcher monitors the config file and applies logging-level changes at
// runtime. Only the logging section is hot-reloaded; everything else
// requires a restart.
type Watcher struct {
	configPath string
	logger     *logrus.Logger
	watcher    *fsnotify.Watcher
	done       chan struct{}
}

// NewWatcher creates a watcher for the given config file. The returned
// watcher is not started; call Start.
func NewWatcher(configPath string, logger *logrus.Logger) *Watcher {
	return &Watcher{
		configPath: configPath,
		logger:     logger,
		done:       make(chan struct{}),
	}
}

// Start begins monitoring the config file for changes.
func (w *Watcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	w.watcher = watcher

	// Watch the directory rather than the file itself: editors replace the
	// file on save, which drops a file-level watch.
	if err := watcher.Add(filepath.Dir(w.configPath)); err != nil {
		watcher.Close()
		return err
	}

	go w.watchLoop()

	w.logger.WithField("config_path", w.configPath).Info("Config watcher started")
	return nil
}

// Stop terminates the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	if w.watcher != nil {
		w.watcher.Close()
	}
}

// watchLoop selects on watcher channels and dispatches reloads.
func (w *Watcher) watchLoop() {
	// Debounce rapid write events from editors saving in multiple steps.
	var reloadTimer *time.Timer

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.configPath) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			reloadTimer = time.AfterFunc(500*time.Millisecond, w.reload)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("Config watcher error")

		case <-w.done:
			return
		}
	}
}

// reload re-parses the config file and applies the logging level.
func (w *Watcher) reload() {
	cfg, err := LoadConfig(w.configPath)
	if err != nil {
		w.logger.WithError(err).Warn("Ignoring config change: file failed to parse")
		return
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		w.logger.WithError(err).Warn("Ignoring config change: invalid log level")
		return
	}

	if w.logger.GetLevel() != level {
		w.logger.SetLevel(level)
		w.logger.WithField("level", level.String()).Info("Log level updated from config file")
	}
}
