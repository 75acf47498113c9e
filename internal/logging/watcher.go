package logging

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"demokit/internal/config"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// LevelWatcher watches a config file and applies logging.level changes to a Logger.
// Changes are skipped while the Logger is pinned.
// It watches the parent directory so editors that replace the file are still seen.
type LevelWatcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	logger      *Logger
	path        string
	pending     bool
	lastEvent   time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	reloads     int
}

// NewLevelWatcher creates a watcher for the config file at path.
func NewLevelWatcher(path string, logger *Logger) (*LevelWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return &LevelWatcher{
		watcher:     watcher,
		logger:      logger,
		path:        abs,
		debounceDur: 200 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start begins watching. It is non-blocking; events are handled in a goroutine.
func (lw *LevelWatcher) Start(ctx context.Context) error {
	lw.mu.Lock()
	if lw.running {
		lw.mu.Unlock()
		return nil
	}
	lw.running = true
	lw.mu.Unlock()

	if err := lw.watcher.Add(filepath.Dir(lw.path)); err != nil {
		lw.mu.Lock()
		lw.running = false
		lw.mu.Unlock()
		return err
	}
	lw.logger.Get(CategoryConfig).Debug("watching config for level changes", zap.String("path", lw.path))

	go lw.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (lw *LevelWatcher) Stop() {
	lw.mu.Lock()
	if !lw.running {
		lw.mu.Unlock()
		_ = lw.watcher.Close()
		return
	}
	lw.running = false
	lw.mu.Unlock()

	close(lw.stopCh)
	<-lw.doneCh

	if err := lw.watcher.Close(); err != nil {
		lw.logger.Get(CategoryConfig).Warn("error closing config watcher", zap.Error(err))
	}
}

// Reloads returns how many times the level was re-applied from disk.
func (lw *LevelWatcher) Reloads() int {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.reloads
}

func (lw *LevelWatcher) run(ctx context.Context) {
	defer close(lw.doneCh)

	debounceTicker := time.NewTicker(50 * time.Millisecond)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-lw.stopCh:
			return

		case event, ok := <-lw.watcher.Events:
			if !ok {
				return
			}
			lw.handleEvent(event)

		case err, ok := <-lw.watcher.Errors:
			if !ok {
				return
			}
			lw.logger.Get(CategoryConfig).Warn("config watcher error", zap.Error(err))

		case <-debounceTicker.C:
			lw.processDebounced()
		}
	}
}

func (lw *LevelWatcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != lw.path {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	lw.mu.Lock()
	lw.pending = true
	lw.lastEvent = time.Now()
	lw.mu.Unlock()
}

func (lw *LevelWatcher) processDebounced() {
	lw.mu.Lock()
	if !lw.pending || time.Since(lw.lastEvent) < lw.debounceDur {
		lw.mu.Unlock()
		return
	}
	lw.pending = false
	lw.mu.Unlock()

	lw.reload()
}

func (lw *LevelWatcher) reload() {
	log := lw.logger.Get(CategoryConfig)

	cfg, err := config.Load(lw.path)
	if err != nil {
		log.Warn("ignoring unreadable config", zap.String("path", lw.path), zap.Error(err))
		return
	}
	if _, err := ParseLevel(cfg.Logging.Level); err != nil {
		log.Warn("ignoring invalid log level", zap.String("level", cfg.Logging.Level), zap.Error(err))
		return
	}
	if lw.logger.Pinned() {
		log.Debug("log level pinned by --verbose, ignoring config change",
			zap.String("level", cfg.Logging.Level),
			zap.Stringer("current", lw.logger.Level().Level()))
		return
	}
	if err := lw.logger.SetLevel(cfg.Logging.Level); err != nil {
		log.Warn("ignoring invalid log level", zap.String("level", cfg.Logging.Level), zap.Error(err))
		return
	}

	lw.mu.Lock()
	lw.reloads++
	lw.mu.Unlock()
	log.Info("log level reloaded", zap.String("level", cfg.Logging.Level))
}
