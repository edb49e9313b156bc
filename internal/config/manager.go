package config

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ReloadHandler receives the freshly loaded config after a file change.
type ReloadHandler func(cfg *Config)

// Manager watches the config file and re-applies it on change. Handlers run
// sequentially on the watcher goroutine.
type Manager struct {
	path     string
	logger   *zap.Logger
	watcher  *fsnotify.Watcher
	handlers []ReloadHandler

	mu      sync.RWMutex
	current *Config

	// Editors often write via rename; debounce coalesces the event bursts.
	debounce time.Duration
}

// NewManager loads the file once and prepares the watcher.
func NewManager(path string, logger *zap.Logger) (*Manager, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Manager{
		path:     path,
		logger:   logger,
		watcher:  watcher,
		current:  cfg,
		debounce: 200 * time.Millisecond,
	}, nil
}

// Current returns the last successfully loaded config.
func (m *Manager) Current() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// OnReload registers a handler invoked after every successful reload. It is
// also invoked once immediately with the current config.
func (m *Manager) OnReload(h ReloadHandler) {
	m.handlers = append(m.handlers, h)
	h(m.Current())
}

// Start watches the config file's directory until ctx ends. Watching the
// directory rather than the file survives rename-based saves.
func (m *Manager) Start(ctx context.Context) error {
	dir := filepath.Dir(m.path)
	if err := m.watcher.Add(dir); err != nil {
		return err
	}

	go func() {
		defer m.watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-m.watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(m.path) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(m.debounce, m.reload)
			case err, ok := <-m.watcher.Errors:
				if !ok {
					return
				}
				m.logger.Warn("Config watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (m *Manager) reload() {
	cfg, err := Load(m.path)
	if err != nil {
		// Keep serving the previous config; a half-written file is expected
		// during editor saves.
		m.logger.Warn("Config reload failed, keeping previous config",
			zap.String("path", m.path),
			zap.Error(err),
		)
		return
	}

	m.mu.Lock()
	m.current = cfg
	m.mu.Unlock()

	m.logger.Info("Config reloaded", zap.String("path", m.path))
	for _, h := range m.handlers {
		h(cfg)
	}
}
