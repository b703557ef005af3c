package gen

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits for changes to settle.
const DefaultDebounce = 200 * time.Millisecond

// Watcher regenerates facades whenever a watched package or the config
// file changes.
type Watcher struct {
	gen        *Generator
	load       func() (*Config, error)
	configPath string

	debounce time.Duration
	logger   *zap.Logger
	onRun    func([]Result, error)

	fsw     *fsnotify.Watcher
	watched map[string]bool
	outputs map[string]bool
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the quiet period before a regeneration.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) { w.debounce = d }
}

// WithWatchLogger sets the watcher's logger.
func WithWatchLogger(l *zap.Logger) WatchOption {
	return func(w *Watcher) { w.logger = l }
}

// OnRun is called after every generation, including the initial one.
func OnRun(fn func([]Result, error)) WatchOption {
	return func(w *Watcher) { w.onRun = fn }
}

// NewWatcher creates a watcher. load is called for the initial run and
// again whenever configPath changes; configPath may be empty when the
// config does not come from a file.
func NewWatcher(g *Generator, configPath string, load func() (*Config, error), opts ...WatchOption) *Watcher {
	w := &Watcher{
		gen:        g,
		load:       load,
		configPath: configPath,
		debounce:   DefaultDebounce,
		logger:     zap.NewNop(),
		watched:    make(map[string]bool),
		outputs:    make(map[string]bool),
	}
	for _, opt := range opts {
		opt(w)
	}
	if configPath != "" {
		if abs, err := filepath.Abs(configPath); err == nil {
			w.configPath = abs
		}
	}
	return w
}

// Run generates once, then watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	cfg, err := w.load()
	if err != nil {
		return err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file system watcher: %w", err)
	}
	defer fsw.Close()
	w.fsw = fsw

	// We can only watch directories with fsnotify; events are filtered below.
	if w.configPath != "" {
		w.watchDir(filepath.Dir(w.configPath))
	}
	w.generate(ctx, cfg)

	timer := time.NewTimer(0)
	<-timer.C
	configChanged := false

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			switch {
			case w.configPath != "" && sameFile(event.Name, w.configPath):
				configChanged = true
			case w.relevant(event.Name):
			default:
				continue
			}
			w.logger.Debug("change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(w.debounce)

		case <-timer.C:
			if configChanged {
				configChanged = false
				next, err := w.load()
				if err != nil {
					w.logger.Error("failed to reload config, keeping previous", zap.Error(err))
				} else {
					cfg = next
					w.logger.Info("configuration reloaded", zap.String("file", w.configPath))
				}
			}
			w.generate(ctx, cfg)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) generate(ctx context.Context, cfg *Config) {
	results, err := w.gen.Run(ctx, cfg)
	if err != nil {
		w.logger.Error("generation failed", zap.Error(err))
	}

	for _, f := range cfg.Facades {
		if dir := f.LocalDir(w.gen.projectDir); dir != "" {
			w.watchDir(dir)
		}
	}
	for _, r := range results {
		if r.Dir != "" {
			w.watchDir(r.Dir)
		}
		if r.Output != "" {
			w.outputs[filepath.Clean(r.Output)] = true
		}
	}

	if w.onRun != nil {
		w.onRun(results, err)
	}
}

func (w *Watcher) watchDir(dir string) {
	dir = filepath.Clean(dir)
	if w.watched[dir] {
		return
	}
	if err := w.fsw.Add(dir); err != nil {
		w.logger.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
		return
	}
	w.watched[dir] = true
	w.logger.Debug("watching", zap.String("dir", dir))
}

// relevant reports whether a change to name can affect generated output.
func (w *Watcher) relevant(name string) bool {
	if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
		return false
	}
	return !w.outputs[filepath.Clean(name)]
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}
