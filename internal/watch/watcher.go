// SPDX-License-Identifier: MPL-2.0

package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last event.
const DefaultDebounce = 500 * time.Millisecond

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: already running")

// alwaysIgnored never trigger a rebuild. Virtualenvs and caches churn while
// pip and poetry run, which would otherwise retrigger the build it started.
var alwaysIgnored = []string{
	".git/**",
	"**/.git/**",
	".venv/**",
	"**/__pycache__/**",
	"**/*.pyc",
	".aws-sam/**",
	"**/*.swp",
	"**/*~",
	"**/.DS_Store",
}

type (
	// ChangeFunc is called with the sorted, slash-separated paths that changed.
	ChangeFunc func(ctx context.Context, changed []string) error

	// Config describes what to watch.
	Config struct {
		// Root is the project directory. Patterns are relative to it.
		Root string
		// Patterns select the files that trigger a rebuild. Empty matches everything.
		Patterns []string
		// Ignore adds patterns to the built-in ignore list.
		Ignore []string
		// Debounce defaults to DefaultDebounce.
		Debounce time.Duration
		// OnChange runs once per burst of events. Calls never overlap.
		OnChange ChangeFunc
		// Logger receives watcher diagnostics. Nil discards them.
		Logger *log.Logger
	}

	// Watcher monitors a project tree.
	Watcher struct {
		root     string
		patterns []string
		ignores  []string
		debounce time.Duration
		onChange ChangeFunc
		logger   *log.Logger
		fsw      *fsnotify.Watcher
		started  atomic.Bool
	}
)

// New validates cfg and starts watching every non-ignored directory under Root.
func New(cfg Config) (*Watcher, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}
	if err := checkPatterns(cfg.Patterns); err != nil {
		return nil, err
	}
	if err := checkPatterns(cfg.Ignore); err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		patterns: cfg.Patterns,
		ignores:  append(append([]string{}, alwaysIgnored...), cfg.Ignore...),
		debounce: cfg.Debounce,
		onChange: cfg.OnChange,
		logger:   cfg.Logger,
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = log.New(io.Discard)
	}

	w.fsw, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	if err := w.addTree(root); err != nil {
		_ = w.fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is done. It returns nil on cancellation and
// an error when the underlying watcher can no longer deliver events.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer func() {
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("close watcher", "err", err)
		}
	}()

	b := newBatcher(ctx, w.debounce, w.onChange, w.logger)
	defer b.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			w.handle(evt, b)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) handle(evt fsnotify.Event, b *batcher) {
	rel, ok := w.relative(evt.Name)
	if !ok || w.Ignored(rel) {
		return
	}
	if evt.Has(fsnotify.Create) {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if err := w.addTree(evt.Name); err != nil {
				w.logger.Warn("watch new directory", "path", rel, "err", err)
			}
			return
		}
	}
	if !w.Matches(rel) {
		return
	}
	w.logger.Debug("changed", "path", rel, "op", evt.Op.String())
	b.add(rel)
}

// Matches reports whether rel, relative to the root, selects a rebuild.
func (w *Watcher) Matches(rel string) bool {
	return len(w.patterns) == 0 || matchAny(w.patterns, rel)
}

// Ignored reports whether rel, relative to the root, is excluded.
func (w *Watcher) Ignored(rel string) bool {
	return matchAny(w.ignores, rel)
}

func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skip unreadable path", "path", path, "err", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(path); ok && rel != "." && (w.Ignored(rel) || w.Ignored(rel+"/")) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func checkPatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("watch: invalid pattern %q", p)
		}
	}
	return nil
}

// batcher collects changed paths and fires the callback once the debounce
// window closes. A burst arriving while the callback runs is held back and
// delivered after it returns.
type batcher struct {
	ctx      context.Context
	debounce time.Duration
	fn       ChangeFunc
	logger   *log.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	busy    bool
}

func newBatcher(ctx context.Context, debounce time.Duration, fn ChangeFunc, logger *log.Logger) *batcher {
	return &batcher{ctx: ctx, debounce: debounce, fn: fn, logger: logger, pending: map[string]struct{}{}}
}

func (b *batcher) add(rel string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[rel] = struct{}{}
	if b.timer == nil {
		b.timer = time.AfterFunc(b.debounce, b.fire)
		return
	}
	b.timer.Reset(b.debounce)
}

func (b *batcher) fire() {
	if b.ctx.Err() != nil {
		return
	}
	b.mu.Lock()
	if b.busy || len(b.pending) == 0 {
		if b.busy {
			b.timer.Reset(b.debounce)
		}
		b.mu.Unlock()
		return
	}
	b.busy = true
	changed := make([]string, 0, len(b.pending))
	for rel := range b.pending {
		changed = append(changed, rel)
	}
	clear(b.pending)
	b.mu.Unlock()

	sort.Strings(changed)
	if b.fn != nil {
		if err := b.fn(b.ctx, changed); err != nil {
			b.logger.Debug("rebuild failed", "err", err)
		}
	}

	b.mu.Lock()
	b.busy = false
	b.mu.Unlock()
}

func (b *batcher) stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
	}
}
