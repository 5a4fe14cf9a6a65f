// Package watch subscribes to filesystem change events for source patterns,
// reruns the bound task, and signals preview clients to refresh. Change
// bursts are coalesced per binding with a single-slot latest-pending policy:
// a change arriving mid-run queues exactly one follow-up run.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/bindery/internal/errors"
	"git.home.luguber.info/inful/bindery/internal/observability"
	"git.home.luguber.info/inful/bindery/internal/preview"
	"git.home.luguber.info/inful/bindery/internal/stage"
	"git.home.luguber.info/inful/bindery/internal/task"
)

const defaultDebounce = 300 * time.Millisecond

// Binding relates a source file pattern to the task to re-run on change,
// and whether a reload signal follows a successful run. Bindings are
// independent; no ordering is guaranteed between bindings reacting to one
// change burst.
type Binding struct {
	Pattern  stage.Pattern
	TaskName string
	Reload   bool
}

// Coordinator consumes filesystem events for a source root and drives the
// bound task reruns. It lives for the duration of a development session.
type Coordinator struct {
	registry *task.Registry
	session  *preview.Session
	root     string
	bindings []Binding
	debounce time.Duration
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithDebounce overrides the change-burst debounce interval.
func WithDebounce(d time.Duration) CoordinatorOption {
	return func(c *Coordinator) {
		c.debounce = d
	}
}

// NewCoordinator creates a coordinator watching root. session may be nil
// when no preview is running (reload signals are then dropped).
func NewCoordinator(registry *task.Registry, session *preview.Session, root string, bindings []Binding, options ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		registry: registry,
		session:  session,
		root:     root,
		bindings: bindings,
		debounce: defaultDebounce,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// runner serializes reruns for one binding. The request channel holds at
// most one slot: a change arriving mid-run parks there and is consumed once
// the current run finishes, so bursts collapse to a single follow-up run.
type runner struct {
	req chan struct{}
}

func (c *Coordinator) newRunner(ctx context.Context, b Binding) *runner {
	r := &runner{req: make(chan struct{}, 1)}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-r.req:
				c.rerun(ctx, b)
			}
		}
	}()
	return r
}

func (r *runner) trigger() {
	select {
	case r.req <- struct{}{}:
	default:
	}
}

func (c *Coordinator) rerun(ctx context.Context, b Binding) {
	observability.InfoContext(ctx, "Change detected, re-running task", slog.String("task", b.TaskName))
	if err := c.registry.Run(ctx, b.TaskName); err != nil {
		observability.WarnContext(ctx, "Rebuild failed", slog.String("task", b.TaskName), slog.Any("error", err))
		return
	}
	if b.Reload && c.session != nil {
		c.session.Reload()
	}
}

// Run watches until the context is canceled. It returns nil on a clean
// shutdown.
func (c *Coordinator) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, errors.SeverityFatal, "failed to create filesystem watcher")
	}
	defer func() { _ = watcher.Close() }()

	if err := addDirsRecursive(watcher, c.root); err != nil {
		return err
	}

	runners := make([]*runner, len(c.bindings))
	for i, b := range c.bindings {
		runners[i] = c.newRunner(ctx, b)
	}

	// One debounce timer per binding coalesces change bursts.
	timers := make([]*time.Timer, len(c.bindings))
	var timerMu sync.Mutex
	schedule := func(i int) {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timers[i] != nil {
			timers[i].Stop()
		}
		timers[i] = time.AfterFunc(c.debounce, runners[i].trigger)
	}

	observability.InfoContext(ctx, "Watching for changes",
		slog.String("root", c.root), slog.Int("bindings", len(c.bindings)))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			c.handleEvent(watcher, ev, schedule)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func (c *Coordinator) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, schedule func(int)) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name)
		}
	}

	rel, err := filepath.Rel(c.root, ev.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	slog.Debug("File change detected", "path", rel, "op", ev.Op.String())
	for i, b := range c.bindings {
		if b.Pattern.Match(rel) {
			schedule(i)
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("watch add failed", "dir", path, "error", err)
			}
		}
		return nil
	})
}

// shouldIgnoreEvent returns true for filesystem events that should not
// trigger rebuilds: hidden files, editor temp/swap files, OS litter.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	if strings.HasPrefix(base, ".") {
		return true
	}
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, ".#") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}
	if base == "Thumbs.db" {
		return true
	}

	return false
}
