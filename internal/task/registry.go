package task

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/bindery/internal/errors"
	"git.home.luguber.info/inful/bindery/internal/metrics"
	"git.home.luguber.info/inful/bindery/internal/observability"
)

// Registry maps stable task names to Task values. All registrations happen
// at startup, so unknown or duplicate names surface before anything runs.
type Registry struct {
	mu       sync.RWMutex
	tasks    map[string]Task
	recorder metrics.Recorder
}

// NewRegistry creates an empty registry. A nil recorder disables metrics.
func NewRegistry(rec metrics.Recorder) *Registry {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &Registry{
		tasks:    make(map[string]Task),
		recorder: rec,
	}
}

// Register adds a named Task to the registry.
func (r *Registry) Register(t Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[t.Name()]; exists {
		return errors.Wrap(ErrDuplicateTask, errors.CategoryTask, errors.SeverityFatal, "task already registered").
			WithContext("task", t.Name())
	}
	r.tasks[t.Name()] = t
	return nil
}

// Lookup resolves a name without executing anything.
func (r *Registry) Lookup(name string) (Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Names returns all registered task names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	return names
}

// Run resolves name and executes its task tree, returning the triggering
// leaf's error on failure.
func (r *Registry) Run(ctx context.Context, name string) error {
	t, ok := r.Lookup(name)
	if !ok {
		return errors.Wrap(ErrUnknownTask, errors.CategoryTask, errors.SeverityFatal, "task not registered").
			WithContext("task", name)
	}

	runID := uuid.NewString()
	ctx = observability.WithRunID(ctx, runID)
	ctx = observability.WithTask(ctx, name)
	ctx = WithRecorder(ctx, r.recorder)

	observability.InfoContext(ctx, "Running task")
	start := time.Now()
	err := t.Run(ctx)
	r.recorder.ObserveBuildDuration(time.Since(start))

	if err != nil {
		r.recorder.IncBuildOutcome("failed")
		observability.ErrorContext(ctx, "Task run failed",
			slog.Duration("elapsed", time.Since(start)),
			slog.Any("error", err))
		return err
	}
	r.recorder.IncBuildOutcome("success")
	observability.InfoContext(ctx, "Task run completed", slog.Duration("elapsed", time.Since(start)))
	return nil
}
