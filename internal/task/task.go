// Package task implements the build task graph: named leaf actions composed
// with Series and Parallel, registered in a typed Registry and executed by
// name. Composition is pure; nothing runs until Registry.Run.
package task

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/bindery/internal/metrics"
	"git.home.luguber.info/inful/bindery/internal/observability"
)

// ErrUnknownTask is returned by Registry.Run for unregistered names.
var ErrUnknownTask = stderrors.New("unknown task")

// ErrDuplicateTask is returned by Registry.Register for already-taken names.
var ErrDuplicateTask = stderrors.New("duplicate task")

// Task is a named unit of work. A Task either performs a side-effecting leaf
// action or composes other Tasks; Run must report completion exactly once
// via its return value.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

// Func wraps a function as a leaf task. The leaf times itself and reports
// its result to the Recorder carried in the context, if any.
func Func(name string, fn func(ctx context.Context) error) Task {
	return &funcTask{name: name, fn: fn}
}

func (t *funcTask) Name() string { return t.name }

func (t *funcTask) Run(ctx context.Context) error {
	ctx = observability.WithStage(ctx, t.name)
	rec := RecorderFrom(ctx)

	start := time.Now()
	err := t.fn(ctx)
	rec.ObserveStageDuration(t.name, time.Since(start))

	if err != nil {
		rec.IncStageResult(t.name, metrics.ResultFailed)
		observability.ErrorContext(ctx, "Task failed", slog.Any("error", err))
		return err
	}
	rec.IncStageResult(t.name, metrics.ResultSuccess)
	observability.DebugContext(ctx, "Task completed")
	return nil
}

type recorderKeyType string

const recorderKey recorderKeyType = "task-recorder"

// WithRecorder attaches a metrics recorder for leaf tasks to report into.
func WithRecorder(ctx context.Context, rec metrics.Recorder) context.Context {
	return context.WithValue(ctx, recorderKey, rec)
}

// RecorderFrom returns the attached recorder, or a NoopRecorder.
func RecorderFrom(ctx context.Context) metrics.Recorder {
	if rec, ok := ctx.Value(recorderKey).(metrics.Recorder); ok && rec != nil {
		return rec
	}
	return metrics.NoopRecorder{}
}
