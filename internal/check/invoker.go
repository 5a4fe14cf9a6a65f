// Package check invokes an external EPUB validator against a packaged
// archive. Validation is diagnostic tooling layered on top of a build that
// already succeeded: the checker's own verdict never fails the task run.
package check

import (
	"context"
	stderrors "errors"
	"log/slog"
	"os"
	"os/exec"

	"git.home.luguber.info/inful/bindery/internal/errors"
	"git.home.luguber.info/inful/bindery/internal/observability"
	"git.home.luguber.info/inful/bindery/internal/task"
)

// Invoker runs an external checker process against an archive.
type Invoker struct {
	// Command is the checker executable, e.g. "epubcheck".
	Command string
}

// NewInvoker creates an Invoker for the given checker command.
func NewInvoker(command string) *Invoker {
	if command == "" {
		command = "epubcheck"
	}
	return &Invoker{Command: command}
}

// LogPath returns the error-log file the checker's combined output lands in.
func (i *Invoker) LogPath(archivePath string) string {
	return archivePath + ".errors"
}

// Validate spawns the checker against archivePath, redirecting its combined
// output to the sibling error log. The returned error reflects only the
// invocation: a checker that ran and reported problems is logged, not
// failed; a checker that could not be spawned is a validation error.
func (i *Invoker) Validate(ctx context.Context, archivePath string) error {
	logPath := i.LogPath(archivePath)
	logFile, err := os.Create(logPath)
	if err != nil {
		return errors.Wrap(err, errors.CategoryValidation, errors.SeverityError, "failed to create checker log").
			WithContext("log", logPath)
	}
	defer func() { _ = logFile.Close() }()

	cmd := exec.CommandContext(ctx, i.Command, archivePath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	err = cmd.Run()
	if err == nil {
		observability.InfoContext(ctx, "Checker passed",
			slog.String("archive", archivePath), slog.String("log", logPath))
		return nil
	}

	var exitErr *exec.ExitError
	if stderrors.As(err, &exitErr) {
		// The checker ran; its verdict is advisory and lives in the log.
		observability.WarnContext(ctx, "Checker reported problems",
			slog.String("archive", archivePath),
			slog.Int("exit_code", exitErr.ExitCode()),
			slog.String("log", logPath))
		return nil
	}

	return errors.Wrap(err, errors.CategoryValidation, errors.SeverityError, "failed to spawn checker").
		WithContext("command", i.Command)
}

// Task adapts Validate to a leaf task. An invocation failure is reported
// but does not fail the overall run's success signal.
func (i *Invoker) Task(archivePath string) task.Task {
	return task.Func("validate", func(ctx context.Context) error {
		if err := i.Validate(ctx, archivePath); err != nil {
			observability.WarnContext(ctx, "Validation could not run", slog.Any("error", err))
		}
		return nil
	})
}
