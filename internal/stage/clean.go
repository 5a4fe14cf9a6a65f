package stage

import (
	"context"
	"os"

	"git.home.luguber.info/inful/bindery/internal/errors"
	"git.home.luguber.info/inful/bindery/internal/task"
)

// CleanTask removes the build root and recreates it empty. Every top-level
// task starts with this so stale outputs never leak between runs.
func CleanTask(buildRoot string) task.Task {
	return task.Func("clean", func(_ context.Context) error {
		if err := os.RemoveAll(buildRoot); err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError, "failed to remove build directory").
				WithContext("dir", buildRoot)
		}
		if err := os.MkdirAll(buildRoot, 0o755); err != nil {
			return errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityError, "failed to create build directory").
				WithContext("dir", buildRoot)
		}
		return nil
	})
}
