package task

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"

	"git.home.luguber.info/inful/bindery/internal/observability"
)

type seriesTask struct {
	name     string
	children []Task
}

// Series composes tasks into a strict sequential dependency: each child
// starts only after the previous one completed. The composite fails fast:
// a child failure stops the series without starting later children.
func Series(name string, children ...Task) Task {
	return &seriesTask{name: name, children: children}
}

func (t *seriesTask) Name() string { return t.name }

func (t *seriesTask) Run(ctx context.Context) error {
	for _, child := range t.children {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: %w", t.name, err)
		}
		if err := child.Run(ctx); err != nil {
			return fmt.Errorf("%s: %s: %w", t.name, child.Name(), err)
		}
	}
	return nil
}

type parallelTask struct {
	name     string
	children []Task
}

// Parallel composes tasks with no ordering between them. All children start
// together; the composite completes only after every child has completed.
// Failures do not cancel siblings already started; their errors are joined
// so each remains observable for diagnostics.
func Parallel(name string, children ...Task) Task {
	return &parallelTask{name: name, children: children}
}

func (t *parallelTask) Name() string { return t.name }

func (t *parallelTask) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, len(t.children))

	for i, child := range t.children {
		wg.Add(1)
		go func(i int, child Task) {
			defer wg.Done()
			if err := child.Run(ctx); err != nil {
				errs[i] = fmt.Errorf("%s: %w", child.Name(), err)
			}
		}(i, child)
	}
	wg.Wait()

	if err := stderrors.Join(errs...); err != nil {
		observability.ErrorContext(ctx, "Parallel group failed")
		return fmt.Errorf("%s: %w", t.name, err)
	}
	return nil
}
