package concurrency

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

var errFound = errors.New("found")

// FirstResult runs the tasks concurrently and returns the first value a task
// reports as found. The context handed to the tasks is cancelled as soon as
// one of them finds a value, so the rest can stop early.
//
// A failing task does not stop the others. When nothing is found, the task
// errors are returned joined, but only if every task failed.
func FirstResult[T any](ctx context.Context, tasks ...func(ctx context.Context) (T, bool, error)) (T, bool, error) {
	var (
		once   sync.Once
		result T
		found  bool
		errs   = make([]error, len(tasks))
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			v, ok, err := task(gctx)
			if err != nil {
				errs[i] = err
				return nil
			}
			if !ok {
				return nil
			}
			once.Do(func() {
				result = v
				found = true
			})
			// a non-nil error cancels gctx for the remaining tasks
			return errFound
		})
	}
	_ = g.Wait()

	if found {
		return result, true, nil
	}

	var zero T
	for _, err := range errs {
		if err == nil {
			return zero, false, nil
		}
	}
	return zero, false, errors.Join(errs...)
}
