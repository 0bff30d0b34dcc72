package runner

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// ExecuteBatch runs independent commands with at most
// min(len(cmds), maxParallel) in flight, started in submission order. The
// call returns once every command has finished. Results are indexed like
// cmds. Per-command errors are combined and do not stop the remaining
// commands.
func (r *Runner) ExecuteBatch(ctx context.Context, cmds []Command) ([]Result, error) {
	results := make([]Result, len(cmds))
	if len(cmds) == 0 {
		return results, nil
	}

	workers := min(len(cmds), r.maxParallel)
	if workers < 1 {
		workers = 1
	}

	errs := make([]error, len(cmds))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, cmd := range cmds {
		g.Go(func() error {
			res, err := r.Execute(ctx, cmd)
			results[i] = res
			if err != nil {
				errs[i] = fmt.Errorf("batch command %d: %w", i, err)
			}
			return nil
		})
	}
	// Errors are kept per command in errs.
	g.Wait()

	return results, multierr.Combine(errs...)
}
