package runner

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/oxhq/rubric/internal/model"
)

// RunFiles runs every file in parallel, at most the configured number of jobs
// at a time. Results keep the order of paths. A failing file never stops the
// others; the error is only returned when ctx ends the run, and files not
// started by then carry ctx's error.
func (r *Runner) RunFiles(ctx context.Context, paths []string) ([]*FileResult, error) {
	results := make([]*FileResult, len(paths))
	if len(paths) == 0 {
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(r.jobs, len(paths)))

	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				results[i] = &FileResult{Path: path, Status: StatusFailed, Err: gctx.Err()}
				return gctx.Err()
			default:
			}

			text, err := r.readFile(path)
			if err != nil {
				log.Warningf("reading %s: %s", path, err)
				results[i] = &FileResult{Path: path, Status: StatusFailed, Err: &model.ReadError{Path: path, Err: err}}
				return nil
			}
			// Per-file errors live in the result.
			results[i], _ = r.Run(gctx, path, text)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	for i, res := range results {
		if res == nil {
			results[i] = &FileResult{Path: paths[i], Status: StatusFailed, Err: ctx.Err()}
		}
	}
	return results, err
}

// RunText is a convenience for callers holding a single in-memory document.
func (r *Runner) RunText(ctx context.Context, path, text string) (*FileResult, error) {
	return r.Run(ctx, path, []byte(text))
}

