package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FanOut applies fn to every item with at most workers calls in flight. The
// results and per-item errors are aligned with items regardless of completion
// order. A per-item error does not stop the other items; only cancellation of
// ctx is returned as the overall error.
func FanOut[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, i int, item T) (R, error)) ([]R, []error, error) {
	if workers <= 0 {
		workers = 1
	}

	results := make([]R, len(items))
	errs := make([]error, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			results[i], errs[i] = fn(gCtx, i, item)
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, errs, err
	}

	return results, errs, nil
}
