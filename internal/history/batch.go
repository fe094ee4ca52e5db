package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/mrcode/pumphistory/internal/models"
	"golang.org/x/sync/errgroup"
)

// RunBatch runs the pipeline over independent histories concurrently, at most
// limit at a time. The first failure cancels the remaining runs.
func RunBatch(ctx context.Context, histories map[string][]models.Event, opts Options, limit int) (map[string]*Result, error) {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	var mu sync.Mutex
	results := make(map[string]*Result, len(histories))

	for name, events := range histories {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			runOpts := opts
			if runOpts.Logger != nil {
				runOpts.Logger = runOpts.Logger.With("history", name)
			}
			res, err := Run(events, runOpts)
			if err != nil {
				return fmt.Errorf("history %s: %w", name, err)
			}
			mu.Lock()
			results[name] = res
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
