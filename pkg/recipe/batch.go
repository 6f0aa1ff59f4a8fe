package recipe

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ConvertRecipes converts several recipes concurrently, at most WithWorkers
// at a time. Results keep the order of texts.
//
// Line failures never fail the batch; the only error is ctx being
// cancelled, in which case the partial results are discarded.
func (c *Converter) ConvertRecipes(ctx context.Context, texts []string, multiplier float64) ([]string, error) {
	results := make([]string, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = c.ConvertRecipeContext(gctx, text, multiplier)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// the group context is always done after Wait; check the caller's
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
