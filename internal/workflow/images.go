package workflow

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/larder/internal/recipes"
)

// lookupImages resolves images for rs with at most Config.ImageWorkers
// requests in flight. The returned map holds every URL found before the
// first failure; recipes without an image are omitted.
func (s *Session) lookupImages(ctx context.Context, rs []recipes.Recipe) (map[int64]string, error) {
	urls := make([]string, len(rs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.rt.Config.ImageWorkers)

	for i, r := range rs {
		g.Go(func() error {
			u, err := s.rt.Images.ImageURL(gctx, r.ID)
			if err != nil {
				return err
			}
			urls[i] = u
			return nil
		})
	}

	err := g.Wait()

	images := make(map[int64]string, len(rs))
	for i, r := range rs {
		if urls[i] != "" {
			images[r.ID] = urls[i]
		}
	}
	return images, err
}
