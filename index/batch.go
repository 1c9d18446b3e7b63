package index

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/viant/sqlite-kd/geom"
)

// Neighbor is the answer to one query of NearestAll.
type Neighbor struct {
	Query    geom.Point
	Point    geom.Point
	Distance float64
	Found    bool
}

// NearestAll answers Nearest for every query using up to parallelism
// goroutines (GOMAXPROCS when parallelism <= 0). Results keep the order of
// queries. idx must not be mutated concurrently unless it is Locked.
// Cancellation is checked between queries, never inside one.
func NearestAll(ctx context.Context, idx Index, queries []geom.Point, parallelism int) ([]Neighbor, error) {
	out := make([]Neighbor, len(queries))
	err := fanOut(ctx, len(queries), parallelism, func(i int) error {
		p, ok, err := idx.Nearest(queries[i])
		if err != nil {
			return err
		}
		out[i] = Neighbor{Query: queries[i], Point: p, Found: ok}
		if ok {
			out[i].Distance = p.DistanceTo(queries[i])
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RangeAll answers Range for every rectangle, keeping the order of rects.
func RangeAll(ctx context.Context, idx Index, rects []geom.Rect, parallelism int) ([][]geom.Point, error) {
	out := make([][]geom.Point, len(rects))
	err := fanOut(ctx, len(rects), parallelism, func(i int) error {
		points, err := idx.Range(rects[i])
		out[i] = points
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func fanOut(ctx context.Context, n, parallelism int, fn func(i int) error) error {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i := 0; i < n; i++ {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
