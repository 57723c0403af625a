package evo

import (
	"context"
	"math/rand"

	"golang.org/x/sync/errgroup"
)

// scope runs tasks on at most limit goroutines.
type scope struct {
	group *errgroup.Group
	ctx   context.Context
}

func (s *scope) Go(task func(ctx context.Context) error) {
	s.group.Go(func() error {
		return task(s.ctx)
	})
}

// concurrently calls submit and then waits for every task it submitted,
// also when submit panics. The first task error is returned.
func concurrently(ctx context.Context, limit int, submit func(s *scope)) (err error) {
	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	defer func() {
		if werr := g.Wait(); err == nil {
			err = werr
		}
	}()
	submit(&scope{group: g, ctx: gctx})
	return nil
}

// substreams derives n independent generators from rng. Drawing all seeds
// up front keeps results independent of task scheduling.
func substreams(rng *rand.Rand, n int) []*rand.Rand {
	out := make([]*rand.Rand, n)
	for i := range out {
		out[i] = rand.New(rand.NewSource(rng.Int63()))
	}
	return out
}
