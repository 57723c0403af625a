package genetic

import (
	"cmp"
	"context"
	"fmt"
	"math/rand"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Population is an ordered, mutable list of phenotypes. It is not safe for
// concurrent mutation.
type Population[G Gene[G], C cmp.Ordered] struct {
	items []*Phenotype[G, C]
}

func NewPopulation[G Gene[G], C cmp.Ordered](capacity int) *Population[G, C] {
	return &Population[G, C]{items: make([]*Phenotype[G, C], 0, max(capacity, 0))}
}

func PopulationOf[G Gene[G], C cmp.Ordered](items ...*Phenotype[G, C]) *Population[G, C] {
	return &Population[G, C]{items: append([]*Phenotype[G, C](nil), items...)}
}

func (p *Population[G, C]) Len() int { return len(p.items) }

func (p *Population[G, C]) Get(i int) *Phenotype[G, C] { return p.items[i] }

func (p *Population[G, C]) Set(i int, pt *Phenotype[G, C]) { p.items[i] = pt }

func (p *Population[G, C]) Add(items ...*Phenotype[G, C]) {
	p.items = append(p.items, items...)
}

func (p *Population[G, C]) AddAll(other *Population[G, C]) {
	p.items = append(p.items, other.items...)
}

func (p *Population[G, C]) RemoveAt(i int) *Phenotype[G, C] {
	pt := p.items[i]
	p.items = slices.Delete(p.items, i, i+1)
	return pt
}

func (p *Population[G, C]) Clear() { p.items = p.items[:0] }

// Phenotypes returns a copy of the backing list.
func (p *Population[G, C]) Phenotypes() []*Phenotype[G, C] {
	return append([]*Phenotype[G, C](nil), p.items...)
}

func (p *Population[G, C]) Genotypes() []Genotype[G] {
	out := make([]Genotype[G], len(p.items))
	for i, pt := range p.items {
		out[i] = pt.Genotype()
	}
	return out
}

// Copy is shallow: phenotypes are immutable and shared.
func (p *Population[G, C]) Copy() *Population[G, C] {
	return PopulationOf(p.items...)
}

// Sort is stable.
func (p *Population[G, C]) Sort(compare func(a, b *Phenotype[G, C]) int) {
	slices.SortStableFunc(p.items, compare)
}

// SortFor sorts best first.
func (p *Population[G, C]) SortFor(o Optimize) {
	p.Sort(BestFirst[G, C](o))
}

func (p *Population[G, C]) Shuffle(rng *rand.Rand) {
	rng.Shuffle(len(p.items), func(i, j int) {
		p.items[i], p.items[j] = p.items[j], p.items[i]
	})
}

// Fill appends count phenotypes produced by factory.
func (p *Population[G, C]) Fill(rng *rand.Rand, factory func(*rand.Rand) *Phenotype[G, C], count int) {
	for range count {
		p.items = append(p.items, factory(rng))
	}
}

// FillConcurrent appends count phenotypes produced by factory on up to
// workers goroutines. Each slot gets its own generator seeded from rng
// before any goroutine starts, so the result only depends on rng.
func (p *Population[G, C]) FillConcurrent(
	ctx context.Context,
	rng *rand.Rand,
	factory func(*rand.Rand) *Phenotype[G, C],
	count int,
	workers int,
) error {
	if count < 0 {
		return fmt.Errorf("fill count must be >= 0: %d", count)
	}
	seeds := make([]int64, count)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	out := make([]*Phenotype[G, C], count)

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i := range out {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out[i] = factory(rand.New(rand.NewSource(seeds[i])))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	p.items = append(p.items, out...)
	return nil
}
