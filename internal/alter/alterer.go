package alter

import (
	"cmp"
	"fmt"
	"iter"
	"math/rand"
	"slices"

	"galapagos/internal/genetic"
)

// Alterer changes selected phenotypes of a population in place and returns
// the number of altered genes. Altered phenotypes are replaced by new ones
// born in generation.
type Alterer[G genetic.Gene[G], C cmp.Ordered] interface {
	Alter(rng *rand.Rand, population *genetic.Population[G, C], generation int) int
}

func checkProbability(name string, p float64) error {
	if !(p >= 0 && p <= 1) {
		return fmt.Errorf("%s must be in [0,1]: %v", name, p)
	}
	return nil
}

// Indexes yields each index in [0, n) independently with probability p.
func Indexes(rng *rand.Rand, n int, p float64) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := range n {
			if rng.Float64() < p && !yield(i) {
				return
			}
		}
	}
}

// subset returns k distinct sorted values from [0, n).
func subset(rng *rand.Rand, n, k int) []int {
	points := rng.Perm(n)[:k]
	slices.Sort(points)
	return points
}

// Composite applies its alterers in order.
type Composite[G genetic.Gene[G], C cmp.Ordered] struct {
	alterers []Alterer[G, C]
}

// NewComposite flattens nested composites and drops nil entries.
func NewComposite[G genetic.Gene[G], C cmp.Ordered](alterers ...Alterer[G, C]) *Composite[G, C] {
	c := &Composite[G, C]{}
	for _, a := range alterers {
		switch a := a.(type) {
		case nil:
		case *Composite[G, C]:
			c.alterers = append(c.alterers, a.alterers...)
		default:
			c.alterers = append(c.alterers, a)
		}
	}
	return c
}

func (c *Composite[G, C]) Alterers() []Alterer[G, C] {
	return append([]Alterer[G, C](nil), c.alterers...)
}

func (c *Composite[G, C]) Alter(rng *rand.Rand, population *genetic.Population[G, C], generation int) int {
	altered := 0
	for _, a := range c.alterers {
		altered += a.Alter(rng, population, generation)
	}
	return altered
}
