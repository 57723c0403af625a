package genetic

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

// Gene is an immutable allele carrier. NewInstance returns a gene of the
// same variant with a freshly sampled allele.
type Gene[G any] interface {
	IsValid() bool
	NewInstance(rng *rand.Rand) G
}

// Chromosome is an immutable, non-empty sequence of genes of one variant.
// Genes returns a private copy that callers may modify and pass back to
// WithGenes.
type Chromosome[G Gene[G]] interface {
	Len() int
	Gene(i int) G
	Genes() []G
	NewInstance(rng *rand.Rand) Chromosome[G]
	WithGenes(genes []G) Chromosome[G]
	IsValid() bool
}

// ArrayChromosome is the generic slice-backed chromosome. The optional check
// adds a variant-specific validity rule on top of per-gene validity.
type ArrayChromosome[G Gene[G]] struct {
	genes []G
	check func([]G) bool
	valid func() bool
}

func NewChromosome[G Gene[G]](genes []G) (*ArrayChromosome[G], error) {
	return NewCheckedChromosome(genes, nil)
}

func NewCheckedChromosome[G Gene[G]](genes []G, check func([]G) bool) (*ArrayChromosome[G], error) {
	if len(genes) == 0 {
		return nil, fmt.Errorf("chromosome length must be > 0")
	}
	return newArrayChromosome(append([]G(nil), genes...), check), nil
}

func newArrayChromosome[G Gene[G]](genes []G, check func([]G) bool) *ArrayChromosome[G] {
	c := &ArrayChromosome[G]{genes: genes, check: check}
	c.valid = sync.OnceValue(func() bool {
		for _, g := range c.genes {
			if !g.IsValid() {
				return false
			}
		}
		return c.check == nil || c.check(c.genes)
	})
	return c
}

func (c *ArrayChromosome[G]) Len() int { return len(c.genes) }

func (c *ArrayChromosome[G]) Gene(i int) G { return c.genes[i] }

func (c *ArrayChromosome[G]) Genes() []G { return append([]G(nil), c.genes...) }

func (c *ArrayChromosome[G]) NewInstance(rng *rand.Rand) Chromosome[G] {
	genes := make([]G, len(c.genes))
	for i, g := range c.genes {
		genes[i] = g.NewInstance(rng)
	}
	return newArrayChromosome(genes, c.check)
}

// WithGenes takes ownership of genes.
func (c *ArrayChromosome[G]) WithGenes(genes []G) Chromosome[G] {
	return newArrayChromosome(genes, c.check)
}

func (c *ArrayChromosome[G]) IsValid() bool { return c.valid() }

func (c *ArrayChromosome[G]) String() string {
	parts := make([]string, len(c.genes))
	for i, g := range c.genes {
		parts[i] = fmt.Sprint(g)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// NumericGene is a bounded gene whose allele can be read and rebuilt as a
// float64. Valid alleles lie in [Min, Max).
type NumericGene[G any] interface {
	Gene[G]
	Float() float64
	Min() float64
	Max() float64
	WithFloat(v float64) G
}

// MeanGene can produce the gene-wise mean with another gene of its variant.
type MeanGene[G any] interface {
	Gene[G]
	Mean(other G) G
}
