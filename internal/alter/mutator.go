package alter

import (
	"cmp"
	"fmt"
	"math"
	"math/rand"

	"galapagos/internal/genetic"
)

// Mutation changes genes in place, visiting each gene with probability p,
// and returns the number of altered genes.
type Mutation[G genetic.Gene[G]] interface {
	Mutate(rng *rand.Rand, genes []G, p float64) int
}

// Mutator thins the population in three levels. Phenotypes, chromosomes and
// genes are each picked with probability cbrt(probability), so a gene is
// handed to the mutation with the configured probability overall.
type Mutator[G genetic.Gene[G], C cmp.Ordered] struct {
	probability float64
	mutation    Mutation[G]
}

func NewMutatorWith[G genetic.Gene[G], C cmp.Ordered](probability float64, mutation Mutation[G]) (*Mutator[G, C], error) {
	if err := checkProbability("mutation probability", probability); err != nil {
		return nil, err
	}
	if mutation == nil {
		return nil, fmt.Errorf("mutation is required")
	}
	return &Mutator[G, C]{probability: probability, mutation: mutation}, nil
}

// NewMutator replaces each picked gene by a fresh random instance.
func NewMutator[G genetic.Gene[G], C cmp.Ordered](probability float64) (*Mutator[G, C], error) {
	return NewMutatorWith[G, C](probability, Replace[G]{})
}

// NewSwapMutator swaps each picked gene with a random gene of its
// chromosome.
func NewSwapMutator[G genetic.Gene[G], C cmp.Ordered](probability float64) (*Mutator[G, C], error) {
	return NewMutatorWith[G, C](probability, Swap[G]{})
}

// NewShiftMutator moves a random range of a picked chromosome.
func NewShiftMutator[G genetic.Gene[G], C cmp.Ordered](probability float64) (*Mutator[G, C], error) {
	return NewMutatorWith[G, C](probability, Shift[G]{})
}

func NewGaussianMutator[G genetic.NumericGene[G], C cmp.Ordered](probability float64) (*Mutator[G, C], error) {
	return NewMutatorWith[G, C](probability, Gaussian[G]{})
}

func (m *Mutator[G, C]) Probability() float64 { return m.probability }

func (m *Mutator[G, C]) Alter(rng *rand.Rand, population *genetic.Population[G, C], generation int) int {
	p := math.Cbrt(m.probability)
	altered := 0
	for i := range Indexes(rng, population.Len(), p) {
		pt := population.Get(i)
		gt, n := m.mutate(rng, pt.Genotype(), p)
		if n > 0 {
			population.Set(i, pt.WithGenotype(gt, generation))
			altered += n
		}
	}
	return altered
}

func (m *Mutator[G, C]) mutate(rng *rand.Rand, gt genetic.Genotype[G], p float64) (genetic.Genotype[G], int) {
	var chromosomes []genetic.Chromosome[G]
	altered := 0
	for i := range Indexes(rng, gt.Len(), p) {
		ch := gt.Chromosome(i)
		genes := ch.Genes()
		n := m.mutation.Mutate(rng, genes, p)
		if n == 0 {
			continue
		}
		if chromosomes == nil {
			chromosomes = gt.Chromosomes()
		}
		chromosomes[i] = ch.WithGenes(genes)
		altered += n
	}
	if chromosomes == nil {
		return gt, 0
	}
	return gt.WithChromosomes(chromosomes), altered
}

// Replace draws a new allele for each picked gene.
type Replace[G genetic.Gene[G]] struct{}

func (Replace[G]) Mutate(rng *rand.Rand, genes []G, p float64) int {
	altered := 0
	for i := range Indexes(rng, len(genes), p) {
		genes[i] = genes[i].NewInstance(rng)
		altered++
	}
	return altered
}

// Swap exchanges each picked gene with a uniformly chosen gene of the same
// sequence. Permutations stay permutations.
type Swap[G genetic.Gene[G]] struct{}

func (Swap[G]) Mutate(rng *rand.Rand, genes []G, p float64) int {
	if len(genes) < 2 {
		return 0
	}
	altered := 0
	for i := range Indexes(rng, len(genes), p) {
		j := rng.Intn(len(genes))
		genes[i], genes[j] = genes[j], genes[i]
		altered++
	}
	return altered
}

// Gaussian adds Normal(0, ((max-min)/4)^2) noise to each picked gene and
// clamps the result to the gene's valid range.
type Gaussian[G genetic.NumericGene[G]] struct{}

func (Gaussian[G]) Mutate(rng *rand.Rand, genes []G, p float64) int {
	altered := 0
	for i := range Indexes(rng, len(genes), p) {
		g := genes[i]
		lo, hi := g.Min(), g.Max()
		v := g.Float() + rng.NormFloat64()*(hi-lo)/4
		genes[i] = g.WithFloat(math.Min(math.Max(v, lo), math.Nextafter(hi, lo)))
		altered++
	}
	return altered
}

// Shift moves the range [b, c) in front of [a, b) for a random a < b < c,
// once per picked sequence.
type Shift[G genetic.Gene[G]] struct{}

func (Shift[G]) Mutate(rng *rand.Rand, genes []G, p float64) int {
	if len(genes) < 2 || rng.Float64() >= p {
		return 0
	}
	points := subset(rng, len(genes)+1, 3)
	shift(genes, points[0], points[1], points[2])
	return points[2] - points[0]
}

func shift[G any](genes []G, a, b, c int) {
	head := append([]G(nil), genes[a:b]...)
	n := copy(genes[a:], genes[b:c])
	copy(genes[a+n:], head)
}
