package alter

import (
	"cmp"
	"fmt"
	"math/rand"
	"slices"

	"galapagos/internal/genetic"
)

// Recombiner recombines the phenotypes at indices, indices[0] being the
// one picked by the driver, and returns the number of altered genes.
type Recombiner[G genetic.Gene[G], C cmp.Ordered] interface {
	Order() int
	Recombine(rng *rand.Rand, population *genetic.Population[G, C], indices []int, generation int) int
}

// Recombinator picks each phenotype with probability p and hands it,
// together with Order()-1 distinct random partners, to its recombiner.
type Recombinator[G genetic.Gene[G], C cmp.Ordered] struct {
	probability float64
	recombiner  Recombiner[G, C]
}

func NewRecombinator[G genetic.Gene[G], C cmp.Ordered](probability float64, recombiner Recombiner[G, C]) (*Recombinator[G, C], error) {
	if err := checkProbability("recombination probability", probability); err != nil {
		return nil, err
	}
	if recombiner == nil {
		return nil, fmt.Errorf("recombiner is required")
	}
	if recombiner.Order() < 2 {
		return nil, fmt.Errorf("recombination order must be >= 2: %d", recombiner.Order())
	}
	return &Recombinator[G, C]{probability: probability, recombiner: recombiner}, nil
}

func (r *Recombinator[G, C]) Probability() float64 { return r.probability }

func (r *Recombinator[G, C]) Alter(rng *rand.Rand, population *genetic.Population[G, C], generation int) int {
	n := population.Len()
	if n < 2 {
		return 0
	}
	order := min(r.recombiner.Order(), n)
	altered := 0
	for i := range Indexes(rng, n, r.probability) {
		altered += r.recombiner.Recombine(rng, population, partners(rng, n, order, i), generation)
	}
	return altered
}

func partners(rng *rand.Rand, n, order, first int) []int {
	out := make([]int, 1, order)
	out[0] = first
	for len(out) < order {
		j := rng.Intn(n)
		if !slices.Contains(out, j) {
			out = append(out, j)
		}
	}
	return out
}

// GeneCrossover recombines two gene sequences in place and returns the
// number of altered genes over both.
type GeneCrossover[G any] interface {
	Crossover(rng *rand.Rand, that, other []G) int
}

// Crossover is the order two recombiner that applies a GeneCrossover to one
// randomly chosen chromosome shared by both parents.
type Crossover[G genetic.Gene[G], C cmp.Ordered] struct {
	strategy GeneCrossover[G]
}

func NewCrossover[G genetic.Gene[G], C cmp.Ordered](strategy GeneCrossover[G]) Crossover[G, C] {
	return Crossover[G, C]{strategy: strategy}
}

func (Crossover[G, C]) Order() int { return 2 }

func (c Crossover[G, C]) Recombine(rng *rand.Rand, population *genetic.Population[G, C], indices []int, generation int) int {
	pt1, pt2 := population.Get(indices[0]), population.Get(indices[1])
	gt1, gt2 := pt1.Genotype(), pt2.Genotype()

	ci := rng.Intn(min(gt1.Len(), gt2.Len()))
	ch1, ch2 := gt1.Chromosome(ci), gt2.Chromosome(ci)
	genes1, genes2 := ch1.Genes(), ch2.Genes()
	altered := c.strategy.Crossover(rng, genes1, genes2)
	if altered == 0 {
		return 0
	}

	chromosomes1, chromosomes2 := gt1.Chromosomes(), gt2.Chromosomes()
	chromosomes1[ci] = ch1.WithGenes(genes1)
	chromosomes2[ci] = ch2.WithGenes(genes2)
	population.Set(indices[0], pt1.WithGenotype(gt1.WithChromosomes(chromosomes1), generation))
	population.Set(indices[1], pt2.WithGenotype(gt2.WithChromosomes(chromosomes2), generation))
	return altered
}

func newCrossover[G genetic.Gene[G], C cmp.Ordered](probability float64, strategy GeneCrossover[G]) (*Recombinator[G, C], error) {
	return NewRecombinator[G, C](probability, NewCrossover[G, C](strategy))
}

func NewSinglePointCrossover[G genetic.Gene[G], C cmp.Ordered](probability float64) (*Recombinator[G, C], error) {
	return newCrossover[G, C](probability, MultiPoint[G]{Points: 1})
}

func NewMultiPointCrossover[G genetic.Gene[G], C cmp.Ordered](probability float64, points int) (*Recombinator[G, C], error) {
	if points < 1 {
		return nil, fmt.Errorf("crossover points must be >= 1: %d", points)
	}
	return newCrossover[G, C](probability, MultiPoint[G]{Points: points})
}

func NewUniformCrossover[G genetic.Gene[G], C cmp.Ordered](probability, swapProbability float64) (*Recombinator[G, C], error) {
	if err := checkProbability("swap probability", swapProbability); err != nil {
		return nil, err
	}
	return newCrossover[G, C](probability, Uniform[G]{SwapProbability: swapProbability})
}

func NewPartiallyMatchedCrossover[G interface {
	genetic.Gene[G]
	comparable
}, C cmp.Ordered](probability float64) (*Recombinator[G, C], error) {
	return newCrossover[G, C](probability, PartiallyMatched[G]{})
}

func NewLineCrossover[G genetic.NumericGene[G], C cmp.Ordered](probability, extent float64) (*Recombinator[G, C], error) {
	if !(extent >= 0) {
		return nil, fmt.Errorf("line crossover extent must be >= 0: %v", extent)
	}
	return newCrossover[G, C](probability, Line[G]{Extent: extent})
}

func NewIntermediateCrossover[G genetic.NumericGene[G], C cmp.Ordered](probability, extent float64) (*Recombinator[G, C], error) {
	if !(extent >= 0) {
		return nil, fmt.Errorf("intermediate crossover extent must be >= 0: %v", extent)
	}
	return newCrossover[G, C](probability, Intermediate[G]{Extent: extent})
}

type meanRecombiner[G genetic.MeanGene[G], C cmp.Ordered] struct{}

func (meanRecombiner[G, C]) Order() int { return 2 }

// Recombine replaces one chromosome of the first phenotype by its gene-wise
// mean with the second. The second phenotype is left untouched.
func (meanRecombiner[G, C]) Recombine(rng *rand.Rand, population *genetic.Population[G, C], indices []int, generation int) int {
	pt1, pt2 := population.Get(indices[0]), population.Get(indices[1])
	gt1, gt2 := pt1.Genotype(), pt2.Genotype()

	ci := rng.Intn(min(gt1.Len(), gt2.Len()))
	ch1, ch2 := gt1.Chromosome(ci), gt2.Chromosome(ci)
	genes := ch1.Genes()
	for i := range min(len(genes), ch2.Len()) {
		genes[i] = genes[i].Mean(ch2.Gene(i))
	}

	chromosomes := gt1.Chromosomes()
	chromosomes[ci] = ch1.WithGenes(genes)
	population.Set(indices[0], pt1.WithGenotype(gt1.WithChromosomes(chromosomes), generation))
	return 1
}

func NewMeanAlterer[G genetic.MeanGene[G], C cmp.Ordered](probability float64) (*Recombinator[G, C], error) {
	return NewRecombinator[G, C](probability, meanRecombiner[G, C]{})
}
