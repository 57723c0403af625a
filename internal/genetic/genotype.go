package genetic

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
)

// Genotype is an immutable, non-empty sequence of chromosomes. Every
// transformation returns a new Genotype.
type Genotype[G Gene[G]] struct {
	chromosomes []Chromosome[G]
	valid       func() bool
}

func NewGenotype[G Gene[G]](chromosomes ...Chromosome[G]) (Genotype[G], error) {
	if len(chromosomes) == 0 {
		return Genotype[G]{}, fmt.Errorf("genotype must contain at least one chromosome")
	}
	for i, ch := range chromosomes {
		if ch == nil {
			return Genotype[G]{}, fmt.Errorf("chromosome %d is nil", i)
		}
	}
	return newGenotype(append([]Chromosome[G](nil), chromosomes...)), nil
}

func newGenotype[G Gene[G]](chromosomes []Chromosome[G]) Genotype[G] {
	gt := Genotype[G]{chromosomes: chromosomes}
	gt.valid = sync.OnceValue(func() bool {
		for _, ch := range chromosomes {
			if !ch.IsValid() {
				return false
			}
		}
		return true
	})
	return gt
}

func (g Genotype[G]) Len() int { return len(g.chromosomes) }

func (g Genotype[G]) Chromosome(i int) Chromosome[G] { return g.chromosomes[i] }

func (g Genotype[G]) Chromosomes() []Chromosome[G] {
	return append([]Chromosome[G](nil), g.chromosomes...)
}

// Gene returns the first gene of the first chromosome.
func (g Genotype[G]) Gene() G { return g.chromosomes[0].Gene(0) }

func (g Genotype[G]) GeneCount() int {
	n := 0
	for _, ch := range g.chromosomes {
		n += ch.Len()
	}
	return n
}

func (g Genotype[G]) NewInstance(rng *rand.Rand) Genotype[G] {
	chromosomes := make([]Chromosome[G], len(g.chromosomes))
	for i, ch := range g.chromosomes {
		chromosomes[i] = ch.NewInstance(rng)
	}
	return newGenotype(chromosomes)
}

// WithChromosomes takes ownership of chromosomes, which must keep the
// structure of g.
func (g Genotype[G]) WithChromosomes(chromosomes []Chromosome[G]) Genotype[G] {
	return newGenotype(chromosomes)
}

func (g Genotype[G]) IsValid() bool {
	if g.valid == nil {
		return false
	}
	return g.valid()
}

func (g Genotype[G]) String() string {
	parts := make([]string, len(g.chromosomes))
	for i, ch := range g.chromosomes {
		parts[i] = fmt.Sprint(ch)
	}
	return strings.Join(parts, " ")
}
