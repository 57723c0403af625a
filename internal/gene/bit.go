package gene

import (
	"fmt"
	"math/rand"

	"galapagos/internal/genetic"
)

// Bit is a gene with the alleles false and true.
type Bit bool

func (b Bit) IsValid() bool { return true }

func (b Bit) NewInstance(rng *rand.Rand) Bit { return Bit(rng.Intn(2) == 1) }

func (b Bit) String() string {
	if b {
		return "1"
	}
	return "0"
}

// NewBitChromosome creates length bits, each set with probability ones.
func NewBitChromosome(rng *rand.Rand, length int, ones float64) (*genetic.ArrayChromosome[Bit], error) {
	if length <= 0 {
		return nil, fmt.Errorf("bit chromosome length must be > 0: %d", length)
	}
	if ones < 0 || ones > 1 {
		return nil, fmt.Errorf("ones probability must be in [0,1]: %v", ones)
	}
	genes := make([]Bit, length)
	for i := range genes {
		genes[i] = Bit(rng.Float64() < ones)
	}
	return genetic.NewChromosome(genes)
}

// CountOnes sums the set bits over all chromosomes.
func CountOnes(gt genetic.Genotype[Bit]) int {
	n := 0
	for _, ch := range gt.Chromosomes() {
		for i := range ch.Len() {
			if ch.Gene(i) {
				n++
			}
		}
	}
	return n
}
