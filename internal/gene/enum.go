package gene

import (
	"fmt"
	"math/rand"

	"galapagos/internal/genetic"
)

type alleleSeq[A comparable] struct {
	values []A
}

// Enum is a gene holding an index into a shared, immutable allele list.
// Genes over the same list compare equal iff their indices are equal.
type Enum[A comparable] struct {
	index   int
	alleles *alleleSeq[A]
}

func (g Enum[A]) Allele() A { return g.alleles.values[g.index] }

func (g Enum[A]) AlleleIndex() int { return g.index }

func (g Enum[A]) IsValid() bool {
	return g.alleles != nil && g.index >= 0 && g.index < len(g.alleles.values)
}

func (g Enum[A]) NewInstance(rng *rand.Rand) Enum[A] {
	return Enum[A]{index: rng.Intn(len(g.alleles.values)), alleles: g.alleles}
}

func (g Enum[A]) WithAlleleIndex(i int) Enum[A] { return Enum[A]{index: i, alleles: g.alleles} }

func (g Enum[A]) String() string {
	if !g.IsValid() {
		return fmt.Sprintf("#%d", g.index)
	}
	return fmt.Sprint(g.Allele())
}

// PermutationChromosome is a chromosome of enum genes in which every allele
// index appears exactly once.
type PermutationChromosome[A comparable] struct {
	*genetic.ArrayChromosome[Enum[A]]
	alleles *alleleSeq[A]
}

// NewPermutationChromosome creates a random permutation of alleles.
func NewPermutationChromosome[A comparable](rng *rand.Rand, alleles []A) (*PermutationChromosome[A], error) {
	if len(alleles) == 0 {
		return nil, fmt.Errorf("permutation alleles must not be empty")
	}
	seen := make(map[A]struct{}, len(alleles))
	for _, a := range alleles {
		if _, ok := seen[a]; ok {
			return nil, fmt.Errorf("duplicate permutation allele: %v", a)
		}
		seen[a] = struct{}{}
	}
	seq := &alleleSeq[A]{values: append([]A(nil), alleles...)}
	return newPermutation(seq, rng.Perm(len(alleles))), nil
}

// PermutationOf builds a chromosome with the given allele index order.
func PermutationOf[A comparable](template *PermutationChromosome[A], order []int) *PermutationChromosome[A] {
	return newPermutation(template.alleles, order)
}

func newPermutation[A comparable](seq *alleleSeq[A], order []int) *PermutationChromosome[A] {
	genes := make([]Enum[A], len(order))
	for i, idx := range order {
		genes[i] = Enum[A]{index: idx, alleles: seq}
	}
	return wrapPermutation(seq, genes)
}

func wrapPermutation[A comparable](seq *alleleSeq[A], genes []Enum[A]) *PermutationChromosome[A] {
	inner, err := genetic.NewCheckedChromosome(genes, isPermutation[A])
	if err != nil {
		panic(fmt.Sprintf("permutation chromosome: %v", err))
	}
	return &PermutationChromosome[A]{ArrayChromosome: inner, alleles: seq}
}

func isPermutation[A comparable](genes []Enum[A]) bool {
	if len(genes) == 0 {
		return false
	}
	seen := make([]bool, len(genes[0].alleles.values))
	if len(seen) != len(genes) {
		return false
	}
	for _, g := range genes {
		if g.alleles != genes[0].alleles || seen[g.index] {
			return false
		}
		seen[g.index] = true
	}
	return true
}

func (c *PermutationChromosome[A]) NewInstance(rng *rand.Rand) genetic.Chromosome[Enum[A]] {
	return newPermutation(c.alleles, rng.Perm(len(c.alleles.values)))
}

// WithGenes panics if genes is empty.
func (c *PermutationChromosome[A]) WithGenes(genes []Enum[A]) genetic.Chromosome[Enum[A]] {
	return wrapPermutation(c.alleles, genes)
}

// AllelesOf returns the allele values of any enum chromosome.
func AllelesOf[A comparable](ch genetic.Chromosome[Enum[A]]) []A {
	out := make([]A, ch.Len())
	for i := range out {
		out[i] = ch.Gene(i).Allele()
	}
	return out
}
