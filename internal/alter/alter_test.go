package alter

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galapagos/internal/gene"
	"galapagos/internal/genetic"
)

func isPermutation(values []int) bool {
	seen := make([]bool, len(values))
	for _, v := range values {
		if v < 0 || v >= len(values) || seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}

func TestPartiallyMatchedKeepsPermutations(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	for trial := range 2000 {
		length := 2 + rng.Intn(40)
		that, other := rng.Perm(length), rng.Perm(length)

		var begin, end int
		switch trial % 4 {
		case 0:
			begin, end = 0, length
		case 1:
			begin, end = 0, 1+rng.Intn(length)
		case 2:
			begin, end = rng.Intn(length), length
		default:
			cut := subset(rng, length+1, 2)
			begin, end = cut[0], cut[1]
		}

		origThat, origOther := slices.Clone(that), slices.Clone(other)
		partiallyMatched(that, other, begin, end)
		require.True(t, isPermutation(that), "that=%v begin=%d end=%d", that, begin, end)
		require.True(t, isPermutation(other), "other=%v begin=%d end=%d", other, begin, end)
		require.Equal(t, origOther[begin:end], that[begin:end])
		require.Equal(t, origThat[begin:end], other[begin:end])
	}
}

func TestPartiallyMatchedTerminatesOnRepeatedAlleles(t *testing.T) {
	that, other := []int{1, 1}, []int{0, 1}
	partiallyMatched(that, other, 1, 2)
	assert.Equal(t, []int{1, 1}, that)
	assert.Equal(t, []int{0, 1}, other)

	rng := rand.New(rand.NewSource(29))
	for range 500 {
		length := 2 + rng.Intn(10)
		that, other := make([]int, length), make([]int, length)
		for i := range length {
			that[i], other[i] = rng.Intn(3), rng.Intn(3)
		}
		cut := subset(rng, length+1, 2)
		partiallyMatched(that, other, cut[0], cut[1])
	}
}

func TestPartiallyMatchedCrossoverOnPopulation(t *testing.T) {
	rng := rand.New(rand.NewSource(23))
	cities := make([]int, 12)
	for i := range cities {
		cities[i] = i
	}
	template, err := gene.NewPermutationChromosome(rng, cities)
	require.NoError(t, err)
	gt, err := genetic.NewGenotype[gene.Enum[int]](template)
	require.NoError(t, err)

	pop := genetic.NewPopulation[gene.Enum[int], int](20)
	for range 20 {
		pt, err := genetic.NewPhenotype(gt.NewInstance(rng), 1, func(genetic.Genotype[gene.Enum[int]]) int { return 0 }, nil)
		require.NoError(t, err)
		pop.Add(pt)
	}

	pmx, err := NewPartiallyMatchedCrossover[gene.Enum[int], int](1)
	require.NoError(t, err)
	for generation := 2; generation < 20; generation++ {
		pmx.Alter(rng, pop, generation)
		for i := range pop.Len() {
			require.True(t, pop.Get(i).IsValid(), "phenotype %d: %v", i, pop.Get(i))
		}
	}
}

func floatGenes(t *testing.T, lo, hi float64, values ...float64) []gene.Float64 {
	t.Helper()
	proto, err := gene.NewFloat64(lo, lo, hi)
	require.NoError(t, err)
	out := make([]gene.Float64, len(values))
	for i, v := range values {
		out[i] = proto.WithValue(v)
	}
	return out
}

func values(genes []gene.Float64) []float64 {
	out := make([]float64, len(genes))
	for i, g := range genes {
		out[i] = g.Value()
	}
	return out
}

func TestLineCombineAcceptsOnlyIfBothInRange(t *testing.T) {
	that := floatGenes(t, 0, 10, 2, 9)
	other := floatGenes(t, 0, 10, 4, 1)

	altered := lineCombine(1.5, 1.5, that, other)
	assert.Equal(t, 2, altered)
	// position 0: t = 1.5*2 - 0.5*4 = 1, s = 1.5*4 - 0.5*2 = 5
	// position 1: t = 13 is out of range, so neither value changes.
	assert.InDeltaSlice(t, []float64{1, 9}, values(that), 1e-12)
	assert.InDeltaSlice(t, []float64{5, 1}, values(other), 1e-12)
}

func TestLineCombineRejectsSingleCandidateOutsideBounds(t *testing.T) {
	that := floatGenes(t, 0, 10, 9.9)
	other := floatGenes(t, 0, 10, 1)

	// t = 0.5*9.9 + 0.5*1 = 5.45 is inside, s = -0.05*1 + 1.05*9.9 = 10.345
	// is just outside.
	assert.Zero(t, lineCombine(0.5, -0.05, that, other))
	assert.Equal(t, []float64{9.9}, values(that))
	assert.Equal(t, []float64{1}, values(other))

	// upper bound is exclusive
	that = floatGenes(t, 0, 10, 10, 5)
	other = floatGenes(t, 0, 10, 5, 5)
	assert.Equal(t, 2, lineCombine(1, 1, that[1:], other[1:]))
	assert.Zero(t, lineCombine(1, 1, that[:1], other[:1]))
}

func TestIntermediateCrossoverStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	strategy := Intermediate[gene.Float64]{Extent: 0.25}
	for range 500 {
		that := floatGenes(t, -1, 1, rng.Float64()*2-1, rng.Float64()*2-1, -1)
		other := floatGenes(t, -1, 1, rng.Float64()*2-1, rng.Float64()*2-1, 0.999)
		strategy.Crossover(rng, that, other)
		for _, g := range append(that, other...) {
			require.True(t, g.IsValid(), "value %v", g.Value())
		}
	}
}

func bitPopulation(t *testing.T, rng *rand.Rand, individuals, chromosomes, length int) *genetic.Population[gene.Bit, int] {
	t.Helper()
	pop := genetic.NewPopulation[gene.Bit, int](individuals)
	for range individuals {
		chs := make([]genetic.Chromosome[gene.Bit], chromosomes)
		for i := range chs {
			ch, err := gene.NewBitChromosome(rng, length, 0.5)
			require.NoError(t, err)
			chs[i] = ch
		}
		gt, err := genetic.NewGenotype(chs...)
		require.NoError(t, err)
		pt, err := genetic.NewPhenotype(gt, 0, gene.CountOnes, nil)
		require.NoError(t, err)
		pop.Add(pt)
	}
	return pop
}

func TestMutatorGeneFractionTracksProbability(t *testing.T) {
	rng := rand.New(rand.NewSource(41))
	const individuals, chromosomes, length, passes = 2000, 3, 10, 5
	for _, p := range []float64{0.05, 0.2, 0.5} {
		mutator, err := NewMutator[gene.Bit, int](p)
		require.NoError(t, err)
		pop := bitPopulation(t, rng, individuals, chromosomes, length)

		total := 0
		for pass := range passes {
			total += mutator.Alter(rng, pop, pass+1)
		}
		fraction := float64(total) / float64(passes*individuals*chromosomes*length)
		assert.InDelta(t, p, fraction, 0.01, "p=%v", p)
	}
}

func TestMutatorExtremes(t *testing.T) {
	rng := rand.New(rand.NewSource(43))
	pop := bitPopulation(t, rng, 10, 2, 5)
	before := pop.Phenotypes()

	none, err := NewMutator[gene.Bit, int](0)
	require.NoError(t, err)
	assert.Zero(t, none.Alter(rng, pop, 3))
	assert.Equal(t, before, pop.Phenotypes())

	all, err := NewMutator[gene.Bit, int](1)
	require.NoError(t, err)
	assert.Equal(t, 100, all.Alter(rng, pop, 3))
	for i := range pop.Len() {
		assert.Equal(t, 3, pop.Get(i).Generation())
	}

	_, err = NewMutator[gene.Bit, int](1.5)
	require.Error(t, err)
}

func TestSwapAndShiftKeepPermutations(t *testing.T) {
	rng := rand.New(rand.NewSource(47))
	for range 500 {
		genes := rng.Perm(1 + rng.Intn(30))
		digits := make([]digit, len(genes))
		for i, g := range genes {
			digits[i] = digit(g)
		}
		Swap[digit]{}.Mutate(rng, digits, 0.3)
		Shift[digit]{}.Mutate(rng, digits, 1)
		for i, d := range digits {
			genes[i] = int(d)
		}
		require.True(t, isPermutation(genes), "%v", genes)
	}
}

func TestShiftMovesRange(t *testing.T) {
	genes := []int{0, 1, 2, 3, 4, 5}
	shift(genes, 1, 3, 5)
	assert.Equal(t, []int{0, 3, 4, 1, 2, 5}, genes)
}

func TestGaussianKeepsGenesValid(t *testing.T) {
	rng := rand.New(rand.NewSource(53))
	genes := floatGenes(t, 0, 1, 0, 0.5, 0.99, 0.999999)
	for range 1000 {
		Gaussian[gene.Float64]{}.Mutate(rng, genes, 1)
		for _, g := range genes {
			require.True(t, g.IsValid(), "value %v", g.Value())
		}
	}
}

func TestMultiPointPreservesColumns(t *testing.T) {
	rng := rand.New(rand.NewSource(59))
	for _, points := range []int{1, 2, 3, 10} {
		that := []int{0, 1, 2, 3, 4, 5, 6, 7}
		other := []int{10, 11, 12, 13, 14, 15, 16, 17}
		altered := MultiPoint[int]{Points: points}.Crossover(rng, that, other)
		swapped := 0
		for i := range that {
			pair := []int{that[i], other[i]}
			slices.Sort(pair)
			require.Equal(t, []int{i, i + 10}, pair)
			if that[i] >= 10 {
				swapped++
			}
		}
		assert.Equal(t, 2*swapped, altered)
	}
}

func TestUniformCrossover(t *testing.T) {
	rng := rand.New(rand.NewSource(61))
	that, other := make([]int, 1000), make([]int, 1000)
	for i := range other {
		other[i] = 1
	}
	altered := Uniform[int]{SwapProbability: 0.3}.Crossover(rng, that, other)
	ones := 0
	for _, v := range that {
		ones += v
	}
	assert.Equal(t, 2*ones, altered)
	assert.InDelta(t, 300, ones, 60)
}

func TestMeanAltererChangesFirstOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(67))
	fitness := func(gt genetic.Genotype[gene.Float64]) float64 { return gt.Gene().Value() }
	pop := genetic.NewPopulation[gene.Float64, float64](2)
	for _, v := range []float64{2, 4} {
		ch, err := genetic.NewChromosome(floatGenes(t, 0, 10, v, v+1))
		require.NoError(t, err)
		gt, err := genetic.NewGenotype[gene.Float64](ch)
		require.NoError(t, err)
		pt, err := genetic.NewPhenotype(gt, 1, fitness, nil)
		require.NoError(t, err)
		pop.Add(pt)
	}
	second := pop.Get(1)

	altered := meanRecombiner[gene.Float64, float64]{}.Recombine(rng, pop, []int{0, 1}, 5)
	assert.Equal(t, 1, altered)
	assert.Same(t, second, pop.Get(1))
	assert.Equal(t, 5, pop.Get(0).Generation())
	assert.Equal(t, []float64{3, 4}, values(pop.Get(0).Genotype().Chromosome(0).Genes()))
}

func TestRecombinatorPicksDistinctPartners(t *testing.T) {
	rng := rand.New(rand.NewSource(71))
	for range 200 {
		n := 2 + rng.Intn(10)
		order := 2 + rng.Intn(n-1)
		first := rng.Intn(n)
		idx := partners(rng, n, order, first)
		require.Len(t, idx, order)
		require.Equal(t, first, idx[0])
		sorted := slices.Clone(idx)
		slices.Sort(sorted)
		require.Len(t, slices.Compact(sorted), order)
	}
}

func TestCrossoverReplacesBothParents(t *testing.T) {
	rng := rand.New(rand.NewSource(73))
	pop := bitPopulation(t, rng, 2, 1, 16)
	crossover, err := NewUniformCrossover[gene.Bit, int](1, 1)
	require.NoError(t, err)
	first, second := pop.Get(0).Genotype(), pop.Get(1).Genotype()

	assert.Positive(t, crossover.Alter(rng, pop, 9))
	assert.Equal(t, 9, pop.Get(0).Generation())
	assert.Equal(t, 9, pop.Get(1).Generation())
	// Two full swaps restore both parents in place.
	assert.Equal(t, first.String(), pop.Get(0).Genotype().String())
	assert.Equal(t, second.String(), pop.Get(1).Genotype().String())
}

func TestCompositeFlattensAndSums(t *testing.T) {
	rng := rand.New(rand.NewSource(79))
	m1, err := NewMutator[gene.Bit, int](1)
	require.NoError(t, err)
	m2, err := NewMutator[gene.Bit, int](1)
	require.NoError(t, err)
	inner := NewComposite[gene.Bit, int](m1, nil)
	outer := NewComposite[gene.Bit, int](inner, m2)
	assert.Len(t, outer.Alterers(), 2)

	pop := bitPopulation(t, rng, 4, 1, 5)
	assert.Equal(t, 40, outer.Alter(rng, pop, 2))
}

func TestIndexes(t *testing.T) {
	rng := rand.New(rand.NewSource(83))
	assert.Empty(t, slices.Collect(Indexes(rng, 10, 0)))
	assert.Equal(t, []int{0, 1, 2, 3}, slices.Collect(Indexes(rng, 4, 1)))
}

func TestConstructorValidation(t *testing.T) {
	_, err := NewMultiPointCrossover[gene.Bit, int](0.5, 0)
	require.Error(t, err)
	_, err = NewUniformCrossover[gene.Bit, int](0.5, -0.1)
	require.Error(t, err)
	_, err = NewLineCrossover[gene.Float64, float64](0.5, -1)
	require.Error(t, err)
	_, err = NewRecombinator[gene.Bit, int](2, NewCrossover[gene.Bit, int](MultiPoint[gene.Bit]{Points: 1}))
	require.Error(t, err)
	_, err = NewMutatorWith[gene.Bit, int](0.5, nil)
	require.Error(t, err)
}

type digit int

func (d digit) IsValid() bool { return true }

func (d digit) NewInstance(rng *rand.Rand) digit { return digit(rng.Intn(10)) }
