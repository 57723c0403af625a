package alter

import (
	"math/rand"

	"galapagos/internal/genetic"
)

// MultiPoint swaps the alternating spans between min(Points, length)
// distinct cut points. The last span runs to the end of the sequence.
type MultiPoint[G any] struct {
	Points int
}

func (m MultiPoint[G]) Crossover(rng *rand.Rand, that, other []G) int {
	length := min(len(that), len(other))
	if length == 0 {
		return 0
	}
	points := subset(rng, length, min(max(m.Points, 1), length))
	altered := 0
	for i := 0; i < len(points); i += 2 {
		end := length
		if i+1 < len(points) {
			end = points[i+1]
		}
		altered += swapRange(that, other, points[i], end)
	}
	return altered
}

func swapRange[G any](that, other []G, begin, end int) int {
	for i := begin; i < end; i++ {
		that[i], other[i] = other[i], that[i]
	}
	return 2 * (end - begin)
}

// Uniform swaps each position independently with SwapProbability.
type Uniform[G any] struct {
	SwapProbability float64
}

func (u Uniform[G]) Crossover(rng *rand.Rand, that, other []G) int {
	altered := 0
	for i := range Indexes(rng, min(len(that), len(other)), u.SwapProbability) {
		that[i], other[i] = other[i], that[i]
		altered += 2
	}
	return altered
}

// PartiallyMatched is PMX for permutation encoded sequences over the same
// allele set: children stay permutations.
type PartiallyMatched[G comparable] struct{}

func (PartiallyMatched[G]) Crossover(rng *rand.Rand, that, other []G) int {
	length := min(len(that), len(other))
	if length < 2 {
		return 0
	}
	cut := subset(rng, length+1, 2)
	return partiallyMatched(that, other, cut[0], cut[1])
}

func partiallyMatched[G comparable](that, other []G, begin, end int) int {
	altered := swapRange(that, other, begin, end)
	repair(that, other, begin, end)
	repair(other, that, begin, end)
	return altered
}

// repair resolves duplicates outside [begin, end) by following the mapping
// between the two swapped segments. A mapping chain of permutations is at
// most end-begin long; inputs that are not permutations stop there and may
// keep duplicates.
func repair[G comparable](that, other []G, begin, end int) {
	fix := func(i int) {
		for range end - begin {
			idx := indexIn(that, that[i], begin, end)
			if idx == -1 {
				return
			}
			that[i] = other[idx]
		}
	}
	for i := 0; i < begin; i++ {
		fix(i)
	}
	for i := end; i < len(that); i++ {
		fix(i)
	}
}

func indexIn[G comparable](genes []G, g G, begin, end int) int {
	for i := begin; i < end; i++ {
		if genes[i] == g {
			return i
		}
	}
	return -1
}

// Line recombines numeric genes along the line through both parents, with
// one pair of factors drawn from [-Extent, 1+Extent] per sequence.
type Line[G genetic.NumericGene[G]] struct {
	Extent float64
}

func (l Line[G]) Crossover(rng *rand.Rand, that, other []G) int {
	a := uniformIn(rng, -l.Extent, 1+l.Extent)
	b := uniformIn(rng, -l.Extent, 1+l.Extent)
	return lineCombine(a, b, that, other)
}

// lineCombine updates a position only if both candidates are within the
// gene's [min, max); otherwise both parents keep their value.
func lineCombine[G genetic.NumericGene[G]](a, b float64, that, other []G) int {
	altered := 0
	for i := range min(len(that), len(other)) {
		v, w := that[i].Float(), other[i].Float()
		lo, hi := that[i].Min(), that[i].Max()
		t := a*v + (1-a)*w
		s := b*w + (1-b)*v
		if t >= lo && t < hi && s >= lo && s < hi {
			that[i] = that[i].WithFloat(t)
			other[i] = other[i].WithFloat(s)
			altered += 2
		}
	}
	return altered
}

const maxIntermediateDraws = 64

// Intermediate draws fresh factors from [-Extent, 1+Extent] for every
// position until the candidate lies in the gene's range.
type Intermediate[G genetic.NumericGene[G]] struct {
	Extent float64
}

func (m Intermediate[G]) Crossover(rng *rand.Rand, that, other []G) int {
	altered := 0
	for i := range min(len(that), len(other)) {
		v, w := that[i].Float(), other[i].Float()
		lo, hi := that[i].Min(), that[i].Max()
		t, tok := m.draw(rng, v, w, lo, hi)
		s, sok := m.draw(rng, w, v, lo, hi)
		if tok && sok {
			that[i] = that[i].WithFloat(t)
			other[i] = other[i].WithFloat(s)
			altered += 2
		}
	}
	return altered
}

func (m Intermediate[G]) draw(rng *rand.Rand, v, w, lo, hi float64) (float64, bool) {
	for range maxIntermediateDraws {
		a := uniformIn(rng, -m.Extent, 1+m.Extent)
		if t := a*v + (1-a)*w; t >= lo && t < hi {
			return t, true
		}
	}
	return 0, false
}

func uniformIn(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
