package gene

import (
	"fmt"
	"math"
	"math/rand"
	"strconv"

	"galapagos/internal/genetic"
)

// Float64 is a float gene with alleles in [min, max).
type Float64 struct {
	value, min, max float64
}

func NewFloat64(value, lo, hi float64) (Float64, error) {
	if !(lo < hi) {
		return Float64{}, fmt.Errorf("float64 gene bounds must satisfy min < max: [%v, %v)", lo, hi)
	}
	return Float64{value: value, min: lo, max: hi}, nil
}

func (g Float64) Value() float64 { return g.value }
func (g Float64) Float() float64 { return g.value }
func (g Float64) Min() float64   { return g.min }
func (g Float64) Max() float64   { return g.max }

func (g Float64) IsValid() bool {
	return !math.IsNaN(g.value) && g.value >= g.min && g.value < g.max
}

func (g Float64) NewInstance(rng *rand.Rand) Float64 {
	return Float64{value: g.min + rng.Float64()*(g.max-g.min), min: g.min, max: g.max}
}

// WithValue keeps the bounds; the result is invalid if v lies outside them.
func (g Float64) WithValue(v float64) Float64 {
	return Float64{value: v, min: g.min, max: g.max}
}

func (g Float64) WithFloat(v float64) Float64 { return g.WithValue(v) }

func (g Float64) Mean(other Float64) Float64 {
	return g.WithValue(g.value + (other.value-g.value)/2)
}

func (g Float64) String() string {
	return strconv.FormatFloat(g.value, 'g', 6, 64)
}

func NewFloat64Chromosome(rng *rand.Rand, lo, hi float64, length int) (*genetic.ArrayChromosome[Float64], error) {
	if length <= 0 {
		return nil, fmt.Errorf("float64 chromosome length must be > 0: %d", length)
	}
	proto, err := NewFloat64(lo, lo, hi)
	if err != nil {
		return nil, err
	}
	genes := make([]Float64, length)
	for i := range genes {
		genes[i] = proto.NewInstance(rng)
	}
	return genetic.NewChromosome(genes)
}

// Int64 is an integer gene with alleles in [min, max].
type Int64 struct {
	value, min, max int64
}

func NewInt64(value, lo, hi int64) (Int64, error) {
	if lo > hi {
		return Int64{}, fmt.Errorf("int64 gene bounds must satisfy min <= max: [%d, %d]", lo, hi)
	}
	return Int64{value: value, min: lo, max: hi}, nil
}

func (g Int64) Value() int64 { return g.value }

func (g Int64) IsValid() bool { return g.value >= g.min && g.value <= g.max }

func (g Int64) NewInstance(rng *rand.Rand) Int64 {
	span := uint64(g.max) - uint64(g.min)
	var offset uint64
	if span < math.MaxInt64 {
		offset = uint64(rng.Int63n(int64(span) + 1))
	} else {
		offset = rng.Uint64()
		for offset > span {
			offset = rng.Uint64()
		}
	}
	return Int64{value: int64(uint64(g.min) + offset), min: g.min, max: g.max}
}

func (g Int64) WithValue(v int64) Int64 { return Int64{value: v, min: g.min, max: g.max} }

func (g Int64) Float() float64 { return float64(g.value) }
func (g Int64) Min() float64   { return float64(g.min) }

// Max is exclusive for the numeric view so that [Min, Max) covers every
// valid allele.
func (g Int64) Max() float64 { return float64(g.max) + 1 }

func (g Int64) WithFloat(v float64) Int64 { return g.WithValue(int64(math.Floor(v))) }

func (g Int64) Mean(other Int64) Int64 {
	return g.WithValue(g.value/2 + other.value/2 + (g.value%2+other.value%2)/2)
}

func (g Int64) String() string { return strconv.FormatInt(g.value, 10) }

func NewInt64Chromosome(rng *rand.Rand, lo, hi int64, length int) (*genetic.ArrayChromosome[Int64], error) {
	if length <= 0 {
		return nil, fmt.Errorf("int64 chromosome length must be > 0: %d", length)
	}
	proto, err := NewInt64(lo, lo, hi)
	if err != nil {
		return nil, err
	}
	genes := make([]Int64, length)
	for i := range genes {
		genes[i] = proto.NewInstance(rng)
	}
	return genetic.NewChromosome(genes)
}
