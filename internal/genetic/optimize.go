package genetic

import (
	"cmp"
	"fmt"
	"strings"

	"golang.org/x/exp/constraints"
)

// Number is satisfied by fitness types that can be converted to float64
// for probability weighting and moment statistics.
type Number interface {
	constraints.Integer | constraints.Float
}

// Optimize is the optimization direction. The zero value maximizes.
type Optimize int

const (
	Maximum Optimize = iota
	Minimum
)

func (o Optimize) String() string {
	switch o {
	case Maximum:
		return "maximum"
	case Minimum:
		return "minimum"
	default:
		return fmt.Sprintf("optimize(%d)", int(o))
	}
}

func ParseOptimize(s string) (Optimize, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "max", "maximum", "maximize":
		return Maximum, nil
	case "min", "minimum", "minimize":
		return Minimum, nil
	default:
		return Maximum, fmt.Errorf("unsupported optimize direction: %q", s)
	}
}

// Compare returns a positive value if a is better than b under o, a negative
// value if it is worse and zero if both are equally good.
func Compare[C cmp.Ordered](o Optimize, a, b C) int {
	if o == Minimum {
		return cmp.Compare(b, a)
	}
	return cmp.Compare(a, b)
}

func Best[C cmp.Ordered](o Optimize, a, b C) C {
	if Compare(o, b, a) > 0 {
		return b
	}
	return a
}

func Worst[C cmp.Ordered](o Optimize, a, b C) C {
	if Compare(o, b, a) < 0 {
		return b
	}
	return a
}

// BestFirst orders phenotypes by descending fitness quality.
func BestFirst[G Gene[G], C cmp.Ordered](o Optimize) func(a, b *Phenotype[G, C]) int {
	return func(a, b *Phenotype[G, C]) int {
		return Compare(o, b.Fitness(), a.Fitness())
	}
}
