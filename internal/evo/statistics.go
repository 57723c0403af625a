package evo

import (
	"cmp"
	"math"
	"reflect"
	"time"

	"galapagos/internal/genetic"
	"galapagos/internal/stat"
)

// Durations records the wall time of each generation phase.
type Durations struct {
	Selection  time.Duration
	Alter      time.Duration
	Combine    time.Duration
	Evaluation time.Duration
	Statistics time.Duration
	Execution  time.Duration
}

func (d Durations) Add(other Durations) Durations {
	return Durations{
		Selection:  d.Selection + other.Selection,
		Alter:      d.Alter + other.Alter,
		Combine:    d.Combine + other.Combine,
		Evaluation: d.Evaluation + other.Evaluation,
		Statistics: d.Statistics + other.Statistics,
		Execution:  d.Execution + other.Execution,
	}
}

// Statistics is an immutable summary of one generation's population.
// Fitness moments are NaN when the fitness type is not numeric.
type Statistics[G genetic.Gene[G], C cmp.Ordered] struct {
	Optimize   genetic.Optimize
	Generation int
	Best       *genetic.Phenotype[G, C]
	Worst      *genetic.Phenotype[G, C]
	Samples    int

	AgeMean         float64
	AgeVariance     float64
	FitnessMean     float64
	FitnessVariance float64

	Killed  int
	Invalid int
	Altered int

	Durations Durations
}

func (s *Statistics[G, C]) BestFitness() C {
	var zero C
	if s == nil || s.Best == nil {
		return zero
	}
	return s.Best.Fitness()
}

func (s *Statistics[G, C]) WorstFitness() C {
	var zero C
	if s == nil || s.Worst == nil {
		return zero
	}
	return s.Worst.Fitness()
}

// Calculate summarises population as of generation. Phenotypes are
// evaluated as needed.
func Calculate[G genetic.Gene[G], C cmp.Ordered](population *genetic.Population[G, C], generation int, opt genetic.Optimize) *Statistics[G, C] {
	s := &Statistics[G, C]{
		Optimize:        opt,
		Generation:      generation,
		Samples:         population.Len(),
		AgeMean:         math.NaN(),
		FitnessMean:     math.NaN(),
		FitnessVariance: math.NaN(),
	}
	if population.Len() == 0 {
		return s
	}

	ages := make([]float64, population.Len())
	fitness := make([]float64, population.Len())
	numeric := true
	for i := range population.Len() {
		pt := population.Get(i)
		f := pt.Fitness()
		if s.Best == nil || genetic.Compare(opt, f, s.Best.Fitness()) > 0 {
			s.Best = pt
		}
		if s.Worst == nil || genetic.Compare(opt, f, s.Worst.Fitness()) < 0 {
			s.Worst = pt
		}
		ages[i] = float64(pt.Age(generation))
		if v, ok := toFloat(f); ok {
			fitness[i] = v
		} else {
			numeric = false
		}
	}

	age := stat.Describe(ages)
	s.AgeMean, s.AgeVariance = age.Mean, age.Variance
	if numeric {
		m := stat.Describe(fitness)
		s.FitnessMean, s.FitnessVariance = m.Mean, m.Variance
	}
	return s
}

// toFloat converts integer and floating point fitness values.
func toFloat[C cmp.Ordered](c C) (float64, bool) {
	v := reflect.ValueOf(c)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(v.Uint()), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	default:
		return math.NaN(), false
	}
}
