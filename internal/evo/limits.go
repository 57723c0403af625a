package evo

import (
	"cmp"
	"time"

	"galapagos/internal/genetic"
)

// Predicate decides, from the latest statistics, whether evolution should
// continue. Predicates returned by BySteadyFitness and ByExecutionTime keep
// state and must not be shared between runs.
type Predicate[G genetic.Gene[G], C cmp.Ordered] func(*Statistics[G, C]) bool

// ByGeneration continues until the generation counter reaches generation.
func ByGeneration[G genetic.Gene[G], C cmp.Ordered](generation int) Predicate[G, C] {
	return func(s *Statistics[G, C]) bool {
		return s.Generation < generation
	}
}

// BySteadyFitness continues while the best fitness improved within the last
// generations generations.
func BySteadyFitness[G genetic.Gene[G], C cmp.Ordered](generations int) Predicate[G, C] {
	var (
		best   C
		seen   bool
		steady int
	)
	return func(s *Statistics[G, C]) bool {
		f := s.BestFitness()
		if !seen || genetic.Compare(s.Optimize, f, best) > 0 {
			best, seen, steady = f, true, 0
			return true
		}
		steady++
		return steady < generations
	}
}

// ByFitnessThreshold continues until the best fitness reaches threshold.
func ByFitnessThreshold[G genetic.Gene[G], C cmp.Ordered](threshold C) Predicate[G, C] {
	return func(s *Statistics[G, C]) bool {
		return genetic.Compare(s.Optimize, s.BestFitness(), threshold) < 0
	}
}

// ByExecutionTime continues until d has passed since its first call.
func ByExecutionTime[G genetic.Gene[G], C cmp.Ordered](d time.Duration) Predicate[G, C] {
	var start time.Time
	return func(*Statistics[G, C]) bool {
		if start.IsZero() {
			start = time.Now()
		}
		return time.Since(start) < d
	}
}

// All continues while every predicate does. Each predicate sees every
// snapshot.
func All[G genetic.Gene[G], C cmp.Ordered](predicates ...Predicate[G, C]) Predicate[G, C] {
	return func(s *Statistics[G, C]) bool {
		ok := true
		for _, p := range predicates {
			if !p(s) {
				ok = false
			}
		}
		return ok
	}
}
