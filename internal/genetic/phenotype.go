package genetic

import (
	"cmp"
	"fmt"
	"sync"
	"sync/atomic"
)

type FitnessFunc[G Gene[G], C cmp.Ordered] func(Genotype[G]) C

type Scaler[C cmp.Ordered] func(C) C

func Identity[C cmp.Ordered](c C) C { return c }

// Phenotype binds a genotype to its birth generation and a lazily computed
// fitness. Raw and scaled fitness are each computed at most once; concurrent
// callers wait for the first computation.
type Phenotype[G Gene[G], C cmp.Ordered] struct {
	genotype   Genotype[G]
	generation int
	function   FitnessFunc[G, C]
	scaler     Scaler[C]

	evaluated atomic.Bool
	raw       func() C
	fitness   func() C
}

func NewPhenotype[G Gene[G], C cmp.Ordered](
	genotype Genotype[G],
	generation int,
	function FitnessFunc[G, C],
	scaler Scaler[C],
) (*Phenotype[G, C], error) {
	if genotype.Len() == 0 {
		return nil, fmt.Errorf("genotype is required")
	}
	if generation < 0 {
		return nil, fmt.Errorf("generation must be >= 0: %d", generation)
	}
	if function == nil {
		return nil, fmt.Errorf("fitness function is required")
	}
	return newPhenotype(genotype, generation, function, scaler), nil
}

func newPhenotype[G Gene[G], C cmp.Ordered](
	genotype Genotype[G],
	generation int,
	function FitnessFunc[G, C],
	scaler Scaler[C],
) *Phenotype[G, C] {
	if scaler == nil {
		scaler = Identity[C]
	}
	p := &Phenotype[G, C]{
		genotype:   genotype,
		generation: generation,
		function:   function,
		scaler:     scaler,
	}
	p.raw = sync.OnceValue(func() C {
		return p.function(p.genotype)
	})
	p.fitness = sync.OnceValue(func() C {
		c := p.scaler(p.raw())
		p.evaluated.Store(true)
		return c
	})
	return p
}

func (p *Phenotype[G, C]) Genotype() Genotype[G] { return p.genotype }

func (p *Phenotype[G, C]) Generation() int { return p.generation }

// Age is the number of generations since birth.
func (p *Phenotype[G, C]) Age(current int) int { return current - p.generation }

func (p *Phenotype[G, C]) RawFitness() C { return p.raw() }

func (p *Phenotype[G, C]) Fitness() C { return p.fitness() }

// Evaluate forces the fitness computation and returns p.
func (p *Phenotype[G, C]) Evaluate() *Phenotype[G, C] {
	p.fitness()
	return p
}

func (p *Phenotype[G, C]) IsEvaluated() bool { return p.evaluated.Load() }

func (p *Phenotype[G, C]) IsValid() bool { return p.genotype.IsValid() }

func (p *Phenotype[G, C]) FitnessFunc() FitnessFunc[G, C] { return p.function }

func (p *Phenotype[G, C]) Scaler() Scaler[C] { return p.scaler }

// WithGenotype creates an unevaluated phenotype sharing p's fitness function
// and scaler.
func (p *Phenotype[G, C]) WithGenotype(genotype Genotype[G], generation int) *Phenotype[G, C] {
	return newPhenotype(genotype, generation, p.function, p.scaler)
}

// Rebind creates an unevaluated phenotype for the same genotype under a
// different generation, fitness function and scaler.
func (p *Phenotype[G, C]) Rebind(generation int, function FitnessFunc[G, C], scaler Scaler[C]) *Phenotype[G, C] {
	return newPhenotype(p.genotype, generation, function, scaler)
}

func (p *Phenotype[G, C]) String() string {
	if !p.IsEvaluated() {
		return fmt.Sprintf("%v --> ?", p.genotype)
	}
	return fmt.Sprintf("%v --> %v", p.genotype, p.Fitness())
}
