package problem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"galapagos/internal/config"
	"galapagos/internal/genetic"
	"galapagos/internal/model"
)

var (
	ErrProblemExists   = errors.New("problem already registered")
	ErrProblemNotFound = errors.New("problem not found")
)

// Problem evolves solutions for one fitness landscape configured by a
// config.Config.
type Problem interface {
	Name() string
	Description() string
	// DefaultAlterers is used when the config lists no alterers.
	DefaultAlterers() []config.AltererConfig
	Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error)
}

// Result is the outcome of one run.
type Result struct {
	Problem        string
	Optimize       genetic.Optimize
	Generations    []model.GenerationRecord
	BestFitness    float64
	BestGeneration int
	BestGenotype   string
	Killed         int
	Invalid        int
}

// Registry maps names to problems. The zero value is not usable; use
// NewRegistry.
type Registry struct {
	mu sync.RWMutex
	m  map[string]Problem
}

func NewRegistry() *Registry {
	return &Registry{m: make(map[string]Problem)}
}

func (r *Registry) Register(p Problem) error {
	if p == nil {
		return errors.New("problem is required")
	}
	if p.Name() == "" {
		return errors.New("problem name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.m[p.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrProblemExists, p.Name())
	}
	r.m[p.Name()] = p
	return nil
}

func (r *Registry) Lookup(name string) (Problem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.m[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProblemNotFound, name)
	}
	return p, nil
}

// Names returns the registered problem names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.m))
	for name := range r.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var builtin = NewRegistry()

func init() {
	for _, p := range []Problem{OneMax(), Phrase(), TSP(), Rastrigin()} {
		if err := builtin.Register(p); err != nil {
			panic(err)
		}
	}
}

// Register adds p to the process-wide registry.
func Register(p Problem) error { return builtin.Register(p) }

func Lookup(name string) (Problem, error) { return builtin.Lookup(name) }

func Names() []string { return builtin.Names() }
