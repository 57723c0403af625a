package problem

import (
	"fmt"

	"galapagos/internal/alter"
	"galapagos/internal/config"
	"galapagos/internal/genetic"
	"galapagos/internal/selection"
)

func buildSelector[G genetic.Gene[G], C genetic.Number](sc config.SelectorConfig, populationSize int) (selection.Selector[G, C], error) {
	switch sc.Kind {
	case config.SelectorTruncation:
		return selection.NewTruncation[G, C](), nil
	case config.SelectorTournament:
		s, err := selection.NewTournament[G, C](sc.SampleSize)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SelectorMonteCarlo:
		return selection.NewMonteCarlo[G, C](), nil
	case config.SelectorRouletteWheel:
		return selection.NewRouletteWheel[G, C](), nil
	case config.SelectorStochasticUniversal:
		return selection.NewStochasticUniversal[G, C](), nil
	case config.SelectorBoltzmann:
		s, err := selection.NewBoltzmann[G, C](sc.Beta)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SelectorLinearRank:
		s, err := selection.NewLinearRank[G, C](sc.NMinus)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.SelectorExponentialRank:
		c := sc.C
		if sc.BestShare > 0 {
			var err error
			if c, err = selection.ExponentialRankForBestShare(sc.BestShare, populationSize); err != nil {
				return nil, err
			}
		}
		s, err := selection.NewExponentialRank[G, C](c)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported selector kind: %q", sc.Kind)
	}
}

// standardAlterers are the defaults of problems whose genes tolerate any
// alterer.
var standardAlterers = []config.AltererConfig{
	{Kind: config.AltererSinglePointCrossover, Probability: 0.1},
	{Kind: config.AltererMutator, Probability: 0.05},
}

type altererBuilder[G genetic.Gene[G], C genetic.Number] func(config.AltererConfig) (alter.Alterer[G, C], error)

// wrap adapts a constructor returning a concrete alterer type.
func wrap[G genetic.Gene[G], C genetic.Number, A alter.Alterer[G, C]](build func(config.AltererConfig) (A, error)) altererBuilder[G, C] {
	return func(a config.AltererConfig) (alter.Alterer[G, C], error) {
		v, err := build(a)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

// genericAlterers are the kinds that work for every gene type.
func genericAlterers[G genetic.Gene[G], C genetic.Number]() map[string]altererBuilder[G, C] {
	return map[string]altererBuilder[G, C]{
		config.AltererMutator: wrap[G, C](func(a config.AltererConfig) (*alter.Mutator[G, C], error) {
			return alter.NewMutator[G, C](a.Probability)
		}),
		config.AltererSwapMutator:  swapMutator[G, C](),
		config.AltererShiftMutator: shiftMutator[G, C](),
		config.AltererSinglePointCrossover: wrap[G, C](func(a config.AltererConfig) (*alter.Recombinator[G, C], error) {
			return alter.NewSinglePointCrossover[G, C](a.Probability)
		}),
		config.AltererMultiPointCrossover: wrap[G, C](func(a config.AltererConfig) (*alter.Recombinator[G, C], error) {
			return alter.NewMultiPointCrossover[G, C](a.Probability, a.Points)
		}),
		config.AltererUniformCrossover: wrap[G, C](func(a config.AltererConfig) (*alter.Recombinator[G, C], error) {
			return alter.NewUniformCrossover[G, C](a.Probability, a.SwapProbability)
		}),
	}
}

func swapMutator[G genetic.Gene[G], C genetic.Number]() altererBuilder[G, C] {
	return wrap[G, C](func(a config.AltererConfig) (*alter.Mutator[G, C], error) {
		return alter.NewSwapMutator[G, C](a.Probability)
	})
}

func shiftMutator[G genetic.Gene[G], C genetic.Number]() altererBuilder[G, C] {
	return wrap[G, C](func(a config.AltererConfig) (*alter.Mutator[G, C], error) {
		return alter.NewShiftMutator[G, C](a.Probability)
	})
}

func numericAlterers[G interface {
	genetic.NumericGene[G]
	genetic.MeanGene[G]
}, C genetic.Number]() map[string]altererBuilder[G, C] {
	m := genericAlterers[G, C]()
	m[config.AltererGaussianMutator] = wrap[G, C](func(a config.AltererConfig) (*alter.Mutator[G, C], error) {
		return alter.NewGaussianMutator[G, C](a.Probability)
	})
	m[config.AltererLineCrossover] = wrap[G, C](func(a config.AltererConfig) (*alter.Recombinator[G, C], error) {
		return alter.NewLineCrossover[G, C](a.Probability, a.Extent)
	})
	m[config.AltererIntermediate] = wrap[G, C](func(a config.AltererConfig) (*alter.Recombinator[G, C], error) {
		return alter.NewIntermediateCrossover[G, C](a.Probability, a.Extent)
	})
	m[config.AltererMean] = wrap[G, C](func(a config.AltererConfig) (*alter.Recombinator[G, C], error) {
		return alter.NewMeanAlterer[G, C](a.Probability)
	})
	return m
}

func buildAlterer[G genetic.Gene[G], C genetic.Number](problem string, supported map[string]altererBuilder[G, C], configs []config.AltererConfig) (alter.Alterer[G, C], error) {
	alterers := make([]alter.Alterer[G, C], 0, len(configs))
	for i, a := range configs {
		build, ok := supported[a.Kind]
		if !ok {
			return nil, fmt.Errorf("alterer %d: kind %q is not supported by problem %s", i, a.Kind, problem)
		}
		v, err := build(a)
		if err != nil {
			return nil, fmt.Errorf("alterer %d (%s): %w", i, a.Kind, err)
		}
		alterers = append(alterers, v)
	}
	return alter.NewComposite[G, C](alterers...), nil
}
