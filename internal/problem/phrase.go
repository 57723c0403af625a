package problem

import (
	"math/rand"

	"galapagos/internal/config"
	"galapagos/internal/gene"
	"galapagos/internal/genetic"
)

const defaultPhrase = "To be or not to be"

// Phrase evolves a character string towards a target phrase. Fitness is
// the number of matching positions.
func Phrase() Problem {
	return &definition[gene.Character, int]{
		name:        "phrase",
		description: "evolve a string towards a target phrase",
		optimize:    genetic.Maximum,
		alterers:    genericAlterers[gene.Character, int](),
		build: func(rng *rand.Rand, p config.ProblemConfig) (landscape[gene.Character, int], error) {
			target := []rune(p.Target)
			if len(target) == 0 {
				target = []rune(defaultPhrase)
			}
			ch, err := gene.NewCharacterChromosome(rng, gene.DefaultCharacters+string(target), len(target))
			if err != nil {
				return landscape[gene.Character, int]{}, err
			}
			gt, err := genetic.NewGenotype[gene.Character](ch)
			if err != nil {
				return landscape[gene.Character, int]{}, err
			}
			optimum := len(target)
			return landscape[gene.Character, int]{
				template: gt,
				fitness:  matching(target),
				optimum:  &optimum,
			}, nil
		},
	}
}

func matching(target []rune) genetic.FitnessFunc[gene.Character, int] {
	return func(gt genetic.Genotype[gene.Character]) int {
		ch := gt.Chromosome(0)
		n := 0
		for i := range min(ch.Len(), len(target)) {
			if ch.Gene(i).Value() == target[i] {
				n++
			}
		}
		return n
	}
}
