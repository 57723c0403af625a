package gene

import (
	"fmt"
	"math/rand"
	"slices"
	"strings"

	"galapagos/internal/genetic"
)

const DefaultCharacters = " !\"$%&/()=?`{[]}\\+~*#';.:,-_<>|@^'" +
	"0123456789" +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz"

type charSet struct {
	runes []rune
}

func newCharSet(chars string) (*charSet, error) {
	runes := []rune(chars)
	slices.Sort(runes)
	runes = slices.Compact(runes)
	if len(runes) == 0 {
		return nil, fmt.Errorf("character set must not be empty")
	}
	return &charSet{runes: runes}, nil
}

func (s *charSet) contains(r rune) bool {
	_, ok := slices.BinarySearch(s.runes, r)
	return ok
}

// Character is a gene whose allele is drawn from a fixed character set.
type Character struct {
	value rune
	set   *charSet
}

func (g Character) Value() rune { return g.value }

func (g Character) IsValid() bool { return g.set != nil && g.set.contains(g.value) }

func (g Character) NewInstance(rng *rand.Rand) Character {
	return Character{value: g.set.runes[rng.Intn(len(g.set.runes))], set: g.set}
}

func (g Character) WithValue(r rune) Character { return Character{value: r, set: g.set} }

func (g Character) String() string { return string(g.value) }

// NewCharacterChromosome creates length random characters from chars, or
// from DefaultCharacters when chars is empty.
func NewCharacterChromosome(rng *rand.Rand, chars string, length int) (*genetic.ArrayChromosome[Character], error) {
	if length <= 0 {
		return nil, fmt.Errorf("character chromosome length must be > 0: %d", length)
	}
	if chars == "" {
		chars = DefaultCharacters
	}
	set, err := newCharSet(chars)
	if err != nil {
		return nil, err
	}
	proto := Character{set: set}
	genes := make([]Character, length)
	for i := range genes {
		genes[i] = proto.NewInstance(rng)
	}
	return genetic.NewChromosome(genes)
}

func CharactersOf(ch genetic.Chromosome[Character]) string {
	var b strings.Builder
	for i := range ch.Len() {
		b.WriteRune(ch.Gene(i).value)
	}
	return b.String()
}
