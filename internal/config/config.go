package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Selector kinds.
const (
	SelectorTruncation          = "truncation"
	SelectorTournament          = "tournament"
	SelectorMonteCarlo          = "monte_carlo"
	SelectorRouletteWheel       = "roulette_wheel"
	SelectorStochasticUniversal = "stochastic_universal"
	SelectorBoltzmann           = "boltzmann"
	SelectorLinearRank          = "linear_rank"
	SelectorExponentialRank     = "exponential_rank"
)

// Alterer kinds.
const (
	AltererMutator              = "mutator"
	AltererSwapMutator          = "swap_mutator"
	AltererShiftMutator         = "shift_mutator"
	AltererGaussianMutator      = "gaussian_mutator"
	AltererSinglePointCrossover = "single_point_crossover"
	AltererMultiPointCrossover  = "multi_point_crossover"
	AltererUniformCrossover     = "uniform_crossover"
	AltererPMXCrossover         = "partially_matched_crossover"
	AltererLineCrossover        = "line_crossover"
	AltererIntermediate         = "intermediate_crossover"
	AltererMean                 = "mean_alterer"
)

type Config struct {
	Seed      int64           `yaml:"seed"`
	Problem   ProblemConfig   `yaml:"problem"`
	Engine    EngineConfig    `yaml:"engine"`
	Selection SelectionConfig `yaml:"selection"`
	// Alterers empty selects the default alterers of the problem.
	Alterers  []AltererConfig `yaml:"alterers" validate:"dive"`
	Store     StoreConfig     `yaml:"store"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ProblemConfig struct {
	Name string `yaml:"name"`
	// Size is the chromosome length, or the number of cities for tsp.
	Size   int    `yaml:"size" validate:"gte=0"`
	Target string `yaml:"target"`
}

type EngineConfig struct {
	PopulationSize      int     `yaml:"population_size" validate:"gte=1"`
	OffspringFraction   float64 `yaml:"offspring_fraction" validate:"gte=0,lte=1"`
	MaximalPhenotypeAge int     `yaml:"maximal_phenotype_age" validate:"gte=1"`
	Workers             int     `yaml:"workers" validate:"gte=1"`
	Generations         int     `yaml:"generations" validate:"gte=1"`
	// SteadyGenerations stops a run early once the best fitness has not
	// improved for that many generations. Zero disables it.
	SteadyGenerations int `yaml:"steady_generations" validate:"gte=0"`
}

type SelectionConfig struct {
	Survivors SelectorConfig `yaml:"survivors"`
	Offspring SelectorConfig `yaml:"offspring"`
}

type SelectorConfig struct {
	Kind       string  `yaml:"kind" validate:"oneof=truncation tournament monte_carlo roulette_wheel stochastic_universal boltzmann linear_rank exponential_rank"`
	SampleSize int     `yaml:"sample_size" validate:"omitempty,gte=2"`
	Beta       float64 `yaml:"beta"`
	NMinus     float64 `yaml:"nminus" validate:"gte=0,lte=2"`
	C          float64 `yaml:"c" validate:"gte=0,lt=1"`
	// BestShare, when set, derives C from the selection probability of
	// the best phenotype.
	BestShare float64 `yaml:"best_share" validate:"gte=0,lte=1"`
}

type AltererConfig struct {
	Kind            string  `yaml:"kind" validate:"oneof=mutator swap_mutator shift_mutator gaussian_mutator single_point_crossover multi_point_crossover uniform_crossover partially_matched_crossover line_crossover intermediate_crossover mean_alterer"`
	Probability     float64 `yaml:"probability" validate:"gte=0,lte=1"`
	Points          int     `yaml:"points" validate:"gte=0"`
	SwapProbability float64 `yaml:"swap_probability" validate:"gte=0,lte=1"`
	Extent          float64 `yaml:"extent" validate:"gte=0"`
}

type StoreConfig struct {
	Kind string `yaml:"kind" validate:"oneof=memory sqlite"`
	Path string `yaml:"path" validate:"required_if=Kind sqlite"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

var validate = validator.New()

// Default returns a configuration for the given problem with every field
// defaulted.
func Default(problem string) *Config {
	cfg := &Config{Problem: ProblemConfig{Name: problem}}
	applyDefaults(cfg)
	return cfg
}

// Load reads a YAML config file, applies defaults and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct constraints and reports every violation.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var invalid validator.ValidationErrors
	if !errors.As(err, &invalid) {
		return err
	}
	msgs := make([]string, 0, len(invalid))
	for _, fe := range invalid {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s (got %v)", fe.Namespace(), fe.Tag(), fe.Param(), fe.Value()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func applyDefaults(cfg *Config) {
	if cfg.Seed == 0 {
		cfg.Seed = 1337
	}
	if cfg.Engine.PopulationSize == 0 {
		cfg.Engine.PopulationSize = 50
	}
	if cfg.Engine.OffspringFraction == 0 {
		cfg.Engine.OffspringFraction = 0.6
	}
	if cfg.Engine.MaximalPhenotypeAge == 0 {
		cfg.Engine.MaximalPhenotypeAge = 70
	}
	if cfg.Engine.Workers == 0 {
		cfg.Engine.Workers = 1
	}
	if cfg.Engine.Generations == 0 {
		cfg.Engine.Generations = 100
	}
	applySelectorDefaults(&cfg.Selection.Survivors)
	applySelectorDefaults(&cfg.Selection.Offspring)
	for i := range cfg.Alterers {
		cfg.Alterers[i].applyDefaults()
	}
	if cfg.Store.Kind == "" {
		cfg.Store.Kind = "sqlite"
		if cfg.Store.Path == "" {
			cfg.Store.Path = "galapagos.db"
		}
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
}

func applySelectorDefaults(s *SelectorConfig) {
	if s.Kind == "" {
		s.Kind = SelectorTournament
	}
	if s.Kind == SelectorTournament && s.SampleSize == 0 {
		s.SampleSize = 3
	}
	if s.Kind == SelectorBoltzmann && s.Beta == 0 {
		s.Beta = 4
	}
	if s.Kind == SelectorLinearRank && s.NMinus == 0 {
		s.NMinus = 0.5
	}
	if s.Kind == SelectorExponentialRank && s.C == 0 && s.BestShare == 0 {
		s.C = 0.975
	}
}

func (a *AltererConfig) applyDefaults() {
	if a.Kind == AltererMultiPointCrossover && a.Points == 0 {
		a.Points = 2
	}
	if a.Kind == AltererUniformCrossover && a.SwapProbability == 0 {
		a.SwapProbability = 0.5
	}
	if (a.Kind == AltererLineCrossover || a.Kind == AltererIntermediate) && a.Extent == 0 {
		a.Extent = 0.25
	}
}
