package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarises one finished evolution run.
type RunRecord struct {
	VersionedRecord
	ID             string    `json:"id"`
	Problem        string    `json:"problem"`
	CreatedAt      time.Time `json:"created_at"`
	Seed           int64     `json:"seed"`
	PopulationSize int       `json:"population_size"`
	Generations    int       `json:"generations"`
	Optimize       string    `json:"optimize"`
	BestFitness    float64   `json:"best_fitness"`
	BestGeneration int       `json:"best_generation"`
	BestGenotype   string    `json:"best_genotype"`
	Killed         int       `json:"killed"`
	Invalid        int       `json:"invalid"`
	Config         string    `json:"config,omitempty"`
}

// GenerationRecord is the persisted form of one generation's statistics.
type GenerationRecord struct {
	Generation      int             `json:"generation"`
	BestFitness     float64         `json:"best_fitness"`
	WorstFitness    float64         `json:"worst_fitness"`
	FitnessMean     float64         `json:"fitness_mean"`
	FitnessVariance float64         `json:"fitness_variance"`
	AgeMean         float64         `json:"age_mean"`
	AgeVariance     float64         `json:"age_variance"`
	Samples         int             `json:"samples"`
	Killed          int             `json:"killed"`
	Invalid         int             `json:"invalid"`
	Altered         int             `json:"altered"`
	Durations       PhaseDurationMS `json:"durations_ms"`
}

// PhaseDurationMS holds per-phase wall time in milliseconds.
type PhaseDurationMS struct {
	Selection  float64 `json:"selection"`
	Alter      float64 `json:"alter"`
	Combine    float64 `json:"combine"`
	Evaluation float64 `json:"evaluation"`
	Statistics float64 `json:"statistics"`
	Execution  float64 `json:"execution"`
}

// GenerationLog wraps the generation records of a run for storage.
type GenerationLog struct {
	VersionedRecord
	RunID       string             `json:"run_id"`
	Generations []GenerationRecord `json:"generations"`
}
