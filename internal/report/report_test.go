package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galapagos/internal/model"
)

func TestWriteAndReadRun(t *testing.T) {
	dir := t.TempDir()
	run := model.RunRecord{
		ID:          "run-42",
		Problem:     "tsp",
		CreatedAt:   time.Date(2026, 6, 2, 8, 30, 0, 0, time.UTC),
		Optimize:    "minimum",
		BestFitness: 61.803398874989485,
	}
	generations := []model.GenerationRecord{
		{Generation: 1, BestFitness: 80.5, WorstFitness: 120, FitnessMean: 100.25, Samples: 30},
		{Generation: 2, BestFitness: 70.125, Killed: 2, Invalid: 1, Altered: 14, Durations: model.PhaseDurationMS{Evaluation: 0.75, Execution: 1.5}},
	}

	runDir, err := WriteRun(dir, run, generations)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "run-42"), runDir)
	assert.FileExists(t, filepath.Join(runDir, "run.json"))
	assert.FileExists(t, filepath.Join(runDir, "generations.csv"))

	gotRun, gotGenerations, err := ReadRun(dir, "run-42")
	require.NoError(t, err)
	assert.Equal(t, run.Problem, gotRun.Problem)
	assert.Equal(t, run.BestFitness, gotRun.BestFitness)
	assert.True(t, run.CreatedAt.Equal(gotRun.CreatedAt))
	assert.Equal(t, generations, gotGenerations)
}

func TestWriteRunRequiresID(t *testing.T) {
	_, err := WriteRun(t.TempDir(), model.RunRecord{}, nil)
	assert.Error(t, err)
}

func TestReadRunRejectsMalformedCSV(t *testing.T) {
	dir := t.TempDir()
	runDir, err := WriteRun(dir, model.RunRecord{ID: "r"}, []model.GenerationRecord{{Generation: 1}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(runDir, "generations.csv"))
	require.NoError(t, err)
	data = append(data, []byte("x,1,1,1,1,1,1,1,1,1,1,1,1,1,1,1,1\n")...)
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "generations.csv"), data, 0o644))

	_, _, err = ReadRun(dir, "r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 3")
	assert.Contains(t, err.Error(), "generation")
}

func TestReadRunMissing(t *testing.T) {
	_, _, err := ReadRun(t.TempDir(), "nope")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
