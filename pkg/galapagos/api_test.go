package galapagos

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galapagos/internal/config"
	"galapagos/internal/problem"
	"galapagos/internal/report"
	"galapagos/internal/storage"
)

func newTestClient(t *testing.T, kind string) *Client {
	t.Helper()
	dir := t.TempDir()
	client, err := New(Options{
		StoreKind:  kind,
		DBPath:     filepath.Join(dir, "galapagos.db"),
		ExportsDir: filepath.Join(dir, "exports"),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	require.NoError(t, client.Init(context.Background()))
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientRunRunsAndExport(t *testing.T) {
	for _, kind := range []string{"memory", "sqlite"} {
		t.Run(kind, func(t *testing.T) {
			ctx := context.Background()
			client := newTestClient(t, kind)

			summary, err := client.Run(ctx, RunRequest{
				Problem:     "onemax",
				Population:  20,
				Generations: 8,
				Seed:        42,
				Workers:     2,
			})
			require.NoError(t, err)
			assert.NotEmpty(t, summary.RunID)
			assert.Equal(t, "onemax", summary.Problem)
			assert.Positive(t, summary.Generations)

			runs, err := client.Runs(ctx, RunsRequest{})
			require.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, summary.RunID, runs[0].ID)
			assert.Equal(t, int64(42), runs[0].Seed)
			assert.Equal(t, "maximum", runs[0].Optimize)
			assert.Contains(t, runs[0].Config, "onemax")

			generations, err := client.Generations(ctx, GenerationsRequest{Latest: true})
			require.NoError(t, err)
			assert.Len(t, generations, summary.Generations)

			limited, err := client.Generations(ctx, GenerationsRequest{RunID: summary.RunID, Limit: 2})
			require.NoError(t, err)
			assert.Len(t, limited, 2)

			exported, err := client.Export(ctx, ExportRequest{RunID: summary.RunID})
			require.NoError(t, err)
			run, gens, err := report.ReadRun(filepath.Dir(exported.Directory), summary.RunID)
			require.NoError(t, err)
			assert.Equal(t, summary.BestFitness, run.BestFitness)
			assert.Len(t, gens, summary.Generations)

			require.NoError(t, client.Delete(ctx, summary.RunID))
			_, err = client.GetRun(ctx, summary.RunID)
			assert.ErrorIs(t, err, storage.ErrRunNotFound)
		})
	}
}

func TestClientRunUsesConfig(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, "memory")

	cfg := config.Default("tsp")
	cfg.Problem.Size = 6
	cfg.Engine.Generations = 5
	cfg.Alterers = []config.AltererConfig{{Kind: config.AltererPMXCrossover, Probability: 0.2}}

	summary, err := client.Run(ctx, RunRequest{Config: cfg, Seed: 5})
	require.NoError(t, err)
	assert.Equal(t, "tsp", summary.Problem)
	assert.Equal(t, int64(1337), cfg.Seed)

	run, err := client.GetRun(ctx, summary.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), run.Seed)
	assert.Equal(t, "minimum", run.Optimize)
}

func TestClientRunRecordsProblemDefaultAlterers(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, "memory")

	summary, err := client.Run(ctx, RunRequest{Problem: "tsp", Population: 12, Generations: 3})
	require.NoError(t, err)

	run, err := client.GetRun(ctx, summary.RunID)
	require.NoError(t, err)
	snapshot, err := config.Parse([]byte(run.Config))
	require.NoError(t, err)
	require.Len(t, snapshot.Alterers, 2)
	assert.Equal(t, config.AltererPMXCrossover, snapshot.Alterers[0].Kind)
	assert.Equal(t, config.AltererSwapMutator, snapshot.Alterers[1].Kind)
}

func TestClientRunRejectsUnknownProblem(t *testing.T) {
	client := newTestClient(t, "memory")

	_, err := client.Run(context.Background(), RunRequest{Problem: "knapsack"})
	assert.ErrorIs(t, err, problem.ErrProblemNotFound)
}

func TestClientRequestValidation(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, "memory")

	_, err := client.Generations(ctx, GenerationsRequest{RunID: "a", Latest: true})
	assert.Error(t, err)
	_, err = client.Generations(ctx, GenerationsRequest{})
	assert.Error(t, err)
	_, err = client.Generations(ctx, GenerationsRequest{Latest: true})
	assert.Error(t, err)
	_, err = client.Generations(ctx, GenerationsRequest{RunID: "missing"})
	assert.ErrorIs(t, err, storage.ErrRunNotFound)
	_, err = client.Runs(ctx, RunsRequest{Limit: -1})
	assert.Error(t, err)
	_, err = client.Export(ctx, ExportRequest{Latest: true})
	assert.Error(t, err)
}

func TestClientProblems(t *testing.T) {
	client := newTestClient(t, "memory")

	items := client.Problems()
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
		assert.NotEmpty(t, item.Description)
	}
	assert.Equal(t, []string{"onemax", "phrase", "rastrigin", "tsp"}, names)
}

func TestNewRejectsUnknownStore(t *testing.T) {
	_, err := New(Options{StoreKind: "postgres"})
	assert.Error(t, err)
}
