package galapagos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"galapagos/internal/config"
	"galapagos/internal/model"
	"galapagos/internal/problem"
	"galapagos/internal/report"
	"galapagos/internal/storage"
)

const (
	defaultExportsDir = "exports"
	defaultDBPath     = "galapagos.db"
	defaultRunsLimit  = 20
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
	Logger     *slog.Logger
}

type Client struct {
	store      storage.Store
	exportsDir string
	logger     *slog.Logger
}

// RunRequest starts a run. Config, when set, is the base configuration;
// the non-zero scalar fields override it.
type RunRequest struct {
	Config      *config.Config
	Problem     string
	Population  int
	Generations int
	Seed        int64
	Workers     int
}

type RunSummary struct {
	RunID          string
	Problem        string
	Generations    int
	BestFitness    float64
	BestGeneration int
	BestGenotype   string
	Killed         int
	Invalid        int
}

type RunsRequest struct {
	Limit int
}

type GenerationsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type ProblemItem struct {
	Name        string
	Description string
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		exportsDir: exportsDir,
		logger:     logger,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	return c.store.Init(ctx)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	cfg := config.Default(req.Problem)
	if req.Config != nil {
		copied := *req.Config
		cfg = &copied
	}
	if req.Problem != "" {
		cfg.Problem.Name = req.Problem
	}
	if req.Population > 0 {
		cfg.Engine.PopulationSize = req.Population
	}
	if req.Generations > 0 {
		cfg.Engine.Generations = req.Generations
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if req.Workers > 0 {
		cfg.Engine.Workers = req.Workers
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}

	p, err := problem.Lookup(cfg.Problem.Name)
	if err != nil {
		return RunSummary{}, err
	}
	if len(cfg.Alterers) == 0 {
		cfg.Alterers = p.DefaultAlterers()
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	logger := c.logger.With(slog.String("run_id", runID))
	logger.Info("run starting",
		slog.String("problem", p.Name()),
		slog.Int64("seed", cfg.Seed),
		slog.Int("population", cfg.Engine.PopulationSize),
		slog.Int("generations", cfg.Engine.Generations),
	)

	result, err := p.Run(ctx, cfg, logger)
	if err != nil {
		return RunSummary{}, fmt.Errorf("run %s: %w", p.Name(), err)
	}

	snapshot, err := cfg.Marshal()
	if err != nil {
		return RunSummary{}, err
	}
	run := model.RunRecord{
		ID:             runID,
		Problem:        p.Name(),
		CreatedAt:      time.Now().UTC(),
		Seed:           cfg.Seed,
		PopulationSize: cfg.Engine.PopulationSize,
		Generations:    len(result.Generations),
		Optimize:       result.Optimize.String(),
		BestFitness:    result.BestFitness,
		BestGeneration: result.BestGeneration,
		BestGenotype:   result.BestGenotype,
		Killed:         result.Killed,
		Invalid:        result.Invalid,
		Config:         snapshot,
	}
	if err := c.store.SaveGenerations(ctx, runID, result.Generations); err != nil {
		return RunSummary{}, fmt.Errorf("save generations: %w", err)
	}
	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}

	return RunSummary{
		RunID:          runID,
		Problem:        run.Problem,
		Generations:    run.Generations,
		BestFitness:    run.BestFitness,
		BestGeneration: run.BestGeneration,
		BestGenotype:   run.BestGenotype,
		Killed:         run.Killed,
		Invalid:        run.Invalid,
	}, nil
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]model.RunRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	if req.Limit == 0 {
		req.Limit = defaultRunsLimit
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c.store.ListRuns(ctx, req.Limit)
}

// GetRun returns the stored summary of one run.
func (c *Client) GetRun(ctx context.Context, runID string) (model.RunRecord, error) {
	id, err := c.resolveRunID(ctx, runID, false)
	if err != nil {
		return model.RunRecord{}, err
	}
	run, ok, err := c.store.GetRun(ctx, id)
	if err != nil {
		return model.RunRecord{}, err
	}
	if !ok {
		return model.RunRecord{}, fmt.Errorf("%w: %s", storage.ErrRunNotFound, id)
	}
	return run, nil
}

// Generations returns the per-generation records of a run, at most Limit
// of them from the start when Limit > 0.
func (c *Client) Generations(ctx context.Context, req GenerationsRequest) ([]model.GenerationRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	generations, ok, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrRunNotFound, runID)
	}
	if req.Limit > 0 && len(generations) > req.Limit {
		generations = generations[:req.Limit]
	}
	return generations, nil
}

func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}

	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("%w: %s", storage.ErrRunNotFound, runID)
	}
	generations, _, err := c.store.GetGenerations(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}

	dir, err := report.WriteRun(req.OutDir, run, generations)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(dir)}, nil
}

func (c *Client) Delete(ctx context.Context, runID string) error {
	if runID == "" {
		return errors.New("run id is required")
	}
	if err := c.Init(ctx); err != nil {
		return err
	}
	return c.store.DeleteRun(ctx, runID)
}

func (c *Client) Problems() []ProblemItem {
	names := problem.Names()
	out := make([]ProblemItem, 0, len(names))
	for _, name := range names {
		p, err := problem.Lookup(name)
		if err != nil {
			continue
		}
		out = append(out, ProblemItem{Name: p.Name(), Description: p.Description()})
	}
	return out
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if runID == "" && !latest {
		return "", errors.New("run id or latest is required")
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if runID != "" {
		return runID, nil
	}
	runs, err := c.store.ListRuns(ctx, 1)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[0].ID, nil
}
