package storage

import (
	"context"
	"errors"

	"galapagos/internal/model"
)

var ErrRunNotFound = errors.New("run not found")

// Store persists run summaries and their per-generation statistics.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	// ListRuns returns at most limit runs, newest first. A non-positive
	// limit returns every run.
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	SaveGenerations(ctx context.Context, runID string, generations []model.GenerationRecord) error
	GetGenerations(ctx context.Context, runID string) ([]model.GenerationRecord, bool, error)
	DeleteRun(ctx context.Context, id string) error
}
