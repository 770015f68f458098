package storage

import (
	"context"

	"github.com/Abm32/proteinforge/internal/model"
)

// Store defines persistence operations for design run artifacts.
type Store interface {
	Init(ctx context.Context) error
	SaveDesignRun(ctx context.Context, run model.DesignRun) error
	GetDesignRun(ctx context.Context, id string) (model.DesignRun, bool, error)
	SaveFitnessHistory(ctx context.Context, runID string, history []float64) error
	GetFitnessHistory(ctx context.Context, runID string) ([]float64, bool, error)
	SaveIterationDiagnostics(ctx context.Context, runID string, diagnostics []model.IterationDiagnostics) error
	GetIterationDiagnostics(ctx context.Context, runID string) ([]model.IterationDiagnostics, bool, error)
	SaveTopCandidates(ctx context.Context, runID string, top []model.TopCandidateRecord) error
	GetTopCandidates(ctx context.Context, runID string) ([]model.TopCandidateRecord, bool, error)
}
