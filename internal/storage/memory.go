package storage

import (
	"context"
	"sync"

	"github.com/Abm32/proteinforge/internal/model"
)

type MemoryStore struct {
	mu          sync.RWMutex
	runs        map[string]model.DesignRun
	history     map[string][]float64
	diagnostics map[string][]model.IterationDiagnostics
	top         map[string][]model.TopCandidateRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs = make(map[string]model.DesignRun)
	s.history = make(map[string][]float64)
	s.diagnostics = make(map[string][]model.IterationDiagnostics)
	s.top = make(map[string][]model.TopCandidateRecord)
	return nil
}

func (s *MemoryStore) SaveDesignRun(_ context.Context, run model.DesignRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetDesignRun(_ context.Context, id string) (model.DesignRun, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	return run, ok, nil
}

func (s *MemoryStore) SaveFitnessHistory(_ context.Context, runID string, history []float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[runID] = append([]float64(nil), history...)
	return nil
}

func (s *MemoryStore) GetFitnessHistory(_ context.Context, runID string) ([]float64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.history[runID]
	if !ok {
		return nil, false, nil
	}
	return append([]float64(nil), history...), true, nil
}

func (s *MemoryStore) SaveIterationDiagnostics(_ context.Context, runID string, diagnostics []model.IterationDiagnostics) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.IterationDiagnostics, len(diagnostics))
	copy(copied, diagnostics)
	s.diagnostics[runID] = copied
	return nil
}

func (s *MemoryStore) GetIterationDiagnostics(_ context.Context, runID string) ([]model.IterationDiagnostics, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	diagnostics, ok := s.diagnostics[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.IterationDiagnostics, len(diagnostics))
	copy(copied, diagnostics)
	return copied, true, nil
}

func (s *MemoryStore) SaveTopCandidates(_ context.Context, runID string, top []model.TopCandidateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := make([]model.TopCandidateRecord, len(top))
	copy(copied, top)
	s.top[runID] = copied
	return nil
}

func (s *MemoryStore) GetTopCandidates(_ context.Context, runID string) ([]model.TopCandidateRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	top, ok := s.top[runID]
	if !ok {
		return nil, false, nil
	}
	copied := make([]model.TopCandidateRecord, len(top))
	copy(copied, top)
	return copied, true, nil
}
