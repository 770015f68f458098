package optimizer

import (
	"errors"
	"fmt"
)

// ErrInvalidParameters marks malformed optimization parameters. It is
// raised at construction, never during a run.
var ErrInvalidParameters = errors.New("invalid optimization parameters")

// Parameters configures one optimization run. Immutable for the run's
// duration once validated.
type Parameters struct {
	MaxIterations  int     `json:"max_iterations"`
	PopulationSize int     `json:"population_size"`
	MutationRate   float64 `json:"mutation_rate"`
	Temperature    float64 `json:"temperature"`
	CoolingRate    float64 `json:"cooling_rate"`
	CrossoverRate  float64 `json:"crossover_rate"`
	EliteSize      int     `json:"elite_size"`
	Patience       int     `json:"patience"`
	Seed           int64   `json:"seed"`
	Workers        int     `json:"workers"`
	RefineAttempts int     `json:"refine_attempts"`
}

func (p Parameters) Validate() error {
	if p.MaxIterations <= 0 {
		return fmt.Errorf("%w: max iterations must be > 0", ErrInvalidParameters)
	}
	if p.PopulationSize <= 0 {
		return fmt.Errorf("%w: population size must be > 0", ErrInvalidParameters)
	}
	if p.MutationRate < 0 || p.MutationRate > 1 {
		return fmt.Errorf("%w: mutation rate %g outside [0,1]", ErrInvalidParameters, p.MutationRate)
	}
	if p.Temperature <= 0 {
		return fmt.Errorf("%w: temperature must be > 0", ErrInvalidParameters)
	}
	if p.CoolingRate <= 0 || p.CoolingRate > 1 {
		return fmt.Errorf("%w: cooling rate %g outside (0,1]", ErrInvalidParameters, p.CoolingRate)
	}
	if p.CrossoverRate < 0 || p.CrossoverRate > 1 {
		return fmt.Errorf("%w: crossover rate %g outside [0,1]", ErrInvalidParameters, p.CrossoverRate)
	}
	if p.EliteSize < 0 || p.EliteSize >= p.PopulationSize {
		return fmt.Errorf("%w: elite size must be in [0, population size)", ErrInvalidParameters)
	}
	if p.Patience <= 0 {
		return fmt.Errorf("%w: patience must be > 0", ErrInvalidParameters)
	}
	if p.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0", ErrInvalidParameters)
	}
	if p.RefineAttempts < 0 {
		return fmt.Errorf("%w: refine attempts must be >= 0", ErrInvalidParameters)
	}
	return nil
}
