package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Abm32/proteinforge/internal/design"
	"github.com/Abm32/proteinforge/internal/stats"
	forge "github.com/Abm32/proteinforge/pkg/proteinforge"
)

// runConfigFile mirrors the persisted run config layout. Absent fields
// fall back to the client defaults; mutation rate, crossover rate, and
// elite size may be an explicit zero.
type runConfigFile struct {
	RunID           string       `json:"run_id"`
	Target          *design.Spec `json:"target"`
	MaxIterations   int          `json:"max_iterations"`
	PopulationSize  int          `json:"population_size"`
	MutationRate    *float64     `json:"mutation_rate"`
	Temperature     float64      `json:"temperature"`
	CoolingRate     float64      `json:"cooling_rate"`
	CrossoverRate   *float64     `json:"crossover_rate"`
	EliteSize       *int         `json:"elite_size"`
	Patience        int          `json:"patience"`
	Seed            int64        `json:"seed"`
	Workers         int          `json:"workers"`
	RefineAttempts  int          `json:"refine_attempts"`
	WeightStability float64      `json:"weight_stability"`
	WeightFunction  float64      `json:"weight_function"`
	WeightStructure float64      `json:"weight_structure"`
	PredictorWindow int          `json:"predictor_window"`
	TopCount        int          `json:"top_count"`
}

func loadRunRequestFromConfig(path string) (forge.RunRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return forge.RunRequest{}, err
	}

	var cfg runConfigFile
	if err := json.Unmarshal(data, &cfg); err != nil {
		return forge.RunRequest{}, fmt.Errorf("parse run config %s: %w", path, err)
	}
	if cfg.Target == nil {
		return forge.RunRequest{}, fmt.Errorf("run config %s has no target", path)
	}

	return forge.RunRequest{
		RunID:           cfg.RunID,
		Target:          *cfg.Target,
		MaxIterations:   cfg.MaxIterations,
		Population:      cfg.PopulationSize,
		MutationRate:    cfg.MutationRate,
		Temperature:     cfg.Temperature,
		CoolingRate:     cfg.CoolingRate,
		CrossoverRate:   cfg.CrossoverRate,
		EliteSize:       cfg.EliteSize,
		Patience:        cfg.Patience,
		Seed:            cfg.Seed,
		Workers:         cfg.Workers,
		RefineAttempts:  cfg.RefineAttempts,
		WeightStability: cfg.WeightStability,
		WeightFunction:  cfg.WeightFunction,
		WeightStructure: cfg.WeightStructure,
		PredictorWindow: cfg.PredictorWindow,
		TopCount:        cfg.TopCount,
	}, nil
}

// runRequestFromRecorded rebuilds a request from a recorded run config,
// leaving RunID empty so the replay lands under a fresh id. The
// recorded values are complete, so the three pointer knobs carry them
// verbatim instead of falling back to the client defaults.
func runRequestFromRecorded(cfg stats.RunConfig) forge.RunRequest {
	return forge.RunRequest{
		Target:          cfg.Target,
		MaxIterations:   cfg.MaxIterations,
		Population:      cfg.PopulationSize,
		MutationRate:    &cfg.MutationRate,
		Temperature:     cfg.Temperature,
		CoolingRate:     cfg.CoolingRate,
		CrossoverRate:   &cfg.CrossoverRate,
		EliteSize:       &cfg.EliteSize,
		Patience:        cfg.Patience,
		Seed:            cfg.Seed,
		Workers:         cfg.Workers,
		RefineAttempts:  cfg.RefineAttempts,
		WeightStability: cfg.WeightStability,
		WeightFunction:  cfg.WeightFunction,
		WeightStructure: cfg.WeightStructure,
		TopCount:        cfg.TopCount,
	}
}

// demoTarget is the built-in enzyme design target used when no config
// file is supplied: a mid-sized mixed alpha/beta fold with a Ser
// protease style catalytic triad.
func demoTarget() design.Spec {
	return design.Spec{
		Name:   "demo-enzyme",
		Length: design.LengthRange{Min: 200, Max: 300},
		SecondaryStructure: design.SecondaryStructureTarget{
			MinHelix: 0.3, MaxHelix: 0.5,
			MinSheet: 0.2, MaxSheet: 0.4,
		},
		Properties: design.PropertyTarget{
			MinHydropathy: -0.5, MaxHydropathy: 0.5,
			MinCharge: -5, MaxCharge: 5,
		},
		CatalyticResidues: map[int]string{50: "H", 100: "D", 150: "S"},
		KeyResidues:       map[int]string{25: "P", 75: "G", 125: "W"},
	}
}
