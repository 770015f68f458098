package fitness

import (
	"errors"
	"fmt"
	"math"

	"github.com/Abm32/proteinforge/internal/design"
	"github.com/Abm32/proteinforge/internal/model"
)

// ErrInvalidWeights marks weights that do not form a convex combination.
var ErrInvalidWeights = errors.New("invalid fitness weights")

const weightSumTolerance = 1e-9

// Weights blend the three sub-objectives. They must be non-negative and
// sum to 1; the evaluator fails fast rather than renormalizing.
type Weights struct {
	Stability float64 `json:"stability"`
	Function  float64 `json:"function"`
	Structure float64 `json:"structure"`
}

func (w Weights) Validate() error {
	if w.Stability < 0 || w.Function < 0 || w.Structure < 0 {
		return fmt.Errorf("%w: weights must be >= 0", ErrInvalidWeights)
	}
	if math.Abs(w.Stability+w.Function+w.Structure-1) > weightSumTolerance {
		return fmt.Errorf("%w: weights sum to %g, want 1", ErrInvalidWeights, w.Stability+w.Function+w.Structure)
	}
	return nil
}

// Score is a scalar fitness in [0,1], higher is better, with its
// sub-term breakdown for diagnostics.
type Score struct {
	Total     float64
	Breakdown model.FitnessBreakdown
}

// Evaluator scores predicted structures against one design target.
// Evaluate is a pure function of its inputs.
type Evaluator struct {
	target  design.Target
	weights Weights
}

func NewEvaluator(target design.Target, weights Weights) (*Evaluator, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{target: target, weights: weights}, nil
}

func (e *Evaluator) Weights() Weights {
	return e.weights
}

func (e *Evaluator) Evaluate(record model.StructureRecord) Score {
	structure := e.structureScore(record)
	function := e.functionScore(record)
	stability := clamp01(record.Stability)

	total := e.weights.Stability*stability + e.weights.Function*function + e.weights.Structure*structure
	return Score{
		Total: clamp01(total),
		Breakdown: model.FitnessBreakdown{
			Stability: stability,
			Function:  function,
			Structure: structure,
		},
	}
}

// structureScore averages the banded content scores over the classes the
// target bounds.
func (e *Evaluator) structureScore(record model.StructureRecord) float64 {
	ss := e.target.SecondaryStructure()
	helix := bandScore(record.ContentFraction(model.ContentHelix), ss.MinHelix, ss.MaxHelix, contentDecayFloor)
	sheet := bandScore(record.ContentFraction(model.ContentSheet), ss.MinSheet, ss.MaxSheet, contentDecayFloor)
	return (helix + sheet) / 2
}

// functionScore averages the property band scores with the fraction of
// fixed-position constraints the sequence satisfies. Generation corrects
// constraints before scoring, so the fraction is normally 1; it is
// recomputed here so the evaluator stands on its own.
func (e *Evaluator) functionScore(record model.StructureRecord) float64 {
	props := e.target.Properties()
	hydropathy := bandScore(record.Hydropathy, props.MinHydropathy, props.MaxHydropathy, propertyDecayFloor)
	charge := bandScore(record.Charge, props.MinCharge, props.MaxCharge, propertyDecayFloor)
	constraint := e.constraintFraction(record.Sequence)
	return (hydropathy + charge + constraint) / 3
}

func (e *Evaluator) constraintFraction(sequence string) float64 {
	fixed := e.target.FixedPositions()
	if len(fixed) == 0 {
		return 1
	}
	satisfied := 0
	for _, pos := range fixed {
		if pos <= len(sequence) && e.target.SatisfiesConstraint(pos, sequence[pos-1]) {
			satisfied++
		}
	}
	return float64(satisfied) / float64(len(fixed))
}

// Decay scales for out-of-band values: content fractions live in [0,1]
// so a narrow band still decays over a visible distance; open-ended
// properties decay over at least one unit.
const (
	contentDecayFloor  = 0.1
	propertyDecayFloor = 1.0
)

// bandScore is 1 inside [min,max] and decays linearly with distance
// outside, reaching 0 one decay-width away from the band edge.
func bandScore(value, min, max, decayFloor float64) float64 {
	if value >= min && value <= max {
		return 1
	}
	width := max - min
	if width < decayFloor {
		width = decayFloor
	}
	var distance float64
	if value < min {
		distance = min - value
	} else {
		distance = value - max
	}
	return clamp01(1 - distance/width)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
