package predict

import (
	"context"
	"fmt"
	"math"

	"github.com/Abm32/proteinforge/internal/design"
	"github.com/Abm32/proteinforge/internal/model"
)

// HeuristicPredictor is a deterministic propensity-table surrogate for a
// full structure predictor: per-residue helix/sheet propensities are
// smoothed over a sliding window and thresholded into content fractions,
// hydropathy is the Kyte-Doolittle mean, and net charge counts ionizable
// side chains at neutral pH.
type HeuristicPredictor struct {
	Window int
}

const defaultWindow = 5

// Chou-Fasman conformational propensities, indexed by residue.
var helixPropensity = map[byte]float64{
	'A': 1.42, 'C': 0.70, 'D': 1.01, 'E': 1.51, 'F': 1.13,
	'G': 0.57, 'H': 1.00, 'I': 1.08, 'K': 1.16, 'L': 1.21,
	'M': 1.45, 'N': 0.67, 'P': 0.57, 'Q': 1.11, 'R': 0.98,
	'S': 0.77, 'T': 0.83, 'V': 1.06, 'W': 1.08, 'Y': 0.69,
}

var sheetPropensity = map[byte]float64{
	'A': 0.83, 'C': 1.19, 'D': 0.54, 'E': 0.37, 'F': 1.38,
	'G': 0.75, 'H': 0.87, 'I': 1.60, 'K': 0.74, 'L': 1.30,
	'M': 1.05, 'N': 0.89, 'P': 0.55, 'Q': 1.10, 'R': 0.93,
	'S': 0.75, 'T': 1.19, 'V': 1.70, 'W': 1.37, 'Y': 1.47,
}

// Kyte-Doolittle hydropathy index.
var hydropathyIndex = map[byte]float64{
	'A': 1.8, 'C': 2.5, 'D': -3.5, 'E': -3.5, 'F': 2.8,
	'G': -0.4, 'H': -3.2, 'I': 4.5, 'K': -3.9, 'L': 3.8,
	'M': 1.9, 'N': -3.5, 'P': -1.6, 'Q': -3.5, 'R': -4.5,
	'S': -0.8, 'T': -0.7, 'V': 4.2, 'W': -0.9, 'Y': -1.3,
}

// Side-chain charge at neutral pH; histidine is partially protonated.
var chargeIndex = map[byte]float64{
	'D': -1, 'E': -1, 'K': 1, 'R': 1, 'H': 0.5,
}

const maxHydropathy = 4.5

func (HeuristicPredictor) Name() string {
	return "heuristic"
}

func (p HeuristicPredictor) Predict(ctx context.Context, sequence string) (model.StructureRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.StructureRecord{}, err
	}
	if len(sequence) == 0 {
		return model.StructureRecord{}, fmt.Errorf("%w: empty sequence", ErrPredictor)
	}
	if !design.IsSequence(sequence) {
		return model.StructureRecord{}, fmt.Errorf("%w: non-standard residue in sequence", ErrPredictor)
	}

	window := p.Window
	if window <= 0 {
		window = defaultWindow
	}
	if window > len(sequence) {
		window = len(sequence)
	}

	helixCount := 0
	sheetCount := 0
	for i := 0; i < len(sequence); i++ {
		h := windowMean(sequence, i, window, helixPropensity)
		s := windowMean(sequence, i, window, sheetPropensity)
		switch {
		case h >= 1.03 && h >= s:
			helixCount++
		case s >= 1.05:
			sheetCount++
		}
	}

	n := float64(len(sequence))
	helix := float64(helixCount) / n
	sheet := float64(sheetCount) / n
	coil := 1 - helix - sheet

	hydropathy := 0.0
	charge := 0.0
	for i := 0; i < len(sequence); i++ {
		hydropathy += hydropathyIndex[sequence[i]]
		charge += chargeIndex[sequence[i]]
	}
	hydropathy /= n

	return model.StructureRecord{
		Sequence: sequence,
		Content: map[string]float64{
			model.ContentHelix: helix,
			model.ContentSheet: sheet,
			model.ContentCoil:  coil,
		},
		Hydropathy: hydropathy,
		Charge:     charge,
		Stability:  stabilityProxy(helix, sheet, hydropathy),
	}, nil
}

// stabilityProxy scores ordered, hydropathically balanced chains higher:
// extreme mean hydropathy and degenerate all-coil content both pull the
// proxy toward zero.
func stabilityProxy(helix, sheet, hydropathy float64) float64 {
	balance := 1 - math.Min(math.Abs(hydropathy)/maxHydropathy, 1)
	ordered := math.Min(helix+sheet, 1)
	return clamp01(0.5*balance + 0.5*ordered)
}

func windowMean(sequence string, center, window int, table map[byte]float64) float64 {
	half := window / 2
	lo := center - half
	if lo < 0 {
		lo = 0
	}
	hi := center + half
	if hi > len(sequence)-1 {
		hi = len(sequence) - 1
	}
	total := 0.0
	for i := lo; i <= hi; i++ {
		total += table[sequence[i]]
	}
	return total / float64(hi-lo+1)
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
