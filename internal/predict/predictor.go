package predict

import (
	"context"
	"errors"

	"github.com/Abm32/proteinforge/internal/model"
)

// ErrPredictor marks a failed or timed-out prediction. The optimizer
// absorbs it per candidate; it never aborts a run.
var ErrPredictor = errors.New("structure prediction failed")

// Predictor maps a candidate sequence to a predicted structure record.
// Implementations may be deterministic or stochastic, local or remote;
// callers treat every invocation as the dominant cost of a run.
type Predictor interface {
	Name() string
	Predict(ctx context.Context, sequence string) (model.StructureRecord, error)
}
