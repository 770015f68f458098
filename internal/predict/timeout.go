package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/Abm32/proteinforge/internal/model"
)

// WithTimeout bounds every prediction of the wrapped backend. A deadline
// expiry is reported as ErrPredictor so callers treat it like any other
// oracle failure.
func WithTimeout(inner Predictor, timeout time.Duration) Predictor {
	return &timeoutPredictor{inner: inner, timeout: timeout}
}

type timeoutPredictor struct {
	inner   Predictor
	timeout time.Duration
}

func (p *timeoutPredictor) Name() string {
	return p.inner.Name()
}

func (p *timeoutPredictor) Predict(ctx context.Context, sequence string) (model.StructureRecord, error) {
	if p.timeout <= 0 {
		return p.inner.Predict(ctx, sequence)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type outcome struct {
		record model.StructureRecord
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		record, err := p.inner.Predict(ctx, sequence)
		done <- outcome{record: record, err: err}
	}()

	select {
	case out := <-done:
		return out.record, out.err
	case <-ctx.Done():
		return model.StructureRecord{}, fmt.Errorf("%w: %s timed out after %s", ErrPredictor, p.inner.Name(), p.timeout)
	}
}
