package optimizer

import "github.com/Abm32/proteinforge/internal/model"

// Observer receives the current best after every completed iteration.
// The optimizer holds at most one observer per run and invokes it
// synchronously, exactly once per iteration; a panicking observer
// terminates the run.
type Observer interface {
	OnIteration(best model.StructureRecord, bestFitness float64)
}

// DiagnosticsObserver is an optional extension for observers that also
// want per-iteration population statistics.
type DiagnosticsObserver interface {
	Observer
	OnDiagnostics(diag model.IterationDiagnostics)
}

// ObserverFunc adapts a plain function to the Observer interface.
type ObserverFunc func(best model.StructureRecord, bestFitness float64)

func (f ObserverFunc) OnIteration(best model.StructureRecord, bestFitness float64) {
	f(best, bestFitness)
}
