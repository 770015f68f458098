package optimizer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/Abm32/proteinforge/internal/design"
	"github.com/Abm32/proteinforge/internal/fitness"
	"github.com/Abm32/proteinforge/internal/model"
	"github.com/Abm32/proteinforge/internal/predict"
	"github.com/Abm32/proteinforge/internal/seqgen"
)

// Candidate pairs a predicted structure with its fitness.
type Candidate struct {
	Structure model.StructureRecord
	Fitness   float64
	Breakdown model.FitnessBreakdown
}

// Reason records why a run stopped.
type Reason string

const (
	ReasonConverged Reason = "converged"
	ReasonExhausted Reason = "exhausted"
	ReasonCancelled Reason = "cancelled"
)

// Result is the read-only artifact of one run.
// InitialPredictorFailures counts failed predictions while seeding the
// starting population, before the first iteration runs; per-iteration
// failures live in Diagnostics.
type Result struct {
	Best                     Candidate
	Reason                   Reason
	Iterations               int
	InitialPredictorFailures int
	FitnessHistory           []float64
	Diagnostics              []model.IterationDiagnostics
	FinalPopulation          []Candidate
}

// Config wires one run. Target, Generator, Predictor, Evaluator, and
// Parameters are required; Observer is optional.
type Config struct {
	Target     design.Target
	Generator  *seqgen.Generator
	Predictor  predict.Predictor
	Evaluator  *fitness.Evaluator
	Parameters Parameters
	Observer   Observer
}

// Optimizer drives the annealed population search: propose via the
// generator, predict via the oracle, score via the evaluator, accept
// via a Boltzmann rule under a geometrically cooled temperature. All
// randomness is drawn from a single seeded generator owned by the run,
// so a fixed seed reproduces the run bit for bit regardless of the
// worker count.
type Optimizer struct {
	cfg Config
	rng *rand.Rand
}

func New(cfg Config) (*Optimizer, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("sequence generator is required")
	}
	if cfg.Predictor == nil {
		return nil, fmt.Errorf("structure predictor is required")
	}
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("fitness evaluator is required")
	}
	if err := cfg.Parameters.Validate(); err != nil {
		return nil, err
	}
	if cfg.Parameters.Workers == 0 {
		cfg.Parameters.Workers = 1
	}
	return &Optimizer{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Parameters.Seed)),
	}, nil
}

// Run executes the search until convergence, budget exhaustion, or
// cancellation. Cancellation is checked at the top of each iteration
// and returns the best-so-far result with ReasonCancelled and a nil
// error. Per-candidate predictor failures degrade that candidate to
// worst-case fitness; generator invariant breaches propagate.
func (o *Optimizer) Run(ctx context.Context) (Result, error) {
	params := o.cfg.Parameters

	population, initialFailures := o.evaluateSequences(ctx, o.initialSequences())
	sortByFitness(population)

	best := population[0]
	temperature := params.Temperature
	stall := 0

	history := make([]float64, 0, params.MaxIterations)
	diagnostics := make([]model.IterationDiagnostics, 0, params.MaxIterations)

	result := func(reason Reason, iterations int) Result {
		return Result{
			Best:                     best,
			Reason:                   reason,
			Iterations:               iterations,
			InitialPredictorFailures: initialFailures,
			FitnessHistory:           history,
			Diagnostics:              diagnostics,
			FinalPopulation:          population,
		}
	}

	for iter := 1; iter <= params.MaxIterations; iter++ {
		if ctx.Err() != nil {
			return result(ReasonCancelled, iter-1), nil
		}

		proposals, err := o.propose(population)
		if err != nil {
			return Result{}, err
		}
		evaluated, failures := o.evaluateSequences(ctx, proposals)

		accepted, rejected := 0, 0
		if failures < len(evaluated) {
			// Each challenger faces the incumbent in the ranked slot it
			// would occupy; elites in the head slots are never displaced.
			for i, challenger := range evaluated {
				slot := params.EliteSize + i
				if o.accept(challenger.Fitness, population[slot].Fitness, temperature) {
					population[slot] = challenger
					accepted++
				} else {
					rejected++
				}
			}
			sortByFitness(population)
		} else {
			// Oracle down for the whole iteration: keep the population,
			// burn the budget, count the stall.
			rejected = len(evaluated)
		}

		if population[0].Fitness > best.Fitness {
			best = population[0]
			stall = 0
		} else {
			stall++
		}

		diag := summarize(population, iter, temperature, accepted, rejected, failures, stall)
		diag.BestFitness = best.Fitness
		diagnostics = append(diagnostics, diag)
		history = append(history, best.Fitness)
		temperature *= params.CoolingRate

		o.notify(best, diag)

		if stall >= params.Patience {
			return o.finish(ctx, result(ReasonConverged, iter), &best)
		}
	}

	return o.finish(ctx, result(ReasonExhausted, params.MaxIterations), &best)
}

func (o *Optimizer) finish(ctx context.Context, res Result, best *Candidate) (Result, error) {
	refined, err := o.refine(ctx, *best)
	if err != nil {
		return Result{}, err
	}
	res.Best = refined
	return res, nil
}

func (o *Optimizer) initialSequences() []string {
	sequences := make([]string, o.cfg.Parameters.PopulationSize)
	for i := range sequences {
		sequences[i] = o.cfg.Generator.GenerateInitial(o.rng)
	}
	return sequences
}

// propose builds the non-elite challenger sequences for one iteration:
// crossover of two fitness-proportional parents at the crossover rate,
// otherwise a single selected parent, each followed by point mutation.
func (o *Optimizer) propose(population []Candidate) ([]string, error) {
	params := o.cfg.Parameters
	proposals := make([]string, 0, params.PopulationSize-params.EliteSize)
	for i := params.EliteSize; i < params.PopulationSize; i++ {
		var child string
		var err error
		if o.rng.Float64() < params.CrossoverRate {
			parentA := o.pickParent(population)
			parentB := o.pickParent(population)
			child, err = o.cfg.Generator.Crossover(o.rng, parentA.Structure.Sequence, parentB.Structure.Sequence)
		} else {
			child = o.pickParent(population).Structure.Sequence
		}
		if err != nil {
			return nil, err
		}
		child, err = o.cfg.Generator.Mutate(o.rng, child, params.MutationRate)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, child)
	}
	return proposals, nil
}

// pickParent selects with probability proportional to fitness, falling
// back to a uniform draw when the population has no positive fitness.
func (o *Optimizer) pickParent(population []Candidate) Candidate {
	total := 0.0
	for _, c := range population {
		total += c.Fitness
	}
	if total <= 0 {
		return population[o.rng.Intn(len(population))]
	}
	pick := o.rng.Float64() * total
	acc := 0.0
	for _, c := range population {
		acc += c.Fitness
		if pick <= acc {
			return c
		}
	}
	return population[len(population)-1]
}

// accept implements the annealing rule: a stronger challenger always
// wins; a weaker one wins with probability exp((new-old)/temperature),
// so escapes are common early and vanish as the temperature cools.
func (o *Optimizer) accept(challenger, incumbent, temperature float64) bool {
	if challenger > incumbent {
		return true
	}
	if temperature <= 0 {
		return false
	}
	return o.rng.Float64() < math.Exp((challenger-incumbent)/temperature)
}

// evaluateSequences predicts and scores each sequence exactly once,
// fanning out across the worker pool and gathering by index so the
// result order is independent of completion order. A failed prediction
// yields a worst-case candidate and counts as a failure.
func (o *Optimizer) evaluateSequences(ctx context.Context, sequences []string) ([]Candidate, int) {
	type job struct {
		idx      int
		sequence string
	}
	type outcome struct {
		idx       int
		candidate Candidate
		failed    bool
	}

	workerCount := o.cfg.Parameters.Workers
	if workerCount > len(sequences) {
		workerCount = len(sequences)
	}
	if workerCount < 1 {
		workerCount = 1
	}

	jobs := make(chan job)
	results := make(chan outcome, len(sequences))

	var wg sync.WaitGroup
	wg.Add(workerCount)
	for w := 0; w < workerCount; w++ {
		go func() {
			defer wg.Done()
			for j := range jobs {
				record, err := o.cfg.Predictor.Predict(ctx, j.sequence)
				if err != nil {
					results <- outcome{
						idx:       j.idx,
						candidate: Candidate{Structure: model.StructureRecord{Sequence: j.sequence}},
						failed:    true,
					}
					continue
				}
				score := o.cfg.Evaluator.Evaluate(record)
				results <- outcome{
					idx: j.idx,
					candidate: Candidate{
						Structure: record,
						Fitness:   score.Total,
						Breakdown: score.Breakdown,
					},
				}
			}
		}()
	}

	for i := range sequences {
		jobs <- job{idx: i, sequence: sequences[i]}
	}
	close(jobs)
	wg.Wait()
	close(results)

	candidates := make([]Candidate, len(sequences))
	failures := 0
	for res := range results {
		candidates[res.idx] = res.candidate
		if res.failed {
			failures++
		}
	}
	return candidates, failures
}

// refine hill-climbs the best candidate with point mutations after the
// main loop. It only ever replaces the best with a strictly better
// candidate; prediction failures are skipped.
func (o *Optimizer) refine(ctx context.Context, best Candidate) (Candidate, error) {
	for attempt := 0; attempt < o.cfg.Parameters.RefineAttempts; attempt++ {
		if ctx.Err() != nil {
			return best, nil
		}
		mutated, err := o.cfg.Generator.Mutate(o.rng, best.Structure.Sequence, o.cfg.Parameters.MutationRate)
		if err != nil {
			return Candidate{}, err
		}
		record, err := o.cfg.Predictor.Predict(ctx, mutated)
		if err != nil {
			continue
		}
		score := o.cfg.Evaluator.Evaluate(record)
		if score.Total > best.Fitness {
			best = Candidate{Structure: record, Fitness: score.Total, Breakdown: score.Breakdown}
		}
	}
	return best, nil
}

func (o *Optimizer) notify(best Candidate, diag model.IterationDiagnostics) {
	if o.cfg.Observer == nil {
		return
	}
	o.cfg.Observer.OnIteration(best.Structure, best.Fitness)
	if extended, ok := o.cfg.Observer.(DiagnosticsObserver); ok {
		extended.OnDiagnostics(diag)
	}
}

func summarize(population []Candidate, iteration int, temperature float64, accepted, rejected, failures, stall int) model.IterationDiagnostics {
	total := 0.0
	min := population[0].Fitness
	for _, c := range population {
		total += c.Fitness
		if c.Fitness < min {
			min = c.Fitness
		}
	}
	return model.IterationDiagnostics{
		Iteration:         iteration,
		MeanFitness:       total / float64(len(population)),
		MinFitness:        min,
		Temperature:       temperature,
		Accepted:          accepted,
		Rejected:          rejected,
		PredictorFailures: failures,
		StallCount:        stall,
	}
}

func sortByFitness(population []Candidate) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].Fitness > population[j].Fitness
	})
}
