// Package proteinforge is the embedding-friendly client for running
// protein design optimizations and querying their artifacts.
package proteinforge

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/Abm32/proteinforge/internal/design"
	"github.com/Abm32/proteinforge/internal/fitness"
	"github.com/Abm32/proteinforge/internal/model"
	"github.com/Abm32/proteinforge/internal/optimizer"
	"github.com/Abm32/proteinforge/internal/predict"
	"github.com/Abm32/proteinforge/internal/seqgen"
	"github.com/Abm32/proteinforge/internal/stats"
	"github.com/Abm32/proteinforge/internal/storage"
)

const (
	defaultResultsDir = "results"
	defaultExportsDir = "exports"
	defaultDBPath     = "proteinforge.db"

	defaultPopulation     = 20
	defaultMaxIterations  = 100
	defaultMutationRate   = 0.1
	defaultTemperature    = 1.0
	defaultCoolingRate    = 0.99
	defaultCrossoverRate  = 0.8
	defaultEliteSize      = 2
	defaultPatience       = 20
	defaultWorkers        = 4
	defaultTopCount       = 5
	defaultWeightStab     = 0.3
	defaultWeightFunction = 0.5
	defaultWeightStruct   = 0.2
)

type Options struct {
	StoreKind  string
	DBPath     string
	ResultsDir string
	ExportsDir string
}

type Client struct {
	store       storage.Store
	initialized bool

	resultsDir string
	exportsDir string
}

// RunRequest configures one optimization run. Zero-valued fields fall
// back to the client defaults. MutationRate, CrossoverRate, and
// EliteSize are pointers because zero is a legal setting for each; nil
// selects the default.
type RunRequest struct {
	RunID  string
	Target design.Spec

	MaxIterations  int
	Population     int
	MutationRate   *float64
	Temperature    float64
	CoolingRate    float64
	CrossoverRate  *float64
	EliteSize      *int
	Patience       int
	Seed           int64
	Workers        int
	RefineAttempts int

	WeightStability float64
	WeightFunction  float64
	WeightStructure float64

	PredictorWindow  int
	PredictorTimeout time.Duration
	TopCount         int

	Observer optimizer.Observer
}

type RunSummary struct {
	RunID           string
	ArtifactsDir    string
	BestSequence    string
	BestFitness     float64
	Breakdown       model.FitnessBreakdown
	Reason          string
	Iterations      int
	BestByIteration []float64
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID            string
	CreatedAtUTC     string
	TargetName       string
	Seed             int64
	Population       int
	MaxIterations    int
	Iterations       int
	Reason           string
	FinalBestFitness float64
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

type FitnessHistoryRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type DiagnosticsRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

type TopCandidatesRequest struct {
	RunID  string
	Latest bool
	Limit  int
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	resultsDir := opts.ResultsDir
	if resultsDir == "" {
		resultsDir = defaultResultsDir
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		resultsDir: resultsDir,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if req.Population <= 0 {
		req.Population = defaultPopulation
	}
	if req.MaxIterations <= 0 {
		req.MaxIterations = defaultMaxIterations
	}
	mutationRate := defaultMutationRate
	if req.MutationRate != nil {
		mutationRate = *req.MutationRate
	}
	crossoverRate := defaultCrossoverRate
	if req.CrossoverRate != nil {
		crossoverRate = *req.CrossoverRate
	}
	eliteSize := defaultEliteSize
	if req.EliteSize != nil {
		eliteSize = *req.EliteSize
	}
	if req.Temperature <= 0 {
		req.Temperature = defaultTemperature
	}
	if req.CoolingRate <= 0 {
		req.CoolingRate = defaultCoolingRate
	}
	if req.Patience <= 0 {
		req.Patience = defaultPatience
	}
	if req.Workers <= 0 {
		req.Workers = defaultWorkers
	}
	if req.TopCount <= 0 {
		req.TopCount = defaultTopCount
	}
	if req.WeightStability == 0 && req.WeightFunction == 0 && req.WeightStructure == 0 {
		req.WeightStability = defaultWeightStab
		req.WeightFunction = defaultWeightFunction
		req.WeightStructure = defaultWeightStruct
	}
	if req.RunID == "" {
		req.RunID = uuid.NewString()
	}

	target, err := design.NewTarget(req.Target)
	if err != nil {
		return RunSummary{}, err
	}
	evaluator, err := fitness.NewEvaluator(target, fitness.Weights{
		Stability: req.WeightStability,
		Function:  req.WeightFunction,
		Structure: req.WeightStructure,
	})
	if err != nil {
		return RunSummary{}, err
	}

	var predictor predict.Predictor = &predict.HeuristicPredictor{Window: req.PredictorWindow}
	if req.PredictorTimeout > 0 {
		predictor = predict.WithTimeout(predictor, req.PredictorTimeout)
	}

	opt, err := optimizer.New(optimizer.Config{
		Target:    target,
		Generator: seqgen.New(target),
		Predictor: predictor,
		Evaluator: evaluator,
		Parameters: optimizer.Parameters{
			MaxIterations:  req.MaxIterations,
			PopulationSize: req.Population,
			MutationRate:   mutationRate,
			Temperature:    req.Temperature,
			CoolingRate:    req.CoolingRate,
			CrossoverRate:  crossoverRate,
			EliteSize:      eliteSize,
			Patience:       req.Patience,
			Seed:           req.Seed,
			Workers:        req.Workers,
			RefineAttempts: req.RefineAttempts,
		},
		Observer: req.Observer,
	})
	if err != nil {
		return RunSummary{}, err
	}

	result, err := opt.Run(ctx)
	if err != nil {
		return RunSummary{}, err
	}

	now := time.Now().UTC()
	top := topCandidates(result, req.TopCount)

	run := model.DesignRun{
		VersionedRecord: currentVersions(),
		ID:              req.RunID,
		TargetName:      req.Target.Name,
		Seed:            req.Seed,
		MaxIterations:   req.MaxIterations,
		Population:      req.Population,
		Iterations:      result.Iterations,
		Reason:          string(result.Reason),
		BestSequence:    result.Best.Structure.Sequence,
		BestFitness:     result.Best.Fitness,
		BestStructure:   result.Best.Structure,
		CreatedAtUTC:    now.Format(time.RFC3339Nano),
	}

	if err := c.ensureInit(ctx); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveDesignRun(ctx, run); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveFitnessHistory(ctx, req.RunID, result.FitnessHistory); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveIterationDiagnostics(ctx, req.RunID, result.Diagnostics); err != nil {
		return RunSummary{}, err
	}
	if err := c.store.SaveTopCandidates(ctx, req.RunID, top); err != nil {
		return RunSummary{}, err
	}

	runDir, err := stats.WriteRunArtifacts(c.resultsDir, stats.RunArtifacts{
		Config: stats.RunConfig{
			RunID:           req.RunID,
			Target:          req.Target,
			MaxIterations:   req.MaxIterations,
			PopulationSize:  req.Population,
			MutationRate:    mutationRate,
			Temperature:     req.Temperature,
			CoolingRate:     req.CoolingRate,
			CrossoverRate:   crossoverRate,
			EliteSize:       eliteSize,
			Patience:        req.Patience,
			Seed:            req.Seed,
			Workers:         req.Workers,
			RefineAttempts:  req.RefineAttempts,
			WeightStability: req.WeightStability,
			WeightFunction:  req.WeightFunction,
			WeightStructure: req.WeightStructure,
			Predictor:       predictor.Name(),
			TopCount:        req.TopCount,
		},
		BestByIteration:      result.FitnessHistory,
		IterationDiagnostics: result.Diagnostics,
		FinalBestFitness:     result.Best.Fitness,
		Reason:               string(result.Reason),
		TopCandidates:        top,
	})
	if err != nil {
		return RunSummary{}, err
	}

	if err := stats.AppendRunIndex(c.resultsDir, stats.RunIndexEntry{
		RunID:            req.RunID,
		TargetName:       req.Target.Name,
		PopulationSize:   req.Population,
		MaxIterations:    req.MaxIterations,
		Iterations:       result.Iterations,
		Seed:             req.Seed,
		Workers:          req.Workers,
		Reason:           string(result.Reason),
		FinalBestFitness: result.Best.Fitness,
		CreatedAtUTC:     now.Format(time.RFC3339Nano),
	}); err != nil {
		return RunSummary{}, err
	}

	return RunSummary{
		RunID:           req.RunID,
		ArtifactsDir:    filepath.Clean(runDir),
		BestSequence:    result.Best.Structure.Sequence,
		BestFitness:     result.Best.Fitness,
		Breakdown:       result.Best.Breakdown,
		Reason:          string(result.Reason),
		Iterations:      result.Iterations,
		BestByIteration: append([]float64(nil), result.FitnessHistory...),
	}, nil
}

func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	entries, err := stats.ListRunIndex(c.resultsDir)
	if err != nil {
		return nil, err
	}
	if len(entries) > req.Limit {
		entries = entries[:req.Limit]
	}

	out := make([]RunItem, 0, len(entries))
	for _, e := range entries {
		out = append(out, RunItem{
			RunID:            e.RunID,
			CreatedAtUTC:     e.CreatedAtUTC,
			TargetName:       e.TargetName,
			Seed:             e.Seed,
			Population:       e.PopulationSize,
			MaxIterations:    e.MaxIterations,
			Iterations:       e.Iterations,
			Reason:           e.Reason,
			FinalBestFitness: e.FinalBestFitness,
		})
	}
	return out, nil
}

func (c *Client) Export(_ context.Context, req ExportRequest) (ExportSummary, error) {
	if req.RunID != "" && req.Latest {
		return ExportSummary{}, errors.New("use either run id or latest")
	}
	if req.RunID == "" && !req.Latest {
		return ExportSummary{}, errors.New("export requires run id or latest")
	}
	if req.OutDir == "" {
		req.OutDir = c.exportsDir
	}

	runID := req.RunID
	if req.Latest {
		entries, err := stats.ListRunIndex(c.resultsDir)
		if err != nil {
			return ExportSummary{}, err
		}
		if len(entries) == 0 {
			return ExportSummary{}, errors.New("no runs available to export")
		}
		runID = entries[0].RunID
	}

	exportedDir, err := stats.ExportRunArtifacts(c.resultsDir, runID, req.OutDir)
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: filepath.Clean(exportedDir)}, nil
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, req.Limit, "fitness history")
	if err != nil {
		return nil, err
	}

	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		history, ok, err = stats.ReadFitnessHistory(c.resultsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		// Last resort: the CSV series survives when the JSON artifact
		// was pruned or hand-edited away.
		history, ok, err = stats.ReadFitnessSeries(c.resultsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(history) > req.Limit {
		history = history[:req.Limit]
	}
	return append([]float64(nil), history...), nil
}

func (c *Client) Diagnostics(ctx context.Context, req DiagnosticsRequest) ([]model.IterationDiagnostics, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, req.Limit, "diagnostics")
	if err != nil {
		return nil, err
	}

	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	diagnostics, ok, err := c.store.GetIterationDiagnostics(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		diagnostics, ok, err = stats.ReadIterationDiagnostics(c.resultsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("diagnostics not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(diagnostics) > req.Limit {
		diagnostics = diagnostics[:req.Limit]
	}
	out := make([]model.IterationDiagnostics, len(diagnostics))
	copy(out, diagnostics)
	return out, nil
}

func (c *Client) TopCandidates(ctx context.Context, req TopCandidatesRequest) ([]model.TopCandidateRecord, error) {
	runID, err := c.resolveRunID(req.RunID, req.Latest, req.Limit, "top candidates")
	if err != nil {
		return nil, err
	}

	if err := c.ensureInit(ctx); err != nil {
		return nil, err
	}
	top, ok, err := c.store.GetTopCandidates(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		top, ok, err = stats.ReadTopCandidates(c.resultsDir, runID)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, fmt.Errorf("top candidates not found for run id: %s", runID)
	}
	if req.Limit > 0 && len(top) > req.Limit {
		top = top[:req.Limit]
	}
	out := make([]model.TopCandidateRecord, len(top))
	copy(out, top)
	return out, nil
}

func (c *Client) GetRun(ctx context.Context, runID string) (model.DesignRun, bool, error) {
	if err := c.ensureInit(ctx); err != nil {
		return model.DesignRun{}, false, err
	}
	return c.store.GetDesignRun(ctx, runID)
}

func (c *Client) resolveRunID(runID string, latest bool, limit int, what string) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if limit < 0 {
		return "", errors.New("limit must be >= 0")
	}
	if latest {
		entries, err := stats.ListRunIndex(c.resultsDir)
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "", errors.New("no runs available")
		}
		return entries[0].RunID, nil
	}
	if runID == "" {
		return "", fmt.Errorf("%s requires run id or latest", what)
	}
	return runID, nil
}

func (c *Client) ensureInit(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

func topCandidates(result optimizer.Result, count int) []model.TopCandidateRecord {
	if count > len(result.FinalPopulation) {
		count = len(result.FinalPopulation)
	}
	top := make([]model.TopCandidateRecord, 0, count)
	for i := 0; i < count; i++ {
		candidate := result.FinalPopulation[i]
		top = append(top, model.TopCandidateRecord{
			VersionedRecord: currentVersions(),
			Rank:            i + 1,
			Fitness:         candidate.Fitness,
			Breakdown:       candidate.Breakdown,
			Structure:       candidate.Structure,
		})
	}
	return top
}

func currentVersions() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}
