package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/Abm32/proteinforge/internal/metrics"
	"github.com/Abm32/proteinforge/internal/stats"
	"github.com/Abm32/proteinforge/internal/storage"
	forge "github.com/Abm32/proteinforge/pkg/proteinforge"
)

const (
	resultsDir = "results"
	exportsDir = "exports"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "top":
		return runTop(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: proteinforgectl <init|run|runs|history|diagnostics|top|export> [flags]", msg)
}

func addStoreFlags(fs *flag.FlagSet) (storeKind, dbPath, results *string) {
	storeKind = fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath = fs.String("db-path", "proteinforge.db", "sqlite database path")
	results = fs.String("results-dir", resultsDir, "run artifacts directory")
	return storeKind, dbPath, results
}

func newClient(storeKind, dbPath, results string) (*forge.Client, error) {
	return forge.New(forge.Options{
		StoreKind:  storeKind,
		DBPath:     dbPath,
		ResultsDir: results,
		ExportsDir: exportsDir,
	})
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind, dbPath, results := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *results)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config JSON path")
	fromRun := fs.String("from-run", "", "replay the recorded config of a previous run (fresh run id unless -run-id is set)")
	runID := fs.String("run-id", "", "explicit run id (optional, defaults to a fresh uuid)")
	maxIterations := fs.Int("iters", 100, "iteration budget")
	population := fs.Int("pop", 20, "population size")
	mutationRate := fs.Float64("mutation-rate", 0.1, "per-position mutation probability")
	temperature := fs.Float64("temperature", 1.0, "initial annealing temperature")
	coolingRate := fs.Float64("cooling-rate", 0.99, "geometric cooling factor per iteration")
	crossoverRate := fs.Float64("crossover-rate", 0.8, "probability of crossover when proposing a candidate")
	eliteSize := fs.Int("elite", 2, "protected elite count")
	patience := fs.Int("patience", 20, "iterations without improvement before convergence")
	seed := fs.Int64("seed", 1, "rng seed")
	workers := fs.Int("workers", 4, "predictor worker count")
	refineAttempts := fs.Int("refine-attempts", 0, "post-run hill-climb attempts on the best candidate (0 disables)")
	wStability := fs.Float64("w-stability", 0.3, "stability term weight")
	wFunction := fs.Float64("w-function", 0.5, "function term weight")
	wStructure := fs.Float64("w-structure", 0.2, "structure term weight")
	predictorWindow := fs.Int("predictor-window", 0, "propensity smoothing window (0 uses the predictor default)")
	topCount := fs.Int("top-count", 5, "top candidates kept per run")
	metricsAddr := fs.String("metrics-addr", "", "serve Prometheus metrics on this address during the run (optional)")
	storeKind, dbPath, results := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	if *configPath != "" && *fromRun != "" {
		return usageError("use either -config or -from-run")
	}

	var req forge.RunRequest
	switch {
	case *configPath != "":
		loaded, err := loadRunRequestFromConfig(*configPath)
		if err != nil {
			return err
		}
		req = loaded
	case *fromRun != "":
		cfg, ok, err := stats.ReadRunConfig(*results, *fromRun)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no recorded config for run id: %s", *fromRun)
		}
		req = runRequestFromRecorded(cfg)
	default:
		req = forge.RunRequest{
			RunID:           *runID,
			Target:          demoTarget(),
			MaxIterations:   *maxIterations,
			Population:      *population,
			MutationRate:    mutationRate,
			Temperature:     *temperature,
			CoolingRate:     *coolingRate,
			CrossoverRate:   crossoverRate,
			EliteSize:       eliteSize,
			Patience:        *patience,
			Seed:            *seed,
			Workers:         *workers,
			RefineAttempts:  *refineAttempts,
			WeightStability: *wStability,
			WeightFunction:  *wFunction,
			WeightStructure: *wStructure,
			PredictorWindow: *predictorWindow,
			TopCount:        *topCount,
		}
	}

	if *configPath != "" || *fromRun != "" {
		if setFlags["run-id"] {
			req.RunID = *runID
		}
		if setFlags["iters"] {
			req.MaxIterations = *maxIterations
		}
		if setFlags["pop"] {
			req.Population = *population
		}
		if setFlags["mutation-rate"] {
			req.MutationRate = mutationRate
		}
		if setFlags["temperature"] {
			req.Temperature = *temperature
		}
		if setFlags["cooling-rate"] {
			req.CoolingRate = *coolingRate
		}
		if setFlags["crossover-rate"] {
			req.CrossoverRate = crossoverRate
		}
		if setFlags["elite"] {
			req.EliteSize = eliteSize
		}
		if setFlags["patience"] {
			req.Patience = *patience
		}
		if setFlags["seed"] {
			req.Seed = *seed
		}
		if setFlags["workers"] {
			req.Workers = *workers
		}
		if setFlags["refine-attempts"] {
			req.RefineAttempts = *refineAttempts
		}
		if setFlags["w-stability"] {
			req.WeightStability = *wStability
		}
		if setFlags["w-function"] {
			req.WeightFunction = *wFunction
		}
		if setFlags["w-structure"] {
			req.WeightStructure = *wStructure
		}
		if setFlags["predictor-window"] {
			req.PredictorWindow = *predictorWindow
		}
		if setFlags["top-count"] {
			req.TopCount = *topCount
		}
	}

	if *metricsAddr != "" {
		collector := metrics.NewCollector()
		req.Observer = collector

		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		server := &http.Server{Addr: *metricsAddr, Handler: mux}
		go func() {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				fmt.Fprintf(os.Stderr, "metrics server: %v\n", err)
			}
		}()
		defer func() {
			_ = server.Close()
		}()
	}

	client, err := newClient(*storeKind, *dbPath, *results)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run=%s target=%s reason=%s iterations=%d\n", summary.RunID, req.Target.Name, summary.Reason, summary.Iterations)
	fmt.Printf("best fitness=%.4f stability=%.4f function=%.4f structure=%.4f\n",
		summary.BestFitness, summary.Breakdown.Stability, summary.Breakdown.Function, summary.Breakdown.Structure)
	fmt.Printf("best sequence=%s\n", summary.BestSequence)
	fmt.Printf("artifacts=%s\n", summary.ArtifactsDir)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "maximum entries to list")
	storeKind, dbPath, results := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *results)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	items, err := client.Runs(ctx, forge.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	for _, item := range items {
		fmt.Printf("run=%s created=%s target=%s seed=%d pop=%d iters=%d/%d reason=%s best=%.4f\n",
			item.RunID, item.CreatedAtUTC, item.TargetName, item.Seed,
			item.Population, item.Iterations, item.MaxIterations, item.Reason, item.FinalBestFitness)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to inspect")
	latest := fs.Bool("latest", false, "inspect the most recent run")
	limit := fs.Int("limit", 0, "maximum entries to print (0 prints all)")
	storeKind, dbPath, results := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *results)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, forge.FitnessHistoryRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	for i, best := range history {
		fmt.Printf("iteration=%d best=%.6f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to inspect")
	latest := fs.Bool("latest", false, "inspect the most recent run")
	limit := fs.Int("limit", 0, "maximum entries to print (0 prints all)")
	storeKind, dbPath, results := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *results)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, forge.DiagnosticsRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	for _, diag := range diagnostics {
		fmt.Printf("iteration=%d best=%.6f mean=%.6f min=%.6f temp=%.6f accepted=%d rejected=%d failures=%d stall=%d\n",
			diag.Iteration, diag.BestFitness, diag.MeanFitness, diag.MinFitness,
			diag.Temperature, diag.Accepted, diag.Rejected, diag.PredictorFailures, diag.StallCount)
	}
	return nil
}

func runTop(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("top", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to inspect")
	latest := fs.Bool("latest", false, "inspect the most recent run")
	limit := fs.Int("limit", 0, "maximum candidates to print (0 prints all)")
	storeKind, dbPath, results := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *results)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	top, err := client.TopCandidates(ctx, forge.TopCandidatesRequest{RunID: *runID, Latest: *latest, Limit: *limit})
	if err != nil {
		return err
	}
	for _, candidate := range top {
		fmt.Printf("rank=%d fitness=%.4f stability=%.4f function=%.4f structure=%.4f sequence=%s\n",
			candidate.Rank, candidate.Fitness,
			candidate.Breakdown.Stability, candidate.Breakdown.Function, candidate.Breakdown.Structure,
			candidate.Structure.Sequence)
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id to export")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", exportsDir, "export destination directory")
	storeKind, dbPath, results := addStoreFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath, *results)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, forge.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Printf("exported run=%s dir=%s\n", exported.RunID, exported.Directory)
	return nil
}
