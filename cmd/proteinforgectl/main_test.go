package main

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Abm32/proteinforge/internal/stats"
)

func TestRunRequiresCommand(t *testing.T) {
	if err := run(context.Background(), nil); err == nil {
		t.Fatal("expected usage error")
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if err := run(context.Background(), []string{"bogus"}); err == nil {
		t.Fatal("expected unknown command error")
	}
}

func TestRunCommandEndToEnd(t *testing.T) {
	ctx := context.Background()
	results := filepath.Join(t.TempDir(), "results")
	exports := filepath.Join(t.TempDir(), "exports")

	configPath := writeConfig(t, `{
		"target": {
			"name": "small-enzyme",
			"length_range": {"min": 20, "max": 30},
			"secondary_structure": {"min_helix": 0.1, "max_helix": 0.9, "min_sheet": 0.0, "max_sheet": 0.9},
			"properties": {"min_hydropathy": -3, "max_hydropathy": 3, "min_charge": -10, "max_charge": 10},
			"key_residues": {"10": "G"}
		}
	}`)

	err := run(ctx, []string{
		"run",
		"-config", configPath,
		"-run-id", "run-cli",
		"-iters", "5",
		"-pop", "8",
		"-seed", "7",
		"-workers", "2",
		"-results-dir", results,
	})
	if err != nil {
		t.Fatalf("run command: %v", err)
	}
	if _, err := os.Stat(filepath.Join(results, "run-cli", "config.json")); err != nil {
		t.Fatalf("missing run artifacts: %v", err)
	}

	if err := run(ctx, []string{"runs", "-results-dir", results}); err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if err := run(ctx, []string{"history", "-latest", "-results-dir", results}); err != nil {
		t.Fatalf("history command: %v", err)
	}
	if err := run(ctx, []string{"diagnostics", "-run-id", "run-cli", "-results-dir", results}); err != nil {
		t.Fatalf("diagnostics command: %v", err)
	}
	if err := run(ctx, []string{"top", "-latest", "-limit", "3", "-results-dir", results}); err != nil {
		t.Fatalf("top command: %v", err)
	}
	if err := run(ctx, []string{"export", "-run-id", "run-cli", "-results-dir", results, "-out", exports}); err != nil {
		t.Fatalf("export command: %v", err)
	}
	if _, err := os.Stat(filepath.Join(exports, "run-cli", "fitness_history.json")); err != nil {
		t.Fatalf("missing exported artifacts: %v", err)
	}
}

func TestHistoryCommandRejectsAmbiguousSelector(t *testing.T) {
	results := filepath.Join(t.TempDir(), "results")
	err := run(context.Background(), []string{"history", "-run-id", "x", "-latest", "-results-dir", results})
	if err == nil {
		t.Fatal("expected error for run id plus latest")
	}
}

func TestRunFromRecordedConfig(t *testing.T) {
	ctx := context.Background()
	results := filepath.Join(t.TempDir(), "results")

	err := run(ctx, []string{
		"run",
		"-run-id", "run-orig",
		"-iters", "4",
		"-pop", "6",
		"-seed", "11",
		"-workers", "1",
		"-results-dir", results,
	})
	if err != nil {
		t.Fatalf("first run: %v", err)
	}

	err = run(ctx, []string{
		"run",
		"-from-run", "run-orig",
		"-run-id", "run-replay",
		"-results-dir", results,
	})
	if err != nil {
		t.Fatalf("replay run: %v", err)
	}

	original, ok, err := stats.ReadRunConfig(results, "run-orig")
	if err != nil || !ok {
		t.Fatalf("read original config: ok=%v err=%v", ok, err)
	}
	replayed, ok, err := stats.ReadRunConfig(results, "run-replay")
	if err != nil || !ok {
		t.Fatalf("read replayed config: ok=%v err=%v", ok, err)
	}
	replayed.RunID = original.RunID
	if !reflect.DeepEqual(replayed, original) {
		t.Fatalf("replayed config diverged:\n got %+v\nwant %+v", replayed, original)
	}
}

func TestRunRejectsConfigPlusFromRun(t *testing.T) {
	results := filepath.Join(t.TempDir(), "results")
	err := run(context.Background(), []string{
		"run", "-config", "whatever.json", "-from-run", "run-x", "-results-dir", results,
	})
	if err == nil {
		t.Fatal("expected usage error for config plus from-run")
	}
}

func TestRunFromUnknownRunFails(t *testing.T) {
	results := filepath.Join(t.TempDir(), "results")
	err := run(context.Background(), []string{
		"run", "-from-run", "no-such-run", "-results-dir", results,
	})
	if err == nil {
		t.Fatal("expected error for unrecorded run id")
	}
}
