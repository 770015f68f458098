package seqgen

import (
	"errors"
	"math/rand"
	"strings"
	"testing"

	"github.com/Abm32/proteinforge/internal/design"
)

func triadTarget(t *testing.T) design.Target {
	t.Helper()
	target, err := design.NewTarget(design.Spec{
		Length: design.LengthRange{Min: 200, Max: 300},
		SecondaryStructure: design.SecondaryStructureTarget{
			MinHelix: 0.3, MaxHelix: 0.5, MinSheet: 0.2, MaxSheet: 0.4,
		},
		Properties: design.PropertyTarget{
			MinHydropathy: -0.5, MaxHydropathy: 0.5, MinCharge: -5, MaxCharge: 5,
		},
		CatalyticResidues: map[int]string{50: "H", 100: "D", 150: "S"},
		KeyResidues:       map[int]string{25: "P", 75: "G", 125: "W"},
	})
	if err != nil {
		t.Fatalf("new target: %v", err)
	}
	return target
}

func randomTarget(t *testing.T, rng *rand.Rand) design.Target {
	t.Helper()
	min := 20 + rng.Intn(30)
	max := min + rng.Intn(40)
	spec := design.Spec{
		Length: design.LengthRange{Min: min, Max: max},
		SecondaryStructure: design.SecondaryStructureTarget{
			MinHelix: 0.1, MaxHelix: 0.6, MinSheet: 0.1, MaxSheet: 0.5,
		},
		Properties: design.PropertyTarget{
			MinHydropathy: -2, MaxHydropathy: 2, MinCharge: -10, MaxCharge: 10,
		},
		CatalyticResidues: map[int]string{},
		KeyResidues:       map[int]string{},
	}
	used := map[int]bool{}
	for i := 0; i < 3; i++ {
		pos := 1 + rng.Intn(min)
		if used[pos] {
			continue
		}
		used[pos] = true
		set := make([]byte, 1+rng.Intn(3))
		for j := range set {
			set[j] = design.Alphabet[rng.Intn(len(design.Alphabet))]
		}
		spec.CatalyticResidues[pos] = string(set)
	}
	for i := 0; i < 3; i++ {
		pos := 1 + rng.Intn(min)
		if used[pos] {
			continue
		}
		used[pos] = true
		spec.KeyResidues[pos] = string(design.Alphabet[rng.Intn(len(design.Alphabet))])
	}
	target, err := design.NewTarget(spec)
	if err != nil {
		t.Fatalf("random target: %v", err)
	}
	return target
}

func TestGenerateInitialHonorsConstraintsAcrossRandomTargets(t *testing.T) {
	seedRNG := rand.New(rand.NewSource(7))
	for i := 0; i < 50; i++ {
		target := randomTarget(t, seedRNG)
		gen := New(target)
		rng := rand.New(rand.NewSource(int64(i)))

		seq := gen.GenerateInitial(rng)
		lr := target.Length()
		if len(seq) < lr.Min || len(seq) > lr.Max {
			t.Fatalf("target %d: length %d outside [%d,%d]", i, len(seq), lr.Min, lr.Max)
		}
		if !design.IsSequence(seq) {
			t.Fatalf("target %d: non-standard residue in %q", i, seq)
		}
		if err := gen.Verify(seq); err != nil {
			t.Fatalf("target %d: %v", i, err)
		}
	}
}

func TestMutateNeverTouchesFixedPositionsOrLength(t *testing.T) {
	target := triadTarget(t)
	gen := New(target)
	rng := rand.New(rand.NewSource(21))
	seq := gen.GenerateInitial(rng)

	for i := 0; i < 100; i++ {
		mutated, err := gen.Mutate(rng, seq, 0.5)
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		if len(mutated) != len(seq) {
			t.Fatalf("length changed: %d -> %d", len(seq), len(mutated))
		}
		if err := gen.Verify(mutated); err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		seq = mutated
	}
}

func TestMutateRateZeroIsIdentity(t *testing.T) {
	gen := New(triadTarget(t))
	rng := rand.New(rand.NewSource(3))
	seq := gen.GenerateInitial(rng)

	mutated, err := gen.Mutate(rng, seq, 0)
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	if mutated != seq {
		t.Fatal("rate 0 must not change the sequence")
	}
}

func TestMutateRateOneChangesEveryFreePosition(t *testing.T) {
	gen := New(triadTarget(t))
	rng := rand.New(rand.NewSource(5))
	seq := gen.GenerateInitial(rng)

	mutated, err := gen.Mutate(rng, seq, 1)
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	target := triadTarget(t)
	for i := 0; i < len(seq); i++ {
		if target.IsFixed(i + 1) {
			continue
		}
		if mutated[i] == seq[i] {
			t.Fatalf("free position %d unchanged at rate 1", i+1)
		}
	}
}

func TestMutateRejectsOutOfRangeLength(t *testing.T) {
	gen := New(triadTarget(t))
	rng := rand.New(rand.NewSource(9))

	_, err := gen.Mutate(rng, strings.Repeat("A", 150), 0.1)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
	_, err = gen.Mutate(rng, strings.Repeat("A", 301), 0.1)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected ErrLengthMismatch, got %v", err)
	}
}

func TestCrossoverHonorsConstraints(t *testing.T) {
	target := triadTarget(t)
	gen := New(target)
	rng := rand.New(rand.NewSource(13))

	for i := 0; i < 100; i++ {
		a := gen.GenerateInitial(rng)
		b := gen.GenerateInitial(rng)
		child, err := gen.Crossover(rng, a, b)
		if err != nil {
			t.Fatalf("crossover: %v", err)
		}
		lr := target.Length()
		if len(child) < lr.Min || len(child) > lr.Max {
			t.Fatalf("child length %d outside [%d,%d]", len(child), lr.Min, lr.Max)
		}
		if err := gen.Verify(child); err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
	}
}

func TestCrossoverIdenticalParentsYieldIdenticalChild(t *testing.T) {
	gen := New(triadTarget(t))
	rng := rand.New(rand.NewSource(17))
	parent := gen.GenerateInitial(rng)

	for i := 0; i < 20; i++ {
		child, err := gen.Crossover(rng, parent, parent)
		if err != nil {
			t.Fatalf("crossover: %v", err)
		}
		if child != parent {
			t.Fatalf("draw %d: child diverged from identical parents", i)
		}
	}
}

func TestCrossoverPreservesCatalyticAlleleOfIdenticalParents(t *testing.T) {
	// A multi-symbol allowed set is the interesting case: the parent's
	// feasible pick must survive recombination rather than being
	// replaced by another member of the set.
	target, err := design.NewTarget(design.Spec{
		Length: design.LengthRange{Min: 20, Max: 20},
		SecondaryStructure: design.SecondaryStructureTarget{
			MinHelix: 0, MaxHelix: 1, MinSheet: 0, MaxSheet: 1,
		},
		Properties: design.PropertyTarget{
			MinHydropathy: -5, MaxHydropathy: 5, MinCharge: -10, MaxCharge: 10,
		},
		CatalyticResidues: map[int]string{10: "HK"},
	})
	if err != nil {
		t.Fatalf("new target: %v", err)
	}
	gen := New(target)

	parent := strings.Repeat("A", 9) + "H" + strings.Repeat("A", 10)
	if err := gen.Verify(parent); err != nil {
		t.Fatalf("parent infeasible: %v", err)
	}
	for seed := int64(0); seed < 100; seed++ {
		child, err := gen.Crossover(rand.New(rand.NewSource(seed)), parent, parent)
		if err != nil {
			t.Fatalf("seed %d: crossover: %v", seed, err)
		}
		if child != parent {
			t.Fatalf("seed %d: child %q diverged from identical parents", seed, child)
		}
	}
}

func TestFixedLengthKeyResidueScenario(t *testing.T) {
	target, err := design.NewTarget(design.Spec{
		Length: design.LengthRange{Min: 10, Max: 10},
		SecondaryStructure: design.SecondaryStructureTarget{
			MinHelix: 0, MaxHelix: 1, MinSheet: 0, MaxSheet: 1,
		},
		Properties: design.PropertyTarget{
			MinHydropathy: -5, MaxHydropathy: 5, MinCharge: -10, MaxCharge: 10,
		},
		KeyResidues: map[int]string{5: "G"},
	})
	if err != nil {
		t.Fatalf("new target: %v", err)
	}
	gen := New(target)

	for seed := int64(0); seed < 100; seed++ {
		rng := rand.New(rand.NewSource(seed))
		seq := gen.GenerateInitial(rng)
		if len(seq) != 10 {
			t.Fatalf("seed %d: length %d, want 10", seed, len(seq))
		}
		if seq[4] != 'G' {
			t.Fatalf("seed %d: position 5 holds %q, want G", seed, string(seq[4]))
		}
	}
}

func TestGenerateInitialIsSeedReproducible(t *testing.T) {
	gen := New(triadTarget(t))
	a := gen.GenerateInitial(rand.New(rand.NewSource(99)))
	b := gen.GenerateInitial(rand.New(rand.NewSource(99)))
	if a != b {
		t.Fatal("same seed must produce the same initial sequence")
	}
}
