package seqgen

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/Abm32/proteinforge/internal/design"
)

// ErrLengthMismatch marks a sequence whose length falls outside the
// target's length range.
var ErrLengthMismatch = errors.New("sequence length outside target range")

// ErrConstraintViolation marks a fixed-position constraint breach. It is
// an internal invariant failure: constraint re-application guarantees it
// never happens, so callers should treat it as a defect, not recover.
var ErrConstraintViolation = errors.New("fixed-position constraint violated")

// Generator produces candidate sequences consistent with one design
// target's length range and fixed-position constraints. Constraints are
// enforced by post-hoc correction rather than rejection sampling, so
// every call yields a feasible candidate in one pass.
type Generator struct {
	target design.Target
}

func New(target design.Target) *Generator {
	return &Generator{target: target}
}

// GenerateInitial returns a uniformly random sequence of random length
// within the target's range, with every fixed position corrected. The
// drawn length never falls below the largest fixed position, so every
// constraint has a slot to land in.
func (g *Generator) GenerateInitial(rng *rand.Rand) string {
	lr := g.target.Length()
	min := lr.Min
	if fixed := g.target.FixedPositions(); len(fixed) > 0 {
		if last := fixed[len(fixed)-1]; last > min {
			min = last
		}
	}
	length := min
	if lr.Max > min {
		length = min + rng.Intn(lr.Max-min+1)
	}
	seq := make([]byte, length)
	for i := range seq {
		seq[i] = design.Alphabet[rng.Intn(len(design.Alphabet))]
	}
	g.applyConstraints(rng, seq)
	return string(seq)
}

// Mutate applies independent point mutations: each non-fixed position is
// replaced, with probability rate, by a uniformly chosen different
// symbol. Fixed positions are never touched. Length is preserved.
func (g *Generator) Mutate(rng *rand.Rand, sequence string, rate float64) (string, error) {
	if err := g.checkLength(sequence); err != nil {
		return "", err
	}
	seq := []byte(sequence)
	for i := range seq {
		if g.target.IsFixed(i + 1) {
			continue
		}
		if rng.Float64() >= rate {
			continue
		}
		seq[i] = differentSymbol(rng, seq[i])
	}
	return string(seq), nil
}

// Crossover recombines two parents at a single cut point within the
// shorter parent's length; the child takes the first parent's head and
// the second parent's tail, then has every fixed position re-applied so
// it is feasible even when recombination placed a violating symbol.
func (g *Generator) Crossover(rng *rand.Rand, parentA, parentB string) (string, error) {
	if err := g.checkLength(parentA); err != nil {
		return "", fmt.Errorf("parent a: %w", err)
	}
	if err := g.checkLength(parentB); err != nil {
		return "", fmt.Errorf("parent b: %w", err)
	}

	shorter := len(parentA)
	if len(parentB) < shorter {
		shorter = len(parentB)
	}
	cut := shorter
	if shorter > 1 {
		cut = 1 + rng.Intn(shorter-1)
	}

	child := make([]byte, 0, len(parentB))
	child = append(child, parentA[:cut]...)
	child = append(child, parentB[cut:]...)
	g.applyConstraints(rng, child)
	return string(child), nil
}

// Verify checks every fixed-position constraint on a produced sequence.
// A failure indicates a generator defect and must propagate to the caller.
func (g *Generator) Verify(sequence string) error {
	for _, pos := range g.target.FixedPositions() {
		if pos > len(sequence) {
			return fmt.Errorf("%w: position %d beyond sequence length %d", ErrConstraintViolation, pos, len(sequence))
		}
		if !g.target.SatisfiesConstraint(pos, sequence[pos-1]) {
			return fmt.Errorf("%w: position %d holds %q", ErrConstraintViolation, pos, string(sequence[pos-1]))
		}
	}
	return nil
}

func (g *Generator) checkLength(sequence string) error {
	lr := g.target.Length()
	if len(sequence) < lr.Min || len(sequence) > lr.Max {
		return fmt.Errorf("%w: got %d, want [%d,%d]", ErrLengthMismatch, len(sequence), lr.Min, lr.Max)
	}
	return nil
}

// applyConstraints corrects every violated fixed position in place: key
// residues get their exact symbol, violated catalytic residues a uniform
// pick from the allowed set. Positions already satisfying their
// constraint are left alone, so a feasible parent passes through
// unchanged. Positions beyond the sequence end are skipped; Verify
// reports them.
func (g *Generator) applyConstraints(rng *rand.Rand, seq []byte) {
	key := g.target.KeyResidues()
	catalytic := g.target.CatalyticResidues()
	// Ascending position order keeps rng consumption deterministic.
	for _, pos := range g.target.FixedPositions() {
		if pos > len(seq) {
			continue
		}
		if symbol, ok := key[pos]; ok {
			seq[pos-1] = symbol
			continue
		}
		if g.target.SatisfiesConstraint(pos, seq[pos-1]) {
			continue
		}
		allowed := catalytic[pos]
		seq[pos-1] = allowed[rng.Intn(len(allowed))]
	}
}

func differentSymbol(rng *rand.Rand, current byte) byte {
	for {
		next := design.Alphabet[rng.Intn(len(design.Alphabet))]
		if next != current {
			return next
		}
	}
}
