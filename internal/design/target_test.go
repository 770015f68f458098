package design

import (
	"errors"
	"testing"
)

func validSpec() Spec {
	return Spec{
		Name:   "triad enzyme",
		Length: LengthRange{Min: 200, Max: 300},
		SecondaryStructure: SecondaryStructureTarget{
			MinHelix: 0.3, MaxHelix: 0.5,
			MinSheet: 0.2, MaxSheet: 0.4,
		},
		Properties: PropertyTarget{
			MinHydropathy: -0.5, MaxHydropathy: 0.5,
			MinCharge: -5, MaxCharge: 5,
		},
		CatalyticResidues: map[int]string{50: "H", 100: "D", 150: "S"},
		KeyResidues:       map[int]string{25: "P", 75: "G", 125: "W"},
	}
}

func TestNewTargetAcceptsValidSpec(t *testing.T) {
	target, err := NewTarget(validSpec())
	if err != nil {
		t.Fatalf("new target: %v", err)
	}
	if target.Length() != (LengthRange{Min: 200, Max: 300}) {
		t.Fatalf("unexpected length range: %+v", target.Length())
	}
	if got := len(target.FixedPositions()); got != 6 {
		t.Fatalf("expected 6 fixed positions, got %d", got)
	}
	if !target.IsFixed(50) || !target.IsFixed(25) || target.IsFixed(26) {
		t.Fatal("fixed position lookup mismatch")
	}
}

func TestNewTargetRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Spec)
	}{
		{"inverted length range", func(s *Spec) { s.Length = LengthRange{Min: 300, Max: 200} }},
		{"zero length range", func(s *Spec) { s.Length = LengthRange{} }},
		{"inverted helix band", func(s *Spec) { s.SecondaryStructure.MinHelix = 0.6 }},
		{"helix band above one", func(s *Spec) { s.SecondaryStructure.MaxHelix = 1.5 }},
		{"inverted sheet band", func(s *Spec) { s.SecondaryStructure.MinSheet = 0.9 }},
		{"inverted hydropathy band", func(s *Spec) { s.Properties.MinHydropathy = 1.0 }},
		{"inverted charge band", func(s *Spec) { s.Properties.MinCharge = 10 }},
		{"catalytic position past max length", func(s *Spec) { s.CatalyticResidues[301] = "H" }},
		{"catalytic position zero", func(s *Spec) { s.CatalyticResidues[0] = "H" }},
		{"empty catalytic set", func(s *Spec) { s.CatalyticResidues[60] = "" }},
		{"non-residue catalytic symbol", func(s *Spec) { s.CatalyticResidues[60] = "HZ" }},
		{"key position past max length", func(s *Spec) { s.KeyResidues[400] = "G" }},
		{"multi-symbol key residue", func(s *Spec) { s.KeyResidues[30] = "GP" }},
		{"non-residue key symbol", func(s *Spec) { s.KeyResidues[30] = "B" }},
		{"catalytic and key clash", func(s *Spec) { s.KeyResidues[50] = "H" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := validSpec()
			tc.mutate(&spec)
			if _, err := NewTarget(spec); !errors.Is(err, ErrInvalidTarget) {
				t.Fatalf("expected ErrInvalidTarget, got %v", err)
			}
		})
	}
}

func TestSatisfiesConstraint(t *testing.T) {
	spec := validSpec()
	spec.CatalyticResidues[50] = "HKR"
	target, err := NewTarget(spec)
	if err != nil {
		t.Fatalf("new target: %v", err)
	}

	if !target.SatisfiesConstraint(50, 'K') {
		t.Fatal("expected K allowed at catalytic position 50")
	}
	if target.SatisfiesConstraint(50, 'A') {
		t.Fatal("expected A rejected at catalytic position 50")
	}
	if !target.SatisfiesConstraint(25, 'P') || target.SatisfiesConstraint(25, 'G') {
		t.Fatal("key residue constraint mismatch at position 25")
	}
	if !target.SatisfiesConstraint(26, 'A') {
		t.Fatal("unconstrained position must always satisfy")
	}
}

func TestCatalyticResiduesReturnsCopy(t *testing.T) {
	target, err := NewTarget(validSpec())
	if err != nil {
		t.Fatalf("new target: %v", err)
	}
	first := target.CatalyticResidues()
	first[50][0] = 'X'
	second := target.CatalyticResidues()
	if second[50][0] != 'H' {
		t.Fatal("catalytic residue map must not share backing storage")
	}
}

func TestAlphabet(t *testing.T) {
	if len(Alphabet) != 20 {
		t.Fatalf("expected 20 residues, got %d", len(Alphabet))
	}
	if !IsSequence("ACDEFGHIKLMNPQRSTVWY") {
		t.Fatal("full alphabet must validate")
	}
	if IsSequence("ACDB") || IsResidue('Z') || IsResidue('a') {
		t.Fatal("non-standard symbols must not validate")
	}
}
