package design

import (
	"errors"
	"fmt"
	"sort"
)

// ErrInvalidTarget marks a malformed design target. It is returned only
// from NewTarget; a constructed Target is always internally consistent.
var ErrInvalidTarget = errors.New("invalid design target")

// LengthRange bounds the candidate sequence length, inclusive.
type LengthRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// SecondaryStructureTarget bounds predicted content fractions.
type SecondaryStructureTarget struct {
	MinHelix float64 `json:"min_helix"`
	MaxHelix float64 `json:"max_helix"`
	MinSheet float64 `json:"min_sheet"`
	MaxSheet float64 `json:"max_sheet"`
}

// PropertyTarget bounds sequence-derived biophysical properties.
type PropertyTarget struct {
	MinHydropathy float64 `json:"min_hydropathy"`
	MaxHydropathy float64 `json:"max_hydropathy"`
	MinCharge     float64 `json:"min_charge"`
	MaxCharge     float64 `json:"max_charge"`
}

// Target is the immutable specification a design run optimizes toward.
// Catalytic residues are 1-indexed positions that must hold one symbol
// from an allowed set; key residues must hold one exact symbol.
type Target struct {
	name               string
	length             LengthRange
	secondaryStructure SecondaryStructureTarget
	properties         PropertyTarget
	catalyticResidues  map[int][]byte
	keyResidues        map[int]byte
}

// Spec is the plain constructible form of a Target, suitable for
// population from a config file or CLI layer.
type Spec struct {
	Name               string                   `json:"name"`
	Length             LengthRange              `json:"length_range"`
	SecondaryStructure SecondaryStructureTarget `json:"secondary_structure"`
	Properties         PropertyTarget           `json:"properties"`
	CatalyticResidues  map[int]string           `json:"catalytic_residues"`
	KeyResidues        map[int]string           `json:"key_residues"`
}

func NewTarget(spec Spec) (Target, error) {
	if spec.Length.Min <= 0 || spec.Length.Max < spec.Length.Min {
		return Target{}, fmt.Errorf("%w: length range [%d,%d] is empty or inverted", ErrInvalidTarget, spec.Length.Min, spec.Length.Max)
	}
	ss := spec.SecondaryStructure
	if err := checkBand("helix fraction", ss.MinHelix, ss.MaxHelix, 0, 1); err != nil {
		return Target{}, err
	}
	if err := checkBand("sheet fraction", ss.MinSheet, ss.MaxSheet, 0, 1); err != nil {
		return Target{}, err
	}
	props := spec.Properties
	if props.MinHydropathy > props.MaxHydropathy {
		return Target{}, fmt.Errorf("%w: hydropathy bounds min=%g > max=%g", ErrInvalidTarget, props.MinHydropathy, props.MaxHydropathy)
	}
	if props.MinCharge > props.MaxCharge {
		return Target{}, fmt.Errorf("%w: charge bounds min=%g > max=%g", ErrInvalidTarget, props.MinCharge, props.MaxCharge)
	}

	catalytic := make(map[int][]byte, len(spec.CatalyticResidues))
	for pos, allowed := range spec.CatalyticResidues {
		if pos < 1 || pos > spec.Length.Max {
			return Target{}, fmt.Errorf("%w: catalytic position %d outside [1,%d]", ErrInvalidTarget, pos, spec.Length.Max)
		}
		if len(allowed) == 0 {
			return Target{}, fmt.Errorf("%w: catalytic position %d has an empty allowed set", ErrInvalidTarget, pos)
		}
		set, err := residueSet(allowed)
		if err != nil {
			return Target{}, fmt.Errorf("%w: catalytic position %d: %v", ErrInvalidTarget, pos, err)
		}
		catalytic[pos] = set
	}

	key := make(map[int]byte, len(spec.KeyResidues))
	for pos, symbol := range spec.KeyResidues {
		if pos < 1 || pos > spec.Length.Max {
			return Target{}, fmt.Errorf("%w: key position %d outside [1,%d]", ErrInvalidTarget, pos, spec.Length.Max)
		}
		if len(symbol) != 1 || !IsResidue(symbol[0]) {
			return Target{}, fmt.Errorf("%w: key position %d requires a single residue symbol, got %q", ErrInvalidTarget, pos, symbol)
		}
		key[pos] = symbol[0]
	}
	for pos := range key {
		if _, clash := catalytic[pos]; clash {
			return Target{}, fmt.Errorf("%w: position %d is both catalytic and key", ErrInvalidTarget, pos)
		}
	}

	return Target{
		name:               spec.Name,
		length:             spec.Length,
		secondaryStructure: ss,
		properties:         props,
		catalyticResidues:  catalytic,
		keyResidues:        key,
	}, nil
}

func (t Target) Name() string                                { return t.name }
func (t Target) Length() LengthRange                         { return t.length }
func (t Target) SecondaryStructure() SecondaryStructureTarget { return t.secondaryStructure }
func (t Target) Properties() PropertyTarget                  { return t.properties }

// CatalyticResidues returns a copy of the position → allowed-set mapping.
func (t Target) CatalyticResidues() map[int][]byte {
	out := make(map[int][]byte, len(t.catalyticResidues))
	for pos, set := range t.catalyticResidues {
		out[pos] = append([]byte(nil), set...)
	}
	return out
}

// KeyResidues returns a copy of the position → symbol mapping.
func (t Target) KeyResidues() map[int]byte {
	out := make(map[int]byte, len(t.keyResidues))
	for pos, symbol := range t.keyResidues {
		out[pos] = symbol
	}
	return out
}

// FixedPositions returns every constrained position in ascending order.
func (t Target) FixedPositions() []int {
	out := make([]int, 0, len(t.catalyticResidues)+len(t.keyResidues))
	for pos := range t.catalyticResidues {
		out = append(out, pos)
	}
	for pos := range t.keyResidues {
		out = append(out, pos)
	}
	sort.Ints(out)
	return out
}

// IsFixed reports whether a 1-indexed position carries a residue constraint.
func (t Target) IsFixed(pos int) bool {
	if _, ok := t.keyResidues[pos]; ok {
		return true
	}
	_, ok := t.catalyticResidues[pos]
	return ok
}

// SatisfiesConstraint reports whether the symbol at a 1-indexed position
// honors that position's constraint. Unconstrained positions always satisfy.
func (t Target) SatisfiesConstraint(pos int, symbol byte) bool {
	if required, ok := t.keyResidues[pos]; ok {
		return symbol == required
	}
	allowed, ok := t.catalyticResidues[pos]
	if !ok {
		return true
	}
	for _, b := range allowed {
		if b == symbol {
			return true
		}
	}
	return false
}

func checkBand(what string, min, max, lo, hi float64) error {
	if min > max {
		return fmt.Errorf("%w: %s bounds min=%g > max=%g", ErrInvalidTarget, what, min, max)
	}
	if min < lo || max > hi {
		return fmt.Errorf("%w: %s bounds [%g,%g] outside [%g,%g]", ErrInvalidTarget, what, min, max, lo, hi)
	}
	return nil
}

func residueSet(allowed string) ([]byte, error) {
	set := make([]byte, 0, len(allowed))
	for i := 0; i < len(allowed); i++ {
		b := allowed[i]
		if !IsResidue(b) {
			return nil, fmt.Errorf("symbol %q is not a standard amino acid", string(b))
		}
		duplicate := false
		for _, existing := range set {
			if existing == b {
				duplicate = true
				break
			}
		}
		if !duplicate {
			set = append(set, b)
		}
	}
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })
	return set, nil
}
