package engine

import "github.com/scanbots/arena/pkg/core"

// Inputs are the optional side modifiers for fighters A and B, in the
// order the caller passed them.
type Inputs struct {
	A core.SideInputs `json:"a"`
	B core.SideInputs `json:"b"`
}

// CanonicalPair is a matchup in canonical order: P1 has the smaller id.
type CanonicalPair struct {
	P1, P2   core.CombatantRecord
	In1, In2 core.SideInputs
	Swapped  bool
}

// Canonicalize orders two fighters by id and permutes their inputs with them.
func Canonicalize(a, b core.CombatantRecord, in Inputs) CanonicalPair {
	if b.ID < a.ID {
		return CanonicalPair{P1: b, P2: a, In1: in.B, In2: in.A, Swapped: true}
	}
	return CanonicalPair{P1: a, P2: b, In1: in.A, In2: in.B}
}
