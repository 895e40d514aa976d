// pkg/core/combatant.go
package core

// Stats holds the base battle stats of a robot.
// Shield is only set for boss-shield fighters.
type Stats struct {
	HP      int `json:"hp" validate:"gt=0"`
	Attack  int `json:"attack" validate:"gte=0"`
	Defense int `json:"defense" validate:"gte=0"`
	Speed   int `json:"speed" validate:"gte=0"`
	Shield  int `json:"shield,omitempty" validate:"gte=0"`
}

// Skill is a named special move. Power is a percentage applied to base damage.
type Skill struct {
	Name  string `json:"name" validate:"required"`
	Power int    `json:"power" validate:"gte=100,lte=400"`
}

// Cosmetic describes how a robot looks. The simulation never reads it.
type Cosmetic struct {
	Parts  map[string]string `json:"parts,omitempty"`
	Colors []string          `json:"colors,omitempty"`
}

// CombatantRecord is a fighter's battle-relevant snapshot.
type CombatantRecord struct {
	ID       string   `json:"id" validate:"required"`
	Name     string   `json:"name"`
	Stats    Stats    `json:"stats"`
	Element  string   `json:"element,omitempty"`
	Role     string   `json:"role,omitempty"`
	Skills   []Skill  `json:"skills,omitempty" validate:"dive"`
	Cosmetic Cosmetic `json:"cosmetic"`
}

// DisplayName returns Name, falling back to ID.
func (c CombatantRecord) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

// ItemKind is a single-use consumable carried into battle.
type ItemKind string

const (
	ItemNone    ItemKind = ""
	ItemBoost   ItemKind = "BOOST"   // multiplies the first landed hit
	ItemRepair  ItemKind = "REPAIR"  // heals once when HP runs low
	ItemBarrier ItemKind = "BARRIER" // guards the first landed incoming hit
)

// Valid reports whether k is a known item kind (including none).
func (k ItemKind) Valid() bool {
	switch k {
	case ItemNone, ItemBoost, ItemRepair, ItemBarrier:
		return true
	}
	return false
}

// SideInputs are the optional per-side modifiers chosen before a battle.
type SideInputs struct {
	Cheer bool     `json:"cheer,omitempty"`
	Item  ItemKind `json:"item,omitempty"`
}

// Side labels a canonical battle side.
type Side string

const (
	SideP1   Side = "P1"
	SideP2   Side = "P2"
	SideBoth Side = "BOTH"
)

// Other returns the opposing side.
func (s Side) Other() Side {
	switch s {
	case SideP1:
		return SideP2
	case SideP2:
		return SideP1
	}
	return s
}
