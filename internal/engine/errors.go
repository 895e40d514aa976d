package engine

import (
	"errors"

	"github.com/scanbots/arena/internal/rng"
)

var (
	// ErrInvalidCombatant is returned when a fighter fails validation.
	ErrInvalidCombatant = errors.New("invalid combatant")
	// ErrDuplicateID is returned when both fighters share an id.
	ErrDuplicateID = errors.New("combatants share the same id")
	// ErrInvalidItem is returned for an unknown item kind.
	ErrInvalidItem = errors.New("invalid item")
	// ErrEmptySeed is returned when the battle seed is blank.
	ErrEmptySeed = rng.ErrEmptySeed
)
