package engine

import (
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/scanbots/arena/pkg/core"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks a pair of fighters and their side inputs before a battle.
func Validate(a, b core.CombatantRecord, in Inputs) error {
	for _, c := range []core.CombatantRecord{a, b} {
		if err := validatorInstance().Struct(c); err != nil {
			return fmt.Errorf("%w %q: %v", ErrInvalidCombatant, c.ID, err)
		}
	}
	if a.ID == b.ID {
		return fmt.Errorf("%w: %q", ErrDuplicateID, a.ID)
	}
	for _, item := range []core.ItemKind{in.A.Item, in.B.Item} {
		if !item.Valid() {
			return fmt.Errorf("%w: %q", ErrInvalidItem, item)
		}
	}
	return nil
}
