package yard

import "github.com/yard-planner/backend/internal/models"

// Validator decides whether a unit may be placed on a target slot. It never
// mutates the grid, so hover previews can call it as often as they like.
type Validator struct {
	grid *Grid
}

// NewValidator creates a validator over grid.
func NewValidator(grid *Grid) *Validator {
	return &Validator{grid: grid}
}

// Validate returns nil when unit may start on target, or a *RejectionError.
// Checks run in order and stop at the first failure: span, stack level and
// restricted slots for long units, then capacity. Counts are taken as they
// stand, so a unit still sitting in the yard counts toward its own slots.
func (v *Validator) Validate(unit *models.Unit, target string) error {
	reject := func(kind RejectionKind) *RejectionError {
		return &RejectionError{Kind: kind, UnitID: unit.ID, Location: NormalizeLocation(target)}
	}

	start, ok := v.grid.SlotAt(target)
	if !ok {
		return reject(OutOfBounds)
	}
	span, ok := v.grid.Span(start, unit.SizeClass.Span())
	if !ok {
		return reject(OutOfBounds)
	}

	if len(span) == 2 {
		if span[0].Count() != span[1].Count() {
			return reject(UnequalStackLevel)
		}
		if v.grid.IsRestrictedForLong(start.Location) {
			return reject(LastRowRestricted)
		}
	}

	for _, s := range span {
		if s.Count() >= s.Capacity {
			rej := reject(CapacityExceeded)
			rej.Capacity = s.Capacity
			return rej
		}
	}
	return nil
}
