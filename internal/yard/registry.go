package yard

import (
	"strings"

	"github.com/yard-planner/backend/internal/models"
)

type registryEntry struct {
	unit   *models.Unit
	holder models.Holder
}

// Registry tracks every unit and the holder it currently sits in.
type Registry struct {
	entries map[string]*registryEntry
	order   []string
	holders map[models.Holder][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*registryEntry),
		holders: make(map[models.Holder][]string),
	}
}

// Register adds a unit at its initial holder.
func (r *Registry) Register(unit models.Unit, holder models.Holder) error {
	unit.ID = strings.TrimSpace(unit.ID)
	if _, exists := r.entries[unit.ID]; exists {
		return &DuplicateUnitError{ID: unit.ID}
	}
	u := unit
	r.entries[u.ID] = &registryEntry{unit: &u, holder: holder}
	r.order = append(r.order, u.ID)
	r.holders[holder] = append(r.holders[holder], u.ID)
	return nil
}

// HolderOf returns the current holder of a unit.
func (r *Registry) HolderOf(id string) (models.Holder, error) {
	e, ok := r.entries[id]
	if !ok {
		return models.Holder{}, &UnknownUnitError{ID: id}
	}
	return e.holder, nil
}

// Unit returns the registered unit.
func (r *Registry) Unit(id string) (*models.Unit, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, &UnknownUnitError{ID: id}
	}
	return e.unit, nil
}

// UnitsIn returns the ids held by a holder in insertion order.
func (r *Registry) UnitsIn(holder models.Holder) []string {
	return append([]string(nil), r.holders[holder]...)
}

// Units returns all units in registration order.
func (r *Registry) Units() []*models.Unit {
	out := make([]*models.Unit, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].unit)
	}
	return out
}

// Len returns the number of registered units.
func (r *Registry) Len() int { return len(r.order) }

// relocate moves a unit from its holder's list to the end of another's.
func (r *Registry) relocate(id string, to models.Holder) {
	e := r.entries[id]
	from := e.holder
	list := r.holders[from]
	for i, u := range list {
		if u == id {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(r.holders, from)
	} else {
		r.holders[from] = list
	}
	e.holder = to
	r.holders[to] = append(r.holders[to], id)
}
