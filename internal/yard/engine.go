package yard

import (
	"fmt"
	"strings"

	"github.com/yard-planner/backend/internal/models"
)

// Engine owns the grid, the registry and the truck bay, and is the only path
// that mutates them. It is not safe for concurrent use; callers serialise
// access the way a UI event loop would.
type Engine struct {
	grid      *Grid
	registry  *Registry
	validator *Validator
	truck     truckBay

	// spans records the slots each yard-held unit covers, primary slot first.
	spans map[string][]*Slot
}

// NewEngine creates an engine with an empty yard.
func NewEngine(layout Layout) (*Engine, error) {
	if err := layout.Validate(); err != nil {
		return nil, fmt.Errorf("invalid layout: %w", err)
	}
	grid := NewGrid(layout)
	return &Engine{
		grid:      grid,
		registry:  NewRegistry(),
		validator: NewValidator(grid),
		spans:     make(map[string][]*Slot),
	}, nil
}

// Grid exposes the slot grid for reads.
func (e *Engine) Grid() *Grid { return e.grid }

// Registry exposes the unit registry for reads.
func (e *Engine) Registry() *Registry { return e.registry }

// Validate runs the placement rules for a registered unit against target
// without changing anything.
func (e *Engine) Validate(id, target string) error {
	unit, err := e.registry.Unit(id)
	if err != nil {
		return err
	}
	return e.validator.Validate(unit, target)
}

// CandidateSlots returns the existing slots a unit would cover when dropped
// on target. Missing slots past the grid edge are left out.
func (e *Engine) CandidateSlots(id, target string) ([]*Slot, error) {
	unit, err := e.registry.Unit(id)
	if err != nil {
		return nil, err
	}
	start, ok := e.grid.SlotAt(target)
	if !ok {
		return nil, nil
	}
	span, _ := e.grid.Span(start, unit.SizeClass.Span())
	return span, nil
}

// MoveToSlot places a unit on target. The rules are checked against the
// current yard, before the unit is lifted from wherever it is. On success it returns the occupancy of every slot whose count changed.
func (e *Engine) MoveToSlot(id, target string) ([]models.SlotOccupancy, error) {
	unit, err := e.registry.Unit(id)
	if err != nil {
		return nil, err
	}
	if err := e.validator.Validate(unit, target); err != nil {
		return nil, err
	}

	start, _ := e.grid.SlotAt(target)
	span, _ := e.grid.Span(start, unit.SizeClass.Span())

	lifted := e.detach(id)
	e.attach(id, span)
	e.registry.relocate(id, models.SlotHolder(start.Location))

	return occupancies(lifted, span), nil
}

// MoveToTruck loads a unit onto the truck bay. A unit already on the truck
// counts toward the load like any other, so a long unit cannot be dropped
// back onto the truck it fills.
func (e *Engine) MoveToTruck(id string) error {
	unit, err := e.registry.Unit(id)
	if err != nil {
		return err
	}
	if err := checkTruck(e.truckUnits(), unit); err != nil {
		return err
	}
	e.detach(id)
	e.registry.relocate(id, models.TruckHolder)
	return nil
}

// CanLoad runs the truck loading policy for a unit without loading it.
func (e *Engine) CanLoad(id string) error {
	unit, err := e.registry.Unit(id)
	if err != nil {
		return err
	}
	return checkTruck(e.truckUnits(), unit)
}

// MoveToFreeArea stages a unit outside the yard and the truck.
func (e *Engine) MoveToFreeArea(id string) error {
	if _, err := e.registry.Unit(id); err != nil {
		return err
	}
	holder, _ := e.registry.HolderOf(id)
	if holder == models.FreeAreaHolder {
		return nil
	}
	e.detach(id)
	e.registry.relocate(id, models.FreeAreaHolder)
	return nil
}

// SetTruckDetails records the truck waiting at the loading bay.
func (e *Engine) SetTruckDetails(d models.TruckDetails) error {
	return e.truck.setDetails(d)
}

// Occupancy returns the count view of one slot.
func (e *Engine) Occupancy(location string) (models.SlotOccupancy, bool) {
	s, ok := e.grid.SlotAt(location)
	if !ok {
		return models.SlotOccupancy{}, false
	}
	return s.Occupancy(), true
}

// Truck returns the truck bay view.
func (e *Engine) Truck() models.TruckView {
	loaded := e.truckUnits()
	view := models.TruckView{
		Units:  e.registry.UnitsIn(models.TruckHolder),
		IsFull: truckIsFull(loaded),
	}
	if e.truck.details != nil {
		d := *e.truck.details
		view.Details = &d
	}
	return view
}

// Snapshot renders the complete yard state.
func (e *Engine) Snapshot() models.YardSnapshot {
	layout := e.grid.Layout()
	snap := models.YardSnapshot{
		Rows:     make([]string, 0, len(layout.Rows)),
		Columns:  layout.Columns,
		Slots:    make([]models.SlotView, 0, e.grid.Len()),
		Truck:    e.Truck(),
		FreeArea: e.registry.UnitsIn(models.FreeAreaHolder),
		Units:    make([]models.PlacedUnit, 0, e.registry.Len()),
	}
	for _, r := range layout.Rows {
		snap.Rows = append(snap.Rows, strings.ToUpper(strings.TrimSpace(r)))
	}
	for _, s := range e.grid.Slots() {
		snap.Slots = append(snap.Slots, models.SlotView{
			SlotOccupancy: s.Occupancy(),
			Row:           s.Row,
			Column:        s.Column,
			Capacity:      s.Capacity,
			IsLastRow:     s.IsLastRow(),
			Occupied:      s.Count() > 0,
			Units:         s.Units(),
		})
	}
	for _, u := range e.registry.Units() {
		h, _ := e.registry.HolderOf(u.ID)
		snap.Units = append(snap.Units, models.PlacedUnit{Unit: *u, Holder: h})
	}
	return snap
}

func (e *Engine) truckUnits() []*models.Unit {
	ids := e.registry.UnitsIn(models.TruckHolder)
	out := make([]*models.Unit, 0, len(ids))
	for _, id := range ids {
		if u, err := e.registry.Unit(id); err == nil {
			out = append(out, u)
		}
	}
	return out
}

// detach lifts a unit off the slots it covers, if any, and returns them.
func (e *Engine) detach(id string) []*Slot {
	span, ok := e.spans[id]
	if !ok {
		return nil
	}
	for _, s := range span {
		s.count--
	}
	span[0].unstore(id)
	delete(e.spans, id)
	return span
}

// attach stacks a unit on span; only the first slot stores the unit itself.
func (e *Engine) attach(id string, span []*Slot) {
	for _, s := range span {
		s.count++
	}
	span[0].store(id)
	e.spans[id] = span
}

func occupancies(groups ...[]*Slot) []models.SlotOccupancy {
	seen := make(map[*Slot]struct{})
	var out []models.SlotOccupancy
	for _, g := range groups {
		for _, s := range g {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s.Occupancy())
		}
	}
	return out
}
