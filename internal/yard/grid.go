package yard

import (
	"strings"

	"github.com/yard-planner/backend/internal/models"
)

// Slot is one fixed-capacity stacking position in the yard.
type Slot struct {
	Location string
	Row      string
	Column   int
	Index    int // row-major ordinal
	Capacity int

	lastColumn bool
	count      int      // units covering this slot, including long-unit partners
	units      []string // units stored here; a long unit is stored on its first slot only
}

// Count returns the number of units currently covering the slot.
func (s *Slot) Count() int { return s.count }

// Remaining returns the free stack levels of the slot.
func (s *Slot) Remaining() int { return s.Capacity - s.count }

// IsLastRow reports whether the slot is in the final column of its row.
func (s *Slot) IsLastRow() bool { return s.lastColumn }

// Units returns the ids stored on this slot in arrival order.
func (s *Slot) Units() []string {
	return append([]string(nil), s.units...)
}

// Occupancy returns the count view of the slot.
func (s *Slot) Occupancy() models.SlotOccupancy {
	return models.SlotOccupancy{Location: s.Location, Count: s.count, Remaining: s.Remaining()}
}

func (s *Slot) store(id string) {
	s.units = append(s.units, id)
}

func (s *Slot) unstore(id string) {
	for i, u := range s.units {
		if u == id {
			s.units = append(s.units[:i], s.units[i+1:]...)
			return
		}
	}
}

// Grid is the ordered set of yard slots. It is created once per layout and
// never grows or shrinks; only slot counts and contents change.
type Grid struct {
	layout     Layout
	slots      []*Slot
	byLocation map[string]*Slot
	restricted map[string]struct{}
}

// NewGrid builds every slot of the layout in row-major order.
func NewGrid(layout Layout) *Grid {
	g := &Grid{
		layout:     layout,
		slots:      make([]*Slot, 0, len(layout.Rows)*layout.Columns),
		byLocation: make(map[string]*Slot, len(layout.Rows)*layout.Columns),
		restricted: make(map[string]struct{}, len(layout.RestrictedLongSlots)),
	}
	for _, row := range layout.Rows {
		row = strings.ToUpper(strings.TrimSpace(row))
		for col := 1; col <= layout.Columns; col++ {
			s := &Slot{
				Location:   LocationCode(row, col),
				Row:        row,
				Column:     col,
				Index:      len(g.slots),
				Capacity:   layout.Capacity,
				lastColumn: col == layout.Columns,
			}
			g.slots = append(g.slots, s)
			g.byLocation[s.Location] = s
		}
	}
	for _, loc := range layout.RestrictedLongSlots {
		g.restricted[NormalizeLocation(loc)] = struct{}{}
	}
	return g
}

// Layout returns the layout the grid was built from.
func (g *Grid) Layout() Layout { return g.layout }

// Len returns the number of slots.
func (g *Grid) Len() int { return len(g.slots) }

// Slots returns the slots in row-major order.
func (g *Grid) Slots() []*Slot { return g.slots }

// SlotAt looks a slot up by location code.
func (g *Grid) SlotAt(location string) (*Slot, bool) {
	s, ok := g.byLocation[NormalizeLocation(location)]
	return s, ok
}

// SlotIndex returns the row-major ordinal of a location.
func (g *Grid) SlotIndex(location string) (int, bool) {
	s, ok := g.SlotAt(location)
	if !ok {
		return -1, false
	}
	return s.Index, true
}

// SlotByIndex returns the slot at a row-major ordinal.
func (g *Grid) SlotByIndex(i int) (*Slot, bool) {
	if i < 0 || i >= len(g.slots) {
		return nil, false
	}
	return g.slots[i], true
}

// OccupancyOf returns the number of units covering a location.
func (g *Grid) OccupancyOf(location string) (int, bool) {
	s, ok := g.SlotAt(location)
	if !ok {
		return 0, false
	}
	return s.count, true
}

// Span returns the n slots starting at start under the adjacency policy.
// The second result is false when any of them does not exist.
func (g *Grid) Span(start *Slot, n int) ([]*Slot, bool) {
	out := make([]*Slot, 0, n)
	for i := 0; i < n; i++ {
		s, ok := g.SlotByIndex(start.Index + i)
		if !ok {
			return out, false
		}
		if g.layout.Adjacency == AdjacencyRow && s.Row != start.Row {
			return out, false
		}
		out = append(out, s)
	}
	return out, true
}

// IsRestrictedForLong reports whether a long unit may not start on location.
func (g *Grid) IsRestrictedForLong(location string) bool {
	_, ok := g.restricted[NormalizeLocation(location)]
	return ok
}
