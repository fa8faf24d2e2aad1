// Package yard implements the container-yard placement engine: the slot grid,
// the unit registry, placement validation and the move operations that keep
// slot, truck and free-area occupancy consistent.
package yard

import (
	"fmt"
	"strconv"
	"strings"
)

// Adjacency selects how the partner slot of a long unit is found.
type Adjacency string

const (
	// AdjacencyLinear pairs ordinal k with k+1 in row-major order, so a pair
	// may wrap from the last column of one row to the first of the next.
	AdjacencyLinear Adjacency = "linear"
	// AdjacencyRow only pairs slots that share a row.
	AdjacencyRow Adjacency = "row"
)

const (
	DefaultColumns  = 6
	DefaultCapacity = 5
)

// DefaultRows are the yard row letters in traversal order.
var DefaultRows = []string{"A", "B", "C", "D", "E", "F", "G"}

// Layout describes the yard dimensions and the placement policy knobs.
type Layout struct {
	Rows      []string
	Columns   int
	Capacity  int
	Adjacency Adjacency
	// RestrictedLongSlots are target locations a long unit may never start on.
	RestrictedLongSlots []string
}

// DefaultLayout returns the 7x6 yard with capacity 5, linear adjacency and the
// last column of every row closed to long units.
func DefaultLayout() Layout {
	rows := append([]string(nil), DefaultRows...)
	return Layout{
		Rows:                rows,
		Columns:             DefaultColumns,
		Capacity:            DefaultCapacity,
		Adjacency:           AdjacencyLinear,
		RestrictedLongSlots: LastColumnSlots(rows, DefaultColumns),
	}
}

// LegacyRestrictedSlots is the restricted set used by the original dashboard,
// which left F6 and G6 open.
func LegacyRestrictedSlots() []string {
	return []string{"A6", "B6", "C6", "D6", "E6"}
}

// LastColumnSlots lists the final-column location of every row.
func LastColumnSlots(rows []string, columns int) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, LocationCode(r, columns))
	}
	return out
}

// LocationCode builds a slot code such as "A3".
func LocationCode(row string, column int) string {
	return strings.ToUpper(row) + strconv.Itoa(column)
}

// NormalizeLocation upper-cases and trims a location code.
func NormalizeLocation(loc string) string {
	return strings.ToUpper(strings.TrimSpace(loc))
}

// Validate checks the layout for usable dimensions.
func (l Layout) Validate() error {
	if len(l.Rows) == 0 {
		return fmt.Errorf("layout needs at least one row")
	}
	if l.Columns <= 0 {
		return fmt.Errorf("layout columns must be positive, got %d", l.Columns)
	}
	if l.Capacity <= 0 {
		return fmt.Errorf("layout capacity must be positive, got %d", l.Capacity)
	}
	switch l.Adjacency {
	case AdjacencyLinear, AdjacencyRow:
	default:
		return fmt.Errorf("unknown adjacency policy %q", l.Adjacency)
	}
	seen := make(map[string]struct{}, len(l.Rows))
	for _, r := range l.Rows {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" {
			return fmt.Errorf("layout has an empty row label")
		}
		if _, dup := seen[r]; dup {
			return fmt.Errorf("duplicate row label %q", r)
		}
		seen[r] = struct{}{}
	}
	return nil
}
