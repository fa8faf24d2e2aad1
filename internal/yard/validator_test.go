package yard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yard-planner/backend/internal/models"
)

func TestValidator_Validate(t *testing.T) {
	short := &models.Unit{ID: "S", SizeClass: models.SizeShort}
	long := &models.Unit{ID: "L", SizeClass: models.SizeLong}

	// stack puts n anonymous levels on a slot.
	stack := func(g *Grid, loc string, n int) {
		s, _ := g.SlotAt(loc)
		s.count += n
	}

	tests := []struct {
		name   string
		setup  func(*Grid)
		unit   *models.Unit
		target string
		want   RejectionKind // empty means accepted
	}{
		{name: "short on empty", unit: short, target: "A1"},
		{name: "unknown location", unit: short, target: "X1", want: OutOfBounds},
		{name: "long past the end", unit: long, target: "G6", want: OutOfBounds},
		{name: "long on equal stacks", setup: func(g *Grid) { stack(g, "B1", 2); stack(g, "B2", 2) }, unit: long, target: "B1"},
		{name: "long on unequal stacks", setup: func(g *Grid) { stack(g, "B2", 1) }, unit: long, target: "B1", want: UnequalStackLevel},
		{name: "unequal checked before restricted", setup: func(g *Grid) { stack(g, "B1", 1) }, unit: long, target: "A6", want: UnequalStackLevel},
		{name: "long on restricted slot", unit: long, target: "E6", want: LastRowRestricted},
		{name: "short on restricted slot", unit: short, target: "E6"},
		{name: "short on full slot", setup: func(g *Grid) { stack(g, "C3", 5) }, unit: short, target: "C3", want: CapacityExceeded},
		{name: "long on full pair", setup: func(g *Grid) { stack(g, "C3", 5); stack(g, "C4", 5) }, unit: long, target: "C3", want: CapacityExceeded},
		{name: "short on nearly full slot", setup: func(g *Grid) { stack(g, "C3", 4) }, unit: short, target: "C3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGrid(DefaultLayout())
			if tt.setup != nil {
				tt.setup(g)
			}
			err := NewValidator(g).Validate(tt.unit, tt.target)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			rej, ok := AsRejection(err)
			if assert.True(t, ok, "expected rejection, got %v", err) {
				assert.Equal(t, tt.want, rej.Kind)
				assert.NotEmpty(t, rej.Message())
			}
		})
	}
}
