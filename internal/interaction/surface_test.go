package interaction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yard-planner/backend/internal/models"
	"github.com/yard-planner/backend/internal/yard"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func newSurface(t *testing.T, clock *fakeClock, records ...models.ContainerRecord) *Surface {
	t.Helper()
	e, err := yard.NewEngine(yard.DefaultLayout())
	require.NoError(t, err)
	_, err = e.Seed(records)
	require.NoError(t, err)
	return NewSurface(e, WithClock(clock.Now), WithToastDuration(2*time.Second))
}

func TestSurface_DragAndDrop(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	s := newSurface(t, clock,
		models.ContainerRecord{ContainerNumber: "L1", Size: "40ft", Location: "A1"},
		models.ContainerRecord{ContainerNumber: "S1", Size: "20ft", Location: "B2"},
	)

	_, err := s.DragOver(Target{Kind: TargetSlot, Location: "C1"})
	assert.ErrorIs(t, err, ErrNotDragging)

	require.NoError(t, s.DragStart("L1"))
	assert.Equal(t, "L1", s.Dragging())

	hover, err := s.DragOver(Target{Kind: TargetSlot, Location: "C1"})
	require.NoError(t, err)
	assert.Equal(t, FeedbackValid, hover.State)
	assert.Equal(t, []SlotFeedback{{"C1", FeedbackValid}, {"C2", FeedbackValid}}, hover.Slots)

	hover, err = s.DragOver(Target{Kind: TargetSlot, Location: "B1"})
	require.NoError(t, err)
	assert.Equal(t, FeedbackInvalid, hover.State)
	assert.Equal(t, string(yard.UnequalStackLevel), hover.Reason)

	// L1 still covers A2, so shifting it one slot along is refused.
	hover, err = s.DragOver(Target{Kind: TargetSlot, Location: "A2"})
	require.NoError(t, err)
	assert.Equal(t, FeedbackInvalid, hover.State)
	assert.Equal(t, string(yard.UnequalStackLevel), hover.Reason)

	// Hovering never raises a toast or moves anything.
	_, visible := s.ActiveToast()
	assert.False(t, visible)
	h, _ := s.Engine().Registry().HolderOf("L1")
	assert.Equal(t, models.SlotHolder("A1"), h)

	res, err := s.Drop(Target{Kind: TargetSlot, Location: "c1"})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, models.SlotHolder("A1"), res.Intent.From)
	assert.Len(t, res.Occupancy, 4)
	assert.Empty(t, s.Dragging())
}

func TestSurface_RejectedDropRaisesToast(t *testing.T) {
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	s := newSurface(t, clock,
		models.ContainerRecord{ContainerNumber: "L1", Size: "45ft", Location: "A1"},
	)

	require.NoError(t, s.DragStart("L1"))
	res, err := s.Drop(Target{Kind: TargetSlot, Location: "E6"})
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, yard.LastRowRestricted, res.Reason)
	require.NotNil(t, res.Rejection)
	assert.Equal(t, "E6", res.Rejection.Location)

	toast, visible := s.ActiveToast()
	require.True(t, visible)
	assert.Equal(t, "Cannot drop a large container in this space!", toast.Message)

	clock.t = clock.t.Add(1999 * time.Millisecond)
	_, visible = s.ActiveToast()
	assert.True(t, visible)

	clock.t = clock.t.Add(time.Millisecond)
	_, visible = s.ActiveToast()
	assert.False(t, visible)

	h, _ := s.Engine().Registry().HolderOf("L1")
	assert.Equal(t, models.SlotHolder("A1"), h)
}

func TestSurface_TruckAndFreeArea(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newSurface(t, clock,
		models.ContainerRecord{ContainerNumber: "L1", Size: "40ft", Location: "A1"},
		models.ContainerRecord{ContainerNumber: "S1", Size: "20ft", Location: "C3"},
	)

	var seen []DropResult
	s.observer = func(_ Intent, r DropResult) { seen = append(seen, r) }

	res, err := s.Move("L1", Target{Kind: TargetTruck})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.True(t, res.Truck.IsFull)

	hover, err := s.Preview("S1", Target{Kind: TargetTruck})
	require.NoError(t, err)
	assert.Equal(t, FeedbackInvalid, hover.State)

	res, err = s.Move("S1", Target{Kind: TargetTruck})
	require.NoError(t, err)
	assert.Equal(t, yard.TruckIncompatible, res.Reason)

	hover, err = s.Preview("S1", Target{Kind: TargetFreeArea})
	require.NoError(t, err)
	assert.Equal(t, FeedbackValid, hover.State)

	res, err = s.Move("L1", Target{Kind: TargetFreeArea})
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.False(t, res.Truck.IsFull)

	assert.Len(t, seen, 3)
}

func TestSurface_Errors(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	s := newSurface(t, clock, models.ContainerRecord{ContainerNumber: "S1", Size: "20ft"})

	var unknown *yard.UnknownUnitError
	assert.ErrorAs(t, s.DragStart("GHOST"), &unknown)

	_, err := s.Drop(Target{Kind: TargetTruck})
	assert.ErrorIs(t, err, ErrNotDragging)

	require.NoError(t, s.DragStart("S1"))
	s.DragEnd()
	assert.Empty(t, s.Dragging())

	_, err = s.Move("S1", Target{Kind: "roof"})
	assert.Error(t, err)

	_, err = Target{Kind: "roof"}.Holder()
	assert.Error(t, err)
	h, err := Target{Kind: TargetSlot, Location: " b4"}.Holder()
	require.NoError(t, err)
	assert.Equal(t, models.SlotHolder("B4"), h)
}
