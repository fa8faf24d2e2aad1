// Package interaction turns drag-and-drop gestures into move intents for the
// yard engine and keeps the feedback the dashboard renders while dragging:
// hover highlights and a short-lived error toast.
package interaction

import (
	"errors"
	"fmt"
	"time"

	"github.com/yard-planner/backend/internal/models"
	"github.com/yard-planner/backend/internal/yard"
)

// DefaultToastDuration is how long a rejection message stays visible.
const DefaultToastDuration = 2 * time.Second

var (
	// ErrNotDragging is returned for hover and drop events without a drag start.
	ErrNotDragging = errors.New("no container is being dragged")
	// ErrUnknownTarget is returned for drop zones of an unknown kind.
	ErrUnknownTarget = errors.New("unknown drop target kind")
)

// TargetKind is the kind of drop zone under the pointer.
type TargetKind string

const (
	TargetSlot     TargetKind = "slot"
	TargetTruck    TargetKind = "truck"
	TargetFreeArea TargetKind = "free"
)

// Target is a drop zone: a yard slot, the truck bay or the free area.
type Target struct {
	Kind     TargetKind `json:"kind" msgpack:"kind"`
	Location string     `json:"location,omitempty" msgpack:"location,omitempty"`
}

// Holder converts the target into the holder it designates.
func (t Target) Holder() (models.Holder, error) {
	switch t.Kind {
	case TargetSlot:
		return models.SlotHolder(yard.NormalizeLocation(t.Location)), nil
	case TargetTruck:
		return models.TruckHolder, nil
	case TargetFreeArea:
		return models.FreeAreaHolder, nil
	}
	return models.Holder{}, fmt.Errorf("%w %q", ErrUnknownTarget, t.Kind)
}

// Intent is a request to move one unit to one target. It is consumed once.
type Intent struct {
	UnitID string        `json:"unitId"`
	From   models.Holder `json:"from"`
	To     Target        `json:"to"`
}

// Feedback is the highlight state of a drop zone while hovering.
type Feedback string

const (
	FeedbackValid   Feedback = "valid"
	FeedbackInvalid Feedback = "invalid"
	FeedbackNeutral Feedback = "neutral"
)

// SlotFeedback is the highlight of one candidate slot.
type SlotFeedback struct {
	Location string   `json:"location" msgpack:"location"`
	State    Feedback `json:"state" msgpack:"state"`
}

// Hover is the feedback for the zone under the pointer. Slots lists the
// candidate slots of a slot target; every other slot is neutral.
type Hover struct {
	Target Target         `json:"target" msgpack:"target"`
	State  Feedback       `json:"state" msgpack:"state"`
	Slots  []SlotFeedback `json:"slots,omitempty" msgpack:"slots,omitempty"`
	Reason string         `json:"reason,omitempty" msgpack:"reason,omitempty"`
}

// DropResult reports the outcome of a dispatched intent.
type DropResult struct {
	Intent    Intent                 `json:"intent"`
	Accepted  bool                   `json:"accepted"`
	Occupancy []models.SlotOccupancy `json:"occupancy,omitempty"`
	Truck     models.TruckView       `json:"truck"`
	Reason    yard.RejectionKind     `json:"reason,omitempty"`
	Message   string                 `json:"message,omitempty"`

	// Rejection is the rule violation behind a refused drop.
	Rejection *yard.RejectionError `json:"-"`
}

// Toast is a transient operator message.
type Toast struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MoveObserver is told about every dispatched intent and its outcome.
type MoveObserver func(Intent, DropResult)

// Surface is the drag-and-drop front of one yard. It reads engine state to
// paint feedback and mutates it only through the engine's move operations.
// Like the engine it expects calls one at a time.
type Surface struct {
	engine   *yard.Engine
	toastFor time.Duration
	now      func() time.Time
	observer MoveObserver

	dragging string
	toast    *Toast
}

// Option configures a Surface.
type Option func(*Surface)

// WithToastDuration sets how long rejection messages stay visible.
func WithToastDuration(d time.Duration) Option {
	return func(s *Surface) {
		if d > 0 {
			s.toastFor = d
		}
	}
}

// WithClock replaces time.Now for toast expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Surface) { s.now = now }
}

// WithMoveObserver registers a callback for dispatched intents.
func WithMoveObserver(o MoveObserver) Option {
	return func(s *Surface) { s.observer = o }
}

// NewSurface creates a surface over engine.
func NewSurface(engine *yard.Engine, opts ...Option) *Surface {
	s := &Surface{
		engine:   engine,
		toastFor: DefaultToastDuration,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Engine returns the engine behind the surface.
func (s *Surface) Engine() *yard.Engine { return s.engine }

// Dragging returns the id of the unit being dragged, if any.
func (s *Surface) Dragging() string { return s.dragging }

// DragStart picks a unit up.
func (s *Surface) DragStart(unitID string) error {
	if _, err := s.engine.Registry().Unit(unitID); err != nil {
		return err
	}
	s.dragging = unitID
	return nil
}

// DragEnd releases the drag without moving anything.
func (s *Surface) DragEnd() {
	s.dragging = ""
}

// DragOver computes the highlight for the zone under the pointer. It never
// changes yard state and may be called on every pointer move.
func (s *Surface) DragOver(target Target) (Hover, error) {
	if s.dragging == "" {
		return Hover{}, ErrNotDragging
	}
	return s.Preview(s.dragging, target)
}

// Preview is DragOver for an explicit unit.
func (s *Surface) Preview(unitID string, target Target) (Hover, error) {
	hover := Hover{Target: target, State: FeedbackValid}

	var err error
	switch target.Kind {
	case TargetSlot:
		candidates, cerr := s.engine.CandidateSlots(unitID, target.Location)
		if cerr != nil {
			return Hover{}, cerr
		}
		err = s.engine.Validate(unitID, target.Location)
		state := FeedbackValid
		if err != nil {
			state = FeedbackInvalid
		}
		for _, c := range candidates {
			hover.Slots = append(hover.Slots, SlotFeedback{Location: c.Location, State: state})
		}
	case TargetTruck:
		err = s.engine.CanLoad(unitID)
	case TargetFreeArea:
		_, err = s.engine.Registry().Unit(unitID)
	default:
		return Hover{}, fmt.Errorf("%w %q", ErrUnknownTarget, target.Kind)
	}

	if err != nil {
		rej, ok := yard.AsRejection(err)
		if !ok {
			return Hover{}, err
		}
		hover.State = FeedbackInvalid
		hover.Reason = string(rej.Kind)
	}
	return hover, nil
}

// Drop turns the current drag into an intent, dispatches it and ends the drag.
func (s *Surface) Drop(target Target) (DropResult, error) {
	if s.dragging == "" {
		return DropResult{}, ErrNotDragging
	}
	unitID := s.dragging
	s.dragging = ""
	return s.Move(unitID, target)
}

// Move builds an intent for unitID and dispatches it.
func (s *Surface) Move(unitID string, target Target) (DropResult, error) {
	from, err := s.engine.Registry().HolderOf(unitID)
	if err != nil {
		return DropResult{}, err
	}
	return s.Dispatch(Intent{UnitID: unitID, From: from, To: target})
}

// Dispatch applies an intent through the engine. Rejections are reported in
// the result and raise a toast; other errors are returned.
func (s *Surface) Dispatch(intent Intent) (DropResult, error) {
	result := DropResult{Intent: intent}

	var err error
	switch intent.To.Kind {
	case TargetSlot:
		result.Occupancy, err = s.engine.MoveToSlot(intent.UnitID, intent.To.Location)
	case TargetTruck:
		err = s.engine.MoveToTruck(intent.UnitID)
	case TargetFreeArea:
		err = s.engine.MoveToFreeArea(intent.UnitID)
	default:
		return result, fmt.Errorf("%w %q", ErrUnknownTarget, intent.To.Kind)
	}

	if err != nil {
		rej, ok := yard.AsRejection(err)
		if !ok {
			return result, err
		}
		result.Rejection = rej
		result.Reason = rej.Kind
		result.Message = rej.Message()
		s.raise(result.Message)
	} else {
		result.Accepted = true
	}
	result.Truck = s.engine.Truck()

	if s.observer != nil {
		s.observer(intent, result)
	}
	return result, nil
}

// ActiveToast returns the visible message, if one has not yet expired.
func (s *Surface) ActiveToast() (Toast, bool) {
	if s.toast == nil {
		return Toast{}, false
	}
	if !s.now().Before(s.toast.ExpiresAt) {
		s.toast = nil
		return Toast{}, false
	}
	return *s.toast, true
}

// raise shows message, replacing any toast still on screen.
func (s *Surface) raise(message string) {
	s.toast = &Toast{Message: message, ExpiresAt: s.now().Add(s.toastFor)}
}
