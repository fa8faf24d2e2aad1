package models

import "fmt"

// HolderKind identifies the kind of place a unit can reside.
type HolderKind string

const (
	HolderUnassigned HolderKind = "unassigned"
	HolderSlot       HolderKind = "slot"
	HolderTruck      HolderKind = "truck"
	HolderFreeArea   HolderKind = "free"
)

// Holder is a slot location, the truck bay, the free area or nothing yet.
type Holder struct {
	Kind     HolderKind `json:"kind" msgpack:"kind"`
	Location string     `json:"location,omitempty" msgpack:"location,omitempty"` // set only for HolderSlot
}

// SlotHolder returns the holder for a yard slot.
func SlotHolder(location string) Holder {
	return Holder{Kind: HolderSlot, Location: location}
}

var (
	TruckHolder      = Holder{Kind: HolderTruck}
	FreeAreaHolder   = Holder{Kind: HolderFreeArea}
	UnassignedHolder = Holder{Kind: HolderUnassigned}
)

func (h Holder) String() string {
	if h.Kind == HolderSlot {
		return fmt.Sprintf("slot:%s", h.Location)
	}
	return string(h.Kind)
}
