package models

import (
	"fmt"
	"time"
)

// SlotOccupancy is the count view of a single slot.
type SlotOccupancy struct {
	Location  string `json:"location" msgpack:"location"`
	Count     int    `json:"count" msgpack:"count"`
	Remaining int    `json:"remaining" msgpack:"remaining"`
}

// Display renders the occupancy as "<count> <remaining>".
func (o SlotOccupancy) Display() string {
	return fmt.Sprintf("%d %d", o.Count, o.Remaining)
}

// SlotView is one slot in a yard snapshot.
type SlotView struct {
	SlotOccupancy
	Row       string   `json:"row" msgpack:"row"`
	Column    int      `json:"column" msgpack:"column"`
	Capacity  int      `json:"capacity" msgpack:"capacity"`
	IsLastRow bool     `json:"isLastRow" msgpack:"isLastRow"`
	Occupied  bool     `json:"occupied" msgpack:"occupied"`
	Units     []string `json:"units" msgpack:"units"` // units stored here (primary slot only)
}

// TruckDetails describes the truck currently at the loading bay.
type TruckDetails struct {
	TruckNumber string `json:"truckNumber" msgpack:"truckNumber"`
	DriverName  string `json:"driverName" msgpack:"driverName"`
	Company     string `json:"company" msgpack:"company"`
}

// TruckView is the truck bay in a yard snapshot.
type TruckView struct {
	Units   []string      `json:"units" msgpack:"units"`
	IsFull  bool          `json:"isFull" msgpack:"isFull"`
	Details *TruckDetails `json:"details,omitempty" msgpack:"details,omitempty"`
}

// PlacedUnit is a unit with its current holder.
type PlacedUnit struct {
	Unit
	Holder Holder `json:"holder" msgpack:"holder"`
}

// YardSnapshot is the full read model of a yard session.
type YardSnapshot struct {
	Rows     []string     `json:"rows" msgpack:"rows"`
	Columns  int          `json:"columns" msgpack:"columns"`
	Slots    []SlotView   `json:"slots" msgpack:"slots"`
	Truck    TruckView    `json:"truck" msgpack:"truck"`
	FreeArea []string     `json:"freeArea" msgpack:"freeArea"`
	Units    []PlacedUnit `json:"units" msgpack:"units"`
}

// MoveOutcome is the result of a recorded move attempt.
type MoveOutcome string

const (
	MoveAccepted MoveOutcome = "accepted"
	MoveRejected MoveOutcome = "rejected"
)

// MoveRecord is one entry of a session's move journal.
type MoveRecord struct {
	At      time.Time   `json:"at"`
	UnitID  string      `json:"unitId"`
	From    Holder      `json:"from"`
	To      Holder      `json:"to"`
	Outcome MoveOutcome `json:"outcome"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message,omitempty"`
}
