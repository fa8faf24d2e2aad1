package yard

import (
	"errors"
	"fmt"
)

// RejectionKind classifies why a move was refused.
type RejectionKind string

const (
	OutOfBounds       RejectionKind = "OutOfBounds"
	UnequalStackLevel RejectionKind = "UnequalStackLevel"
	LastRowRestricted RejectionKind = "LastRowRestricted"
	CapacityExceeded  RejectionKind = "CapacityExceeded"
	TruckIncompatible RejectionKind = "TruckIncompatible"
	TruckFull         RejectionKind = "TruckFull"
)

// RejectionError is returned when a move or a validation is refused.
// The yard state is unchanged whenever one is returned.
type RejectionError struct {
	Kind     RejectionKind
	UnitID   string
	Location string // target location for slot moves
	Capacity int    // set for CapacityExceeded
}

func (e *RejectionError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("move of %s to %s rejected: %s", e.UnitID, e.Location, e.Kind)
	}
	return fmt.Sprintf("move of %s rejected: %s", e.UnitID, e.Kind)
}

// Message is the short text shown to the operator.
func (e *RejectionError) Message() string {
	switch e.Kind {
	case OutOfBounds:
		return "Invalid drop area!"
	case UnequalStackLevel:
		return "Ensure stack level must be equal to drop a 40ft or 45ft container."
	case LastRowRestricted:
		return "Cannot drop a large container in this space!"
	case CapacityExceeded:
		return fmt.Sprintf("Stack Level Allowed Reached Allowed Stack is %d", e.Capacity)
	case TruckIncompatible, TruckFull:
		return "Truck capacity reached or incompatible container size!"
	}
	return string(e.Kind)
}

// AsRejection unwraps a *RejectionError from err.
func AsRejection(err error) (*RejectionError, bool) {
	var rej *RejectionError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// UnknownUnitError means a unit id is not registered.
type UnknownUnitError struct {
	ID string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown unit: %s", e.ID)
}

// DuplicateUnitError means a unit id was registered twice.
type DuplicateUnitError struct {
	ID string
}

func (e *DuplicateUnitError) Error() string {
	return fmt.Sprintf("duplicate unit: %s", e.ID)
}

var (
	ErrEmptyQuery  = errors.New("Please enter a BL No, Container No, or TDO.")
	ErrNoMatches   = errors.New("No containers found for the entered criteria.")
	ErrTruckNumber = errors.New("truck number is required")
)
