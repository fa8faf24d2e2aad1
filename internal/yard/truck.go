package yard

import (
	"strings"

	"github.com/yard-planner/backend/internal/models"
)

// TruckShortCapacity is how many short units fit on the truck bed.
const TruckShortCapacity = 2

// truckBay holds the truck's identity; its contents live in the registry
// under models.TruckHolder.
type truckBay struct {
	details *models.TruckDetails
}

// checkTruck applies the loading policy: at most two short units or one long
// unit, never mixed.
func checkTruck(loaded []*models.Unit, incoming *models.Unit) error {
	reject := func(kind RejectionKind) error {
		return &RejectionError{Kind: kind, UnitID: incoming.ID}
	}
	for _, u := range loaded {
		if u.IsLong() {
			if incoming.IsLong() {
				return reject(TruckFull)
			}
			return reject(TruckIncompatible)
		}
	}
	if incoming.IsLong() {
		if len(loaded) > 0 {
			return reject(TruckIncompatible)
		}
		return nil
	}
	if len(loaded) >= TruckShortCapacity {
		return reject(TruckFull)
	}
	return nil
}

// truckIsFull reports whether no further unit of any size can be loaded.
func truckIsFull(loaded []*models.Unit) bool {
	if len(loaded) >= TruckShortCapacity {
		return true
	}
	return len(loaded) == 1 && loaded[0].IsLong()
}

func (t *truckBay) setDetails(d models.TruckDetails) error {
	d.TruckNumber = strings.TrimSpace(d.TruckNumber)
	if d.TruckNumber == "" {
		return ErrTruckNumber
	}
	d.DriverName = strings.TrimSpace(d.DriverName)
	d.Company = strings.TrimSpace(d.Company)
	t.details = &d
	return nil
}
