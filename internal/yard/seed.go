package yard

import (
	"fmt"
	"strings"

	"github.com/yard-planner/backend/internal/models"
)

// SeedIssue describes a record that could not be loaded as recorded.
type SeedIssue struct {
	Index           int    `json:"index"`
	ContainerNumber string `json:"containerNumber"`
	Reason          string `json:"reason"`
}

// SeedReport summarises a Seed call.
type SeedReport struct {
	Registered int         `json:"registered"`
	Placed     int         `json:"placed"`
	Unassigned int         `json:"unassigned"`
	Issues     []SeedIssue `json:"issues,omitempty"`
}

// Seed registers the fixture's containers and stacks each one on its recorded
// location. Seeded stacks are taken as they are recorded, so stack-level and
// restricted-slot rules are not applied; a record whose slot is missing or
// full is registered as unassigned and reported. Records with an unknown size
// or a duplicate number are skipped and reported.
func (e *Engine) Seed(records []models.ContainerRecord) (SeedReport, error) {
	var report SeedReport
	if e.registry.Len() > 0 {
		return report, fmt.Errorf("engine already seeded with %d units", e.registry.Len())
	}
	issue := func(i int, rec models.ContainerRecord, format string, args ...any) {
		report.Issues = append(report.Issues, SeedIssue{
			Index:           i,
			ContainerNumber: rec.ContainerNumber,
			Reason:          fmt.Sprintf(format, args...),
		})
	}

	for i, rec := range records {
		class, ok := models.SizeClassOf(rec.Size)
		if !ok {
			issue(i, rec, "unknown container size %q", rec.Size)
			continue
		}
		id := strings.TrimSpace(rec.ContainerNumber)
		if id == "" {
			id = fmt.Sprintf("%s-%d", strings.TrimSpace(rec.Size), i)
		}
		unit := models.Unit{
			ID:           id,
			Size:         strings.TrimSpace(rec.Size),
			SizeClass:    class,
			ShippingLine: strings.TrimSpace(rec.ShippingLine),
		}

		span, reason := e.seedSpan(&unit, rec.Location)
		holder := models.UnassignedHolder
		if span != nil {
			holder = models.SlotHolder(span[0].Location)
		}
		if err := e.registry.Register(unit, holder); err != nil {
			issue(i, rec, "%v", err)
			continue
		}
		report.Registered++

		if span == nil {
			report.Unassigned++
			if reason != "" {
				issue(i, rec, "%s", reason)
			}
			continue
		}
		e.attach(unit.ID, span)
		report.Placed++
	}
	return report, nil
}

// seedSpan resolves the slots a seeded unit covers. A nil span with an empty
// reason means the record had no location.
func (e *Engine) seedSpan(unit *models.Unit, location string) ([]*Slot, string) {
	if strings.TrimSpace(location) == "" {
		return nil, ""
	}
	start, ok := e.grid.SlotAt(location)
	if !ok {
		return nil, fmt.Sprintf("location %q is not a yard slot", location)
	}
	span, ok := e.grid.Span(start, unit.SizeClass.Span())
	if !ok {
		return nil, fmt.Sprintf("location %s has no partner slot for a %s unit", start.Location, unit.Size)
	}
	for _, s := range span {
		if s.Count() >= s.Capacity {
			return nil, fmt.Sprintf("slot %s is full", s.Location)
		}
	}
	return span, ""
}
