package yard

import (
	"strings"

	"github.com/yard-planner/backend/internal/models"
)

// SearchHit is a unit whose number matched a search.
type SearchHit struct {
	UnitID   string        `json:"unitId"`
	Holder   models.Holder `json:"holder"`
	Location string        `json:"location,omitempty"`
}

// Search finds units whose id contains query, ignoring case. Matches come back
// in registration order.
func (e *Engine) Search(query string) ([]SearchHit, error) {
	q := strings.ToUpper(strings.TrimSpace(query))
	if q == "" {
		return nil, ErrEmptyQuery
	}
	var hits []SearchHit
	for _, u := range e.registry.Units() {
		if !strings.Contains(strings.ToUpper(u.ID), q) {
			continue
		}
		h, _ := e.registry.HolderOf(u.ID)
		hits = append(hits, SearchHit{UnitID: u.ID, Holder: h, Location: h.Location})
	}
	if len(hits) == 0 {
		return nil, ErrNoMatches
	}
	return hits, nil
}

// HighlightedSlots returns the distinct slot locations holding a hit.
func HighlightedSlots(hits []SearchHit) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, h := range hits {
		if h.Holder.Kind != models.HolderSlot {
			continue
		}
		if _, ok := seen[h.Location]; ok {
			continue
		}
		seen[h.Location] = struct{}{}
		out = append(out, h.Location)
	}
	return out
}
