package parser

import (
	"encoding/json"
	"io"

	"github.com/yard-planner/backend/internal/models"
)

// JSONSeedParser reads the dashboard's data.json fixture.
type JSONSeedParser struct{}

func NewJSONSeedParser() *JSONSeedParser { return &JSONSeedParser{} }

func (p *JSONSeedParser) Name() string { return "json" }

func (p *JSONSeedParser) CanParse(name string, head []byte) bool {
	if hasExt(name, ".json") {
		return true
	}
	return firstNonSpace(head) == '{'
}

func (p *JSONSeedParser) Parse(r io.Reader) (*models.SeedFixture, error) {
	var fixture models.SeedFixture
	dec := json.NewDecoder(r)
	if err := dec.Decode(&fixture); err != nil {
		return nil, decodeErr("json", err)
	}
	return normalize(&fixture), nil
}
