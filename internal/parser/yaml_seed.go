package parser

import (
	"bytes"
	"io"

	"github.com/yard-planner/backend/internal/models"
	"gopkg.in/yaml.v3"
)

// YAMLSeedParser reads fixtures written as YAML with the same shape as data.json.
type YAMLSeedParser struct{}

func NewYAMLSeedParser() *YAMLSeedParser { return &YAMLSeedParser{} }

func (p *YAMLSeedParser) Name() string { return "yaml" }

func (p *YAMLSeedParser) CanParse(name string, head []byte) bool {
	if hasExt(name, ".yaml", ".yml") {
		return true
	}
	return bytes.Contains(head, []byte("containers:"))
}

func (p *YAMLSeedParser) Parse(r io.Reader) (*models.SeedFixture, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var fixture models.SeedFixture
	if err := yaml.Unmarshal(data, &fixture); err != nil {
		return nil, decodeErr("yaml", err)
	}
	return normalize(&fixture), nil
}
