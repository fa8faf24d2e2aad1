package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/yard-planner/backend/internal/models"
)

// Registry holds all available seed parsers and provides auto-detection.
type Registry struct {
	parsers []SeedParser
}

// Global registry instance
var globalRegistry = NewRegistry()

func NewRegistry() *Registry {
	return &Registry{
		parsers: []SeedParser{
			NewJSONSeedParser(),
			NewYAMLSeedParser(),
		},
	}
}

// GetGlobalRegistry returns the singleton registry.
func GetGlobalRegistry() *Registry {
	return globalRegistry
}

// Register adds a new parser to the registry.
func (r *Registry) Register(p SeedParser) {
	r.parsers = append(r.parsers, p)
}

// FindParser detects the parser for a file. Extensions win over content
// sniffing.
func (r *Registry) FindParser(name string, data []byte) (SeedParser, error) {
	for _, p := range r.parsers {
		if p.CanParse(name, nil) {
			return p, nil
		}
	}
	for _, p := range r.parsers {
		if p.CanParse("", head(data)) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no suitable seed parser found for file: %s", name)
}

// GetParserByName returns a parser by its name.
func (r *Registry) GetParserByName(name string) (SeedParser, error) {
	name = strings.ToLower(name)
	for _, p := range r.parsers {
		if strings.ToLower(p.Name()) == name {
			return p, nil
		}
	}
	return nil, fmt.Errorf("parser not found: %s", name)
}

// LoadBytes decodes a fixture held in memory.
func (r *Registry) LoadBytes(name string, data []byte) (*models.SeedFixture, error) {
	p, err := r.FindParser(name, data)
	if err != nil {
		return nil, err
	}
	return p.Parse(bytes.NewReader(data))
}

// LoadReader buffers r and decodes it. Content sniffing needs the head of the
// stream, so the whole fixture is read first.
func (r *Registry) LoadReader(name string, rd io.Reader) (*models.SeedFixture, error) {
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil, fmt.Errorf("reading seed %s: %w", name, err)
	}
	return r.LoadBytes(name, data)
}

// LoadFile decodes a fixture from disk.
func (r *Registry) LoadFile(path string) (*models.SeedFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return r.LoadBytes(filepath.Base(path), data)
}

// LoadSeedFile decodes a fixture with the global registry.
func LoadSeedFile(path string) (*models.SeedFixture, error) {
	return globalRegistry.LoadFile(path)
}
