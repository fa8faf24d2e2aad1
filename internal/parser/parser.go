// Package parser loads container seed fixtures, the {"containers": [...]}
// documents the yard is populated from, in JSON or YAML.
package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/yard-planner/backend/internal/models"
)

// SeedParser decodes one fixture format.
type SeedParser interface {
	// Name returns the unique name of the parser.
	Name() string
	// CanParse reports whether the parser handles a file with this name and
	// leading content.
	CanParse(name string, head []byte) bool
	// Parse decodes a complete fixture.
	Parse(r io.Reader) (*models.SeedFixture, error)
}

// sniffLen is how much of a file is inspected for content detection.
const sniffLen = 512

func head(data []byte) []byte {
	if len(data) > sniffLen {
		return data[:sniffLen]
	}
	return data
}

func hasExt(name string, exts ...string) bool {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// normalize trims every record and drops fully blank ones.
func normalize(f *models.SeedFixture) *models.SeedFixture {
	out := make([]models.ContainerRecord, 0, len(f.Containers))
	for _, rec := range f.Containers {
		rec.ContainerNumber = strings.TrimSpace(rec.ContainerNumber)
		rec.Size = strings.TrimSpace(rec.Size)
		rec.ShippingLine = strings.TrimSpace(rec.ShippingLine)
		rec.Location = strings.ToUpper(strings.TrimSpace(rec.Location))
		if rec == (models.ContainerRecord{}) {
			continue
		}
		out = append(out, rec)
	}
	f.Containers = out
	return f
}

func firstNonSpace(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

func decodeErr(format string, err error) error {
	return fmt.Errorf("decoding %s seed: %w", format, err)
}
