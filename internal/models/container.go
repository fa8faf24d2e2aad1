// Package models contains domain types for the Yard Planner.
package models

import "strings"

// SizeClass is the slot span class of a container.
type SizeClass string

const (
	SizeShort SizeClass = "short" // 20ft, one slot
	SizeLong  SizeClass = "long"  // 40ft/45ft, two adjacent slots
)

// Span returns the number of contiguous slots a unit of this class occupies.
func (s SizeClass) Span() int {
	if s == SizeLong {
		return 2
	}
	return 1
}

// SizeClassOf maps a recorded container size ("20ft", "40ft", "45ft") to its class.
func SizeClassOf(size string) (SizeClass, bool) {
	switch strings.ToLower(strings.TrimSpace(size)) {
	case "20ft":
		return SizeShort, true
	case "40ft", "45ft":
		return SizeLong, true
	}
	return "", false
}

// ContainerRecord is one entry of the seed fixture.
type ContainerRecord struct {
	ContainerNumber string `json:"containerNumber" yaml:"containerNumber" msgpack:"containerNumber"`
	Size            string `json:"size" yaml:"size" msgpack:"size"`
	ShippingLine    string `json:"shippingLine" yaml:"shippingLine" msgpack:"shippingLine"`
	Location        string `json:"location,omitempty" yaml:"location,omitempty" msgpack:"location,omitempty"`
}

// SeedFixture is the top-level shape of a seed file: {"containers": [...]}.
type SeedFixture struct {
	Containers []ContainerRecord `json:"containers" yaml:"containers"`
}

// Unit is a placeable container tracked by the registry.
type Unit struct {
	ID           string    `json:"id" msgpack:"id"`
	Size         string    `json:"size" msgpack:"size"` // recorded size label, e.g. "45ft"
	SizeClass    SizeClass `json:"sizeClass" msgpack:"sizeClass"`
	ShippingLine string    `json:"shippingLine" msgpack:"shippingLine"`
}

// IsLong reports whether the unit spans two slots.
func (u *Unit) IsLong() bool {
	return u.SizeClass == SizeLong
}
