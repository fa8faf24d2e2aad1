package models

import "time"

// SeedStatus is the lifecycle state of an uploaded seed fixture.
type SeedStatus string

const (
	SeedUploaded SeedStatus = "uploaded"
	SeedActive   SeedStatus = "active"
	SeedInvalid  SeedStatus = "invalid"
)

// FileInfo represents metadata about an uploaded seed fixture.
type FileInfo struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Size       int64      `json:"size"`
	UploadedAt time.Time  `json:"uploadedAt"`
	Status     SeedStatus `json:"status"`
	Containers int        `json:"containers"`
}
