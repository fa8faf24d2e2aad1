// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"github.com/labstack/echo/v4"
	"github.com/yard-planner/backend/internal/models"
	"github.com/yard-planner/backend/internal/session"
	"github.com/yard-planner/backend/internal/yard"
)

// YardHandler handles yard session and placement operations
type YardHandler interface {
	HandleCreateSession(c echo.Context) error
	HandleGetSession(c echo.Context) error
	HandleDeleteSession(c echo.Context) error
	HandleSnapshot(c echo.Context) error
	HandleSnapshotMsgpack(c echo.Context) error
	HandleSlotOccupancy(c echo.Context) error
	HandlePreview(c echo.Context) error
	HandleMove(c echo.Context) error
	HandleMoveJournal(c echo.Context) error
	HandleSearch(c echo.Context) error
	HandleSetTruck(c echo.Context) error
}

// SettingsHandler handles UI preference operations
type SettingsHandler interface {
	HandleGetSettings(c echo.Context) error
	HandleUpdateSettings(c echo.Context) error
	HandleGetFontScale(c echo.Context) error
}

// SeedHandler handles seed fixture uploads and activation
type SeedHandler interface {
	HandleUploadSeed(c echo.Context) error
	HandleListSeeds(c echo.Context) error
	HandleSetActiveSeed(c echo.Context) error
	HandleDeleteSeed(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionManager defines the interface for yard session management
// This allows mocking in tests
type SessionManager interface {
	Create(seed session.Seed) (session.Info, error)
	Get(id string) (session.Info, bool)
	Delete(id string) bool
	Touch(id string) bool
	Len() int
	With(id string, fn func(*session.YardSession) error) error
	Journal(id string) ([]models.MoveRecord, error)
	Layout() yard.Layout
}

var _ SessionManager = (*session.Manager)(nil)
