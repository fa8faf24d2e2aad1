// handlers_settings.go - UI preference handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/yard-planner/backend/internal/settings"
)

// SettingsHandlerImpl implements the SettingsHandler interface
type SettingsHandlerImpl struct {
	service *settings.Service
}

// NewSettingsHandler creates a new settings handler instance
func NewSettingsHandler(service *settings.Service) SettingsHandler {
	return &SettingsHandlerImpl{service: service}
}

// HandleGetSettings returns the stored preferences
func (h *SettingsHandlerImpl) HandleGetSettings(c echo.Context) error {
	s, err := h.service.Load(c.Request().Context())
	if err != nil {
		return NewInternalError("failed to load settings", err)
	}
	return c.JSON(http.StatusOK, s)
}

// HandleUpdateSettings applies a partial update
func (h *SettingsHandlerImpl) HandleUpdateSettings(c echo.Context) error {
	var patch settings.Patch
	if err := c.Bind(&patch); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}

	s, err := h.service.Update(c.Request().Context(), patch)
	if err != nil {
		return toAPIError(err)
	}
	return c.JSON(http.StatusOK, s)
}

// HandleGetFontScale returns the CSS variables for a font size
func (h *SettingsHandlerImpl) HandleGetFontScale(c echo.Context) error {
	size := c.Param("size")
	scale, err := settings.FontScale(size)
	if err != nil {
		return NewNotFoundError("font size", size)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"size":      size,
		"variables": scale,
	})
}
