package handlers

import (
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// SettingsHandler handles admin platform settings endpoints
type SettingsHandler struct {
	settingsService *services.SettingsService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(settingsService *services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: settingsService}
}

// Get returns the platform settings
// @Summary Get platform settings
// @Tags Admin
// @Produce json
// @Security SessionAuth
// @Success 200 {object} response.Response
// @Router /admin/settings [get]
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	settings, err := h.settingsService.Get(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to load settings")
	}
	return response.Success(c, "Settings retrieved successfully", settings)
}

// Update stores new platform settings. Out-of-range values are
// clamped, not rejected.
// @Summary Update platform settings
// @Tags Admin
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param body body services.PlatformSettings true "Settings"
// @Success 200 {object} response.Response
// @Router /admin/settings [put]
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	settings := services.DefaultSettings()
	if err := c.BodyParser(settings); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	stored, err := h.settingsService.Update(c.UserContext(), settings)
	if err != nil {
		return response.InternalServerError(c, "Failed to store settings")
	}
	return response.Success(c, "Settings updated successfully", stored)
}
