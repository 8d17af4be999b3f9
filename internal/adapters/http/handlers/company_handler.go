package handlers

import (
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CompanyHandler handles admin company balance endpoints
type CompanyHandler struct {
	companyService *services.CompanyService
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(companyService *services.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// Overview returns the company balance dashboard
// @Summary Company balance overview
// @Tags Admin
// @Produce json
// @Security SessionAuth
// @Success 200 {object} response.Response
// @Router /admin/company-balance/overview [get]
func (h *CompanyHandler) Overview(c *fiber.Ctx) error {
	data, err := h.companyService.Overview(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to build overview")
	}
	return response.Success(c, "Overview retrieved successfully", data)
}

// Analytics returns loan analytics for reports
// @Summary Loan analytics
// @Tags Admin
// @Produce json
// @Security SessionAuth
// @Success 200 {object} response.Response
// @Router /admin/company-balance/loan-analytics [get]
func (h *CompanyHandler) Analytics(c *fiber.Ctx) error {
	data, err := h.companyService.Analytics(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to build analytics")
	}
	return response.Success(c, "Analytics retrieved successfully", data)
}

// Summary returns the condensed company position
// @Summary Company balance summary
// @Tags Admin
// @Produce json
// @Security SessionAuth
// @Success 200 {object} response.Response
// @Router /admin/company-balance/summary [get]
func (h *CompanyHandler) Summary(c *fiber.Ctx) error {
	data, err := h.companyService.Summary(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to build summary")
	}
	return response.Success(c, "Summary retrieved successfully", data)
}
