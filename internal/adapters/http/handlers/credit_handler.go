package handlers

import (
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/response"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// CreditHandler handles credit score and calculator endpoints
type CreditHandler struct {
	creditService *services.CreditService
}

// NewCreditHandler creates a new credit handler
func NewCreditHandler(creditService *services.CreditService) *CreditHandler {
	return &CreditHandler{creditService: creditService}
}

// CalculateRequest represents a loan calculator request
type CalculateRequest struct {
	Amount       float64 `json:"amount" validate:"required,gt=0"`
	InterestRate float64 `json:"interest_rate" validate:"required,gte=0,lte=100"`
	TermMonths   int     `json:"term_months" validate:"required,min=1,max=360"`
}

// MyScore returns the caller's credit score with factor breakdown
// @Summary Get own credit score
// @Tags Credit
// @Produce json
// @Security SessionAuth
// @Success 200 {object} response.Response
// @Router /credit-score [get]
func (h *CreditHandler) MyScore(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	score, err := h.creditService.ScoreForUser(c.UserContext(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to compute credit score")
	}
	return response.Success(c, "Credit score computed", score)
}

// UserScore returns a user's credit score (admin)
// @Summary Get a user's credit score
// @Tags Admin
// @Produce json
// @Security SessionAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response
// @Router /admin/credit-score/{id} [get]
func (h *CreditHandler) UserScore(c *fiber.Ctx) error {
	score, err := h.creditService.ScoreForUser(c.UserContext(), c.Params("id"))
	if err != nil {
		return response.InternalServerError(c, "Failed to compute credit score")
	}
	return response.Success(c, "Credit score computed", score)
}

// Overview returns score analytics across all users (admin)
// @Summary Credit score analytics
// @Tags Admin
// @Produce json
// @Security SessionAuth
// @Success 200 {object} response.Response
// @Router /admin/credit-score [get]
func (h *CreditHandler) Overview(c *fiber.Ctx) error {
	overview, err := h.creditService.Overview(c.UserContext())
	if err != nil {
		return response.InternalServerError(c, "Failed to build analytics")
	}
	return response.Success(c, "Credit analytics computed", overview)
}

// Calculate estimates the monthly installment for a prospective loan
// @Summary Loan calculator
// @Tags Credit
// @Accept json
// @Produce json
// @Param body body CalculateRequest true "Loan terms"
// @Success 200 {object} response.Response
// @Router /calculate [post]
func (h *CreditHandler) Calculate(c *fiber.Ctx) error {
	var req CalculateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	total := services.TotalOwed(req.Amount, req.InterestRate, req.TermMonths)
	monthly := services.MonthlyPayment(total, req.InterestRate, req.TermMonths)

	return response.Success(c, "Calculation complete", fiber.Map{
		"principal":       req.Amount,
		"total_payment":   total,
		"total_interest":  total - req.Amount,
		"monthly_payment": monthly,
		"term_months":     req.TermMonths,
	})
}
