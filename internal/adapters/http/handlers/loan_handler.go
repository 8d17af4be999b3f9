package handlers

import (
	"errors"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/http/middleware"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/persistence/models"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/pagination"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/response"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// LoanHandler handles loan application and approval endpoints
type LoanHandler struct {
	loanService    *services.LoanService
	creditService  *services.CreditService
	accountService *services.AccountService
}

// NewLoanHandler creates a new loan handler
func NewLoanHandler(
	loanService *services.LoanService,
	creditService *services.CreditService,
	accountService *services.AccountService,
) *LoanHandler {
	return &LoanHandler{
		loanService:    loanService,
		creditService:  creditService,
		accountService: accountService,
	}
}

// RejectRequest represents a loan rejection body
type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// loanError maps loan domain errors onto HTTP responses
func loanError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrLoanNotFound):
		return response.NotFound(c, "Loan not found")
	case errors.Is(err, domain.ErrInvalidLoanStatus):
		return response.BadRequest(c, "Loan is not in a state that allows this operation")
	case errors.Is(err, domain.ErrAccountNotFound):
		return response.NotFound(c, "Account not found")
	case errors.Is(err, domain.ErrAccountInactive):
		return response.BadRequest(c, "Account is not active")
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "You don't have access to this loan")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// authorizeLoan loads the loan behind the :id param. Admins see any
// loan; everyone else must own the borrowing account.
func (h *LoanHandler) authorizeLoan(c *fiber.Ctx) (*models.Loan, error) {
	role, _ := c.Locals(middleware.LocalRole).(string)
	if role == "admin" {
		return h.loanService.GetByID(c.UserContext(), c.Params("id"))
	}
	userID, ok := currentUserID(c)
	if !ok {
		return nil, domain.ErrForbidden
	}
	return h.loanService.GetOwned(c.UserContext(), c.Params("id"), userID)
}

// Apply submits a loan application
// @Summary Apply for a loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param body body services.ApplyLoanInput true "Application"
// @Success 201 {object} response.Response
// @Router /loans [post]
func (h *LoanHandler) Apply(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.ApplyLoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, err)
	}

	loan, err := h.loanService.Apply(c.UserContext(), userID, &input)
	if err != nil {
		return loanError(c, err, "Failed to submit loan application")
	}

	return response.Created(c, "Loan application submitted successfully", fiber.Map{"loan": loan})
}

// List returns a page of loans, optionally filtered by status (admin)
// @Summary List loans
// @Tags Loans
// @Produce json
// @Security SessionAuth
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /loans [get]
func (h *LoanHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := c.Query("status")

	loans, total, err := h.loanService.List(c.UserContext(), status, params.Offset, params.Limit)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLoanStatus) {
			return response.BadRequest(c, "Unknown loan status filter")
		}
		return response.InternalServerError(c, "Failed to list loans")
	}

	return response.Success(c, "Loans retrieved successfully", pagination.NewResponse(loans, params, total))
}

// ListMine returns the caller's loans
// @Summary List own loans
// @Tags Loans
// @Produce json
// @Security SessionAuth
// @Success 200 {object} response.Response
// @Router /loans/my [get]
func (h *LoanHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loans, err := h.loanService.ListByUser(c.UserContext(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list loans")
	}
	return response.Success(c, "Loans retrieved successfully", fiber.Map{"loans": loans})
}

// ListRepayable returns the caller's loans open for repayment:
// active with a positive remaining balance
// @Summary List repayable loans
// @Tags Loans
// @Produce json
// @Security SessionAuth
// @Success 200 {object} response.Response
// @Router /loans/repayable [get]
func (h *LoanHandler) ListRepayable(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loans, err := h.loanService.ListRepayable(c.UserContext(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list repayable loans")
	}
	return response.Success(c, "Repayable loans retrieved successfully", fiber.Map{"loans": loans})
}

// Get returns one loan
// @Summary Get loan
// @Tags Loans
// @Produce json
// @Security SessionAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Router /loans/{id} [get]
func (h *LoanHandler) Get(c *fiber.Ctx) error {
	loan, err := h.authorizeLoan(c)
	if err != nil {
		return loanError(c, err, "Failed to get loan")
	}
	return response.Success(c, "Loan retrieved successfully", fiber.Map{"loan": loan})
}

// Update edits a pending loan
// @Summary Update pending loan
// @Tags Loans
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path string true "Loan ID"
// @Param body body services.UpdateLoanInput true "Fields"
// @Success 200 {object} response.Response
// @Router /loans/{id} [put]
func (h *LoanHandler) Update(c *fiber.Ctx) error {
	if _, err := h.authorizeLoan(c); err != nil {
		return loanError(c, err, "Failed to update loan")
	}

	var input services.UpdateLoanInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, err)
	}

	loan, err := h.loanService.Update(c.UserContext(), c.Params("id"), &input)
	if err != nil {
		return loanError(c, err, "Failed to update loan")
	}
	return response.Success(c, "Loan updated successfully", fiber.Map{"loan": loan})
}

// Delete removes a pending loan
// @Summary Delete pending loan
// @Tags Loans
// @Produce json
// @Security SessionAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Router /loans/{id} [delete]
func (h *LoanHandler) Delete(c *fiber.Ctx) error {
	if _, err := h.authorizeLoan(c); err != nil {
		return loanError(c, err, "Failed to delete loan")
	}

	if err := h.loanService.Delete(c.UserContext(), c.Params("id")); err != nil {
		return loanError(c, err, "Failed to delete loan")
	}
	return response.Success(c, "Loan deleted successfully", nil)
}

// Approve activates a pending loan and disburses the principal (admin)
// @Summary Approve loan
// @Tags Admin
// @Produce json
// @Security SessionAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Router /loans/{id}/approve [put]
func (h *LoanHandler) Approve(c *fiber.Ctx) error {
	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	loan, err := h.loanService.Approve(c.UserContext(), c.Params("id"), adminID)
	if err != nil {
		return loanError(c, err, "Failed to approve loan")
	}
	return response.Success(c, "Loan approved successfully", fiber.Map{"loan": loan})
}

// Reject declines a pending loan with a reason (admin)
// @Summary Reject loan
// @Tags Admin
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path string true "Loan ID"
// @Param body body RejectRequest true "Rejection reason"
// @Success 200 {object} response.Response
// @Router /loans/{id}/reject [put]
func (h *LoanHandler) Reject(c *fiber.Ctx) error {
	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req RejectRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	loan, err := h.loanService.Reject(c.UserContext(), c.Params("id"), adminID, req.Reason)
	if err != nil {
		return loanError(c, err, "Failed to reject loan")
	}
	return response.Success(c, "Loan rejected", fiber.Map{"loan": loan})
}

// Schedule returns the amortized repayment plan for a loan
// @Summary Get repayment schedule
// @Tags Loans
// @Produce json
// @Security SessionAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Router /loans/{id}/repayment-schedule [get]
func (h *LoanHandler) Schedule(c *fiber.Ctx) error {
	if _, err := h.authorizeLoan(c); err != nil {
		return loanError(c, err, "Failed to build repayment schedule")
	}

	rows, err := h.loanService.RepaymentSchedule(c.UserContext(), c.Params("id"))
	if err != nil {
		return loanError(c, err, "Failed to build repayment schedule")
	}
	return response.Success(c, "Repayment schedule retrieved successfully", fiber.Map{"schedule": rows})
}

// Risk returns the weighted risk heuristic for a loan (admin display)
// @Summary Get loan risk assessment
// @Tags Admin
// @Produce json
// @Security SessionAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Router /loans/{id}/risk [get]
func (h *LoanHandler) Risk(c *fiber.Ctx) error {
	loan, err := h.loanService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return loanError(c, err, "Failed to assess loan")
	}

	account, err := h.accountService.GetByID(c.UserContext(), loan.AccountID)
	if err != nil {
		return loanError(c, err, "Failed to assess loan")
	}

	score, err := h.creditService.ScoreForUser(c.UserContext(), account.UserID)
	if err != nil {
		return response.InternalServerError(c, "Failed to assess loan")
	}

	risk := services.LoanRisk(score.Score, loan.Amount, account.Balance, loan.RepaymentPeriod)

	return response.Success(c, "Risk assessment computed", fiber.Map{
		"risk":         risk,
		"credit_score": score.Score,
	})
}
