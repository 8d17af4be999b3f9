package handlers

import (
	"errors"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/adapters/http/middleware"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/pagination"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/response"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// RepaymentHandler handles loan repayment endpoints
type RepaymentHandler struct {
	repaymentService *services.RepaymentService
}

// NewRepaymentHandler creates a new repayment handler
func NewRepaymentHandler(repaymentService *services.RepaymentService) *RepaymentHandler {
	return &RepaymentHandler{repaymentService: repaymentService}
}

// MakePayment pays down a loan from its borrowing account
// @Summary Make a loan payment
// @Description Debits the borrowing account and records the repayment. Payments are capped at the remaining balance.
// @Tags Repayments
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param body body services.MakePaymentInput true "Payment"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /repayments/make-payment [post]
func (h *RepaymentHandler) MakePayment(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.MakePaymentInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, err)
	}

	repayment, err := h.repaymentService.MakePayment(c.UserContext(), userID, &input)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrLoanNotRepayable):
			return response.BadRequest(c, "Loan is not open for repayment")
		case errors.Is(err, domain.ErrInsufficientFunds):
			return response.BadRequest(c, "Insufficient funds")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You don't have access to this loan")
		default:
			return response.InternalServerError(c, "Failed to make payment")
		}
	}

	return response.Created(c, "Payment recorded successfully", fiber.Map{"repayment": repayment})
}

// List returns a page of repayments (admin)
// @Summary List repayments
// @Tags Repayments
// @Produce json
// @Security SessionAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /repayments [get]
func (h *RepaymentHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	repayments, total, err := h.repaymentService.List(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list repayments")
	}
	return response.Success(c, "Repayments retrieved successfully", pagination.NewResponse(repayments, params, total))
}

// Get returns one repayment
// @Summary Get repayment
// @Tags Repayments
// @Produce json
// @Security SessionAuth
// @Param id path string true "Repayment ID"
// @Success 200 {object} response.Response
// @Router /repayments/{id} [get]
func (h *RepaymentHandler) Get(c *fiber.Ctx) error {
	repayment, err := h.repaymentService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrRepaymentNotFound) {
			return response.NotFound(c, "Repayment not found")
		}
		return response.InternalServerError(c, "Failed to get repayment")
	}
	return response.Success(c, "Repayment retrieved successfully", fiber.Map{"repayment": repayment})
}

// ListByLoan returns a loan's repayment history
// @Summary List repayments of a loan
// @Tags Loans
// @Produce json
// @Security SessionAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Router /loans/{id}/repayments [get]
func (h *RepaymentHandler) ListByLoan(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals(middleware.LocalRole).(string)

	repayments, err := h.repaymentService.ListByLoan(c.UserContext(), c.Params("id"), userID, role == "admin")
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You don't have access to this loan")
		default:
			return response.InternalServerError(c, "Failed to list repayments")
		}
	}
	return response.Success(c, "Repayments retrieved successfully", fiber.Map{"repayments": repayments})
}

// Summary returns the repayment progress on a loan
// @Summary Get loan payment summary
// @Tags Loans
// @Produce json
// @Security SessionAuth
// @Param id path string true "Loan ID"
// @Success 200 {object} response.Response
// @Router /loans/{id}/summary [get]
func (h *RepaymentHandler) Summary(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}
	role, _ := c.Locals(middleware.LocalRole).(string)

	summary, err := h.repaymentService.Summary(c.UserContext(), c.Params("id"), userID, role == "admin")
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrLoanNotFound):
			return response.NotFound(c, "Loan not found")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You don't have access to this loan")
		default:
			return response.InternalServerError(c, "Failed to build summary")
		}
	}
	return response.Success(c, "Summary retrieved successfully", fiber.Map{"summary": summary})
}
