package handlers

import (
	"errors"
	"time"

	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/domain"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/core/services"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/pagination"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/response"
	"github.com/mckienzie7/MicroFinance-Solution-sub000/internal/pkg/validation"

	"github.com/gofiber/fiber/v2"
)

// TransactionHandler handles ledger and transfer endpoints
type TransactionHandler struct {
	txService *services.TransactionService
}

// NewTransactionHandler creates a new transaction handler
func NewTransactionHandler(txService *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{txService: txService}
}

// Transfer moves funds between two accounts
// @Summary Transfer funds
// @Tags Transactions
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param body body services.TransferInput true "Transfer"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /transactions/transfer [post]
func (h *TransactionHandler) Transfer(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.TransferInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, err)
	}

	if err := h.txService.Transfer(c.UserContext(), userID, &input); err != nil {
		switch {
		case errors.Is(err, domain.ErrAccountNotFound):
			return response.NotFound(c, "Account not found")
		case errors.Is(err, domain.ErrAccountInactive):
			return response.BadRequest(c, "Account is not active")
		case errors.Is(err, domain.ErrInsufficientFunds):
			return response.BadRequest(c, "Insufficient funds")
		case errors.Is(err, domain.ErrForbidden):
			return response.Forbidden(c, "You don't own the source account")
		case errors.Is(err, domain.ErrInvalidInput):
			return response.BadRequest(c, "Invalid transfer request")
		default:
			return response.InternalServerError(c, "Failed to transfer")
		}
	}

	return response.Success(c, "Transfer completed successfully", nil)
}

// List returns a page of all transactions (admin)
// @Summary List transactions
// @Tags Transactions
// @Produce json
// @Security SessionAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /transactions [get]
func (h *TransactionHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	txs, total, err := h.txService.List(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list transactions")
	}
	return response.Success(c, "Transactions retrieved successfully", pagination.NewResponse(txs, params, total))
}

// Get returns one transaction
// @Summary Get transaction
// @Tags Transactions
// @Produce json
// @Security SessionAuth
// @Param id path string true "Transaction ID"
// @Success 200 {object} response.Response
// @Router /transactions/{id} [get]
func (h *TransactionHandler) Get(c *fiber.Ctx) error {
	tx, err := h.txService.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return response.NotFound(c, "Transaction not found")
		}
		return response.InternalServerError(c, "Failed to get transaction")
	}
	return response.Success(c, "Transaction retrieved successfully", fiber.Map{"transaction": tx})
}

// Report returns transactions within a date range (admin reports)
// @Summary List transactions by date range
// @Tags Admin
// @Produce json
// @Security SessionAuth
// @Param from query string true "Start date (2006-01-02)"
// @Param to query string true "End date (2006-01-02)"
// @Success 200 {object} response.Response
// @Router /admin/reports/transactions [get]
func (h *TransactionHandler) Report(c *fiber.Ctx) error {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		return response.BadRequest(c, "Invalid 'from' date, expected YYYY-MM-DD")
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		return response.BadRequest(c, "Invalid 'to' date, expected YYYY-MM-DD")
	}
	// Make 'to' inclusive of the whole day
	to = to.Add(24*time.Hour - time.Nanosecond)

	txs, err := h.txService.ListByDateRange(c.UserContext(), from, to)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return response.BadRequest(c, "'to' date precedes 'from' date")
		}
		return response.InternalServerError(c, "Failed to build report")
	}
	return response.Success(c, "Transactions retrieved successfully", fiber.Map{"transactions": txs})
}
