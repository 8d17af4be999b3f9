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

// AccountHandler handles savings account endpoints
type AccountHandler struct {
	accountService *services.AccountService
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// UpdateStatusRequest represents an account status change
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active frozen closed"`
}

// accountError maps account domain errors onto HTTP responses
func accountError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return response.NotFound(c, "Account not found")
	case errors.Is(err, domain.ErrAccountInactive):
		return response.BadRequest(c, "Account is not active")
	case errors.Is(err, domain.ErrInsufficientFunds):
		return response.BadRequest(c, "Insufficient funds")
	case errors.Is(err, domain.ErrForbidden):
		return response.Forbidden(c, "You don't have access to this account")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// Create opens a new savings account for the caller
// @Summary Open account
// @Tags Accounts
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param body body services.CreateAccountInput true "Account data"
// @Success 201 {object} response.Response
// @Router /accounts [post]
func (h *AccountHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.CreateAccountInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	// Accounts are always opened for the caller
	input.UserID = userID
	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, err)
	}

	account, err := h.accountService.Create(c.UserContext(), &input)
	if err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}

	return response.Created(c, "Account created successfully", fiber.Map{"account": account})
}

// ListMine returns the caller's accounts
// @Summary List own accounts
// @Tags Accounts
// @Produce json
// @Security SessionAuth
// @Success 200 {object} response.Response
// @Router /accounts [get]
func (h *AccountHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	accounts, err := h.accountService.ListByUser(c.UserContext(), userID)
	if err != nil {
		return response.InternalServerError(c, "Failed to list accounts")
	}
	return response.Success(c, "Accounts retrieved successfully", fiber.Map{"accounts": accounts})
}

// Get returns one account, owner or admin only
// @Summary Get account
// @Tags Accounts
// @Produce json
// @Security SessionAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Response
// @Router /accounts/{id} [get]
func (h *AccountHandler) Get(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var err error
	role, _ := c.Locals(middleware.LocalRole).(string)
	if role == "admin" {
		account, aerr := h.accountService.GetByID(c.UserContext(), c.Params("id"))
		if aerr == nil {
			return response.Success(c, "Account retrieved successfully", fiber.Map{"account": account})
		}
		err = aerr
	} else {
		account, aerr := h.accountService.GetOwned(c.UserContext(), c.Params("id"), userID)
		if aerr == nil {
			return response.Success(c, "Account retrieved successfully", fiber.Map{"account": account})
		}
		err = aerr
	}
	return accountError(c, err, "Failed to get account")
}

// Deposit credits the caller's account
// @Summary Deposit funds
// @Tags Accounts
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path string true "Account ID"
// @Param body body services.MoneyInput true "Amount"
// @Success 200 {object} response.Response
// @Router /accounts/{id}/deposit [post]
func (h *AccountHandler) Deposit(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.MoneyInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, err)
	}

	if _, err := h.accountService.GetOwned(c.UserContext(), c.Params("id"), userID); err != nil {
		return accountError(c, err, "Failed to deposit")
	}

	account, err := h.accountService.Deposit(c.UserContext(), c.Params("id"), &input)
	if err != nil {
		return accountError(c, err, "Failed to deposit")
	}

	return response.Success(c, "Deposit successful", fiber.Map{"account": account})
}

// Withdraw debits the caller's account
// @Summary Withdraw funds
// @Tags Accounts
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path string true "Account ID"
// @Param body body services.MoneyInput true "Amount"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /accounts/{id}/withdraw [post]
func (h *AccountHandler) Withdraw(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.MoneyInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&input); err != nil {
		return response.ValidationError(c, err)
	}

	if _, err := h.accountService.GetOwned(c.UserContext(), c.Params("id"), userID); err != nil {
		return accountError(c, err, "Failed to withdraw")
	}

	account, err := h.accountService.Withdraw(c.UserContext(), c.Params("id"), &input)
	if err != nil {
		return accountError(c, err, "Failed to withdraw")
	}

	return response.Success(c, "Withdrawal successful", fiber.Map{"account": account})
}

// Transactions returns the account ledger
// @Summary List account transactions
// @Tags Accounts
// @Produce json
// @Security SessionAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Response
// @Router /accounts/{id}/transactions [get]
func (h *AccountHandler) Transactions(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	role, _ := c.Locals(middleware.LocalRole).(string)
	if role != "admin" {
		if _, err := h.accountService.GetOwned(c.UserContext(), c.Params("id"), userID); err != nil {
			return accountError(c, err, "Failed to list transactions")
		}
	}

	txs, err := h.accountService.Transactions(c.UserContext(), c.Params("id"))
	if err != nil {
		return accountError(c, err, "Failed to list transactions")
	}

	return response.Success(c, "Transactions retrieved successfully", fiber.Map{"transactions": txs})
}

// ============================================================
// Admin endpoints
// ============================================================

// ListAll returns a page of all accounts
// @Summary List all accounts
// @Tags Admin
// @Produce json
// @Security SessionAuth
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Success 200 {object} response.Response
// @Router /admin/accounts [get]
func (h *AccountHandler) ListAll(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	accounts, total, err := h.accountService.List(c.UserContext(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list accounts")
	}

	return response.Success(c, "Accounts retrieved successfully", pagination.NewResponse(accounts, params, total))
}

// UpdateStatus freezes, reactivates or closes an account
// @Summary Update account status
// @Tags Admin
// @Accept json
// @Produce json
// @Security SessionAuth
// @Param id path string true "Account ID"
// @Param body body UpdateStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Router /admin/accounts/{id}/status [put]
func (h *AccountHandler) UpdateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := validation.Struct(&req); err != nil {
		return response.ValidationError(c, err)
	}

	account, err := h.accountService.UpdateStatus(c.UserContext(), c.Params("id"), req.Status)
	if err != nil {
		return accountError(c, err, "Failed to update account status")
	}

	return response.Success(c, "Account status updated successfully", fiber.Map{"account": account})
}
