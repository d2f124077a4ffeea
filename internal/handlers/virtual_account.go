package handlers

import (
	"errors"

	"lumapay/internal/models"
	"lumapay/internal/services/bank"
	"lumapay/internal/services/ledger"
	"lumapay/internal/services/virtualaccount"
	"lumapay/internal/services/wallet"
	"lumapay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type VirtualAccountHandler struct {
	accounts virtualaccount.Service
}

func NewVirtualAccountHandler(accounts virtualaccount.Service) *VirtualAccountHandler {
	return &VirtualAccountHandler{accounts: accounts}
}

// ProvisionDeposit opens a long-lived credit VA for topping up a wallet.
func (h *VirtualAccountHandler) ProvisionDeposit(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		WalletID uint   `json:"wallet_id"`
		BankCode string `json:"bank_code"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	va, err := h.accounts.Provision(c.Context(), virtualaccount.ProvisionRequest{
		WalletID: input.WalletID,
		BankCode: input.BankCode,
		Type:     models.VirtualAccountTypeCredit,
	})
	if err != nil {
		return virtualAccountError(c, err)
	}

	return utils.Respond(c, fiber.StatusCreated, fiber.Map{"virtual_account": va})
}

// ProvisionWithdrawal opens a single-use debit VA for a cardless withdrawal.
func (h *VirtualAccountHandler) ProvisionWithdrawal(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		WalletID uint   `json:"wallet_id"`
		BankCode string `json:"bank_code"`
		Pin      string `json:"pin"`
		Amount   string `json:"amount"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	amount, err := decimal.NewFromString(input.Amount)
	if err != nil || amount.Sign() <= 0 {
		return utils.BadRequest(c, "Invalid amount")
	}

	va, err := h.accounts.Provision(c.Context(), virtualaccount.ProvisionRequest{
		WalletID: input.WalletID,
		BankCode: input.BankCode,
		Type:     models.VirtualAccountTypeDebit,
		Pin:      input.Pin,
		Amount:   amount,
	})
	if err != nil {
		return virtualAccountError(c, err)
	}

	return utils.Respond(c, fiber.StatusCreated, fiber.Map{"virtual_account": va})
}

func virtualAccountError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, virtualaccount.ErrVirtualAccountExists),
		errors.Is(err, virtualaccount.ErrWithdrawPending):
		return utils.Conflict(c, err.Error())
	case errors.Is(err, bank.ErrUnknownBank), errors.Is(err, virtualaccount.ErrInvalidAmount):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, wallet.ErrWalletNotFound):
		return utils.NotFound(c, err.Error())
	case errors.Is(err, wallet.ErrIncorrectPin), errors.Is(err, wallet.ErrMaxPinAttempts):
		return utils.Unauthorized(c, err.Error())
	case errors.Is(err, wallet.ErrWalletLocked):
		return utils.Forbidden(c, err.Error())
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return utils.UnprocessableEntity(c, err.Error())
	case errors.Is(err, virtualaccount.ErrNumberExhausted):
		return utils.Respond(c, fiber.StatusServiceUnavailable, fiber.Map{"error": err.Error()})
	default:
		return utils.InternalError(c, "Failed to provision virtual account")
	}
}
