package handlers

import (
	"errors"

	domain "lumapay/internal/errors"
	"lumapay/internal/models"
	"lumapay/internal/services/ledger"
	"lumapay/internal/services/transfer"
	"lumapay/internal/services/wallet"
	"lumapay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type TransferHandler struct {
	transfers transfer.Service
}

func NewTransferHandler(transfers transfer.Service) *TransferHandler {
	return &TransferHandler{transfers: transfers}
}

func (h *TransferHandler) TransferInternal(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		SourceWalletID      uint   `json:"source_wallet_id"`
		DestinationWalletID uint   `json:"destination_wallet_id"`
		Amount              string `json:"amount"`
		Pin                 string `json:"pin"`
		Notes               string `json:"notes"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	amount, err := parseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, "Invalid amount")
	}

	result, err := h.transfers.TransferInternal(c.Context(), transfer.InternalRequest{
		SourceWalletID:      input.SourceWalletID,
		DestinationWalletID: input.DestinationWalletID,
		Amount:              amount,
		Pin:                 input.Pin,
		Notes:               input.Notes,
	})
	if err != nil {
		return transferError(c, err)
	}

	return utils.Success(c, fiber.Map{
		"debit_payment":  result.DebitPayment,
		"credit_payment": result.CreditPayment,
	})
}

func (h *TransferHandler) TransferExternal(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		SourceWalletID     uint   `json:"source_wallet_id"`
		BankCode           string `json:"bank_code"`
		DestinationAccount string `json:"destination_account"`
		Amount             string `json:"amount"`
		Pin                string `json:"pin"`
		Notes              string `json:"notes"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	amount, err := parseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, "Invalid amount")
	}

	result, err := h.transfers.TransferExternal(c.Context(), transfer.ExternalRequest{
		SourceWalletID:     input.SourceWalletID,
		BankCode:           input.BankCode,
		DestinationAccount: input.DestinationAccount,
		Amount:             amount,
		Pin:                input.Pin,
		Notes:              input.Notes,
	})
	if err != nil {
		return transferError(c, err)
	}

	return utils.Respond(c, fiber.StatusAccepted, fiber.Map{
		"payment": result.DebitPayment,
	})
}

func (h *TransferHandler) Refund(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if claims.Role != models.RoleAdmin {
		return utils.Forbidden(c, "admin role required")
	}
	paymentID, err := c.ParamsInt("id")
	if err != nil || paymentID <= 0 {
		return utils.BadRequest(c, "Invalid payment id")
	}

	result, err := h.transfers.Refund(c.Context(), uint(paymentID))
	if err != nil {
		return transferError(c, err)
	}

	return utils.Success(c, fiber.Map{"refund": result.DebitPayment})
}

// transferError maps domain errors to HTTP responses. The body carries the
// stable error code so API clients do not parse messages.
func transferError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, transfer.ErrAmountTooSmall),
		errors.Is(err, transfer.ErrAmountTooLarge),
		errors.Is(err, ledger.ErrInvalidAmount):
		return domainError(c, fiber.StatusBadRequest, domain.ErrInvalidAmount)
	case errors.Is(err, wallet.ErrSameWallet):
		return utils.BadRequest(c, err.Error())
	case errors.Is(err, transfer.ErrAlreadyRefunded),
		errors.Is(err, transfer.ErrRefundNotAllowed):
		return domainError(c, fiber.StatusBadRequest, domain.ErrNotRefundable)
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return domainError(c, fiber.StatusUnprocessableEntity, domain.ErrInsufficientBalance)
	case errors.Is(err, wallet.ErrIncorrectPin),
		errors.Is(err, wallet.ErrMaxPinAttempts):
		return domainError(c, fiber.StatusUnauthorized, domain.ErrIncorrectPin)
	case errors.Is(err, wallet.ErrWalletLocked):
		return domainError(c, fiber.StatusForbidden, domain.ErrWalletLocked)
	case errors.Is(err, wallet.ErrWalletNotFound):
		return domainError(c, fiber.StatusNotFound, domain.ErrWalletNotFound)
	case errors.Is(err, transfer.ErrPaymentNotFound):
		return utils.NotFound(c, err.Error())
	default:
		return utils.InternalError(c, "Transfer failed")
	}
}

func domainError(c *fiber.Ctx, status int, derr *domain.DomainError) error {
	return utils.Respond(c, status, fiber.Map{
		"error": derr.Message,
		"code":  derr.Code,
	})
}
