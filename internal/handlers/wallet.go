package handlers

import (
	"errors"

	"lumapay/internal/models"
	"lumapay/internal/services/wallet"
	"lumapay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type WalletHandler struct {
	wallets wallet.Service
}

func NewWalletHandler(wallets wallet.Service) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// extractUserClaims is a helper function to reduce duplication
func extractUserClaims(c *fiber.Ctx) (*models.UserClaims, error) {
	claims, ok := c.Locals("claims").(*models.UserClaims)
	if !ok || claims == nil {
		return nil, fiber.ErrUnauthorized
	}
	return claims, nil
}

func (h *WalletHandler) CreateWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		Pin string `json:"pin"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	w, err := h.wallets.CreateWallet(c.Context(), claims.UserID, input.Pin)
	if err != nil {
		if errors.Is(err, wallet.ErrInvalidPin) {
			return utils.BadRequest(c, err.Error())
		}
		return utils.InternalError(c, "Failed to create wallet")
	}

	return utils.Respond(c, fiber.StatusCreated, fiber.Map{"wallet": walletView(w)})
}

func (h *WalletHandler) GetWallet(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	walletID, err := c.ParamsInt("id")
	if err != nil || walletID <= 0 {
		return utils.BadRequest(c, "Invalid wallet id")
	}

	w, err := h.wallets.Resolve(c.Context(), uint(walletID))
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		return utils.InternalError(c, "Failed to get wallet")
	}

	return utils.Success(c, fiber.Map{"wallet": walletView(w)})
}

func (h *WalletHandler) GetTransactions(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	walletID, err := c.ParamsInt("id")
	if err != nil || walletID <= 0 {
		return utils.BadRequest(c, "Invalid wallet id")
	}
	pagination := utils.GetPagination(c, 1, 20)

	entries, total, err := h.wallets.GetTransactionHistory(c.Context(), uint(walletID), pagination.Limit, pagination.Offset)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		return utils.InternalError(c, "Failed to get transactions")
	}
	pagination.SetTotal(total)

	return utils.Success(c, utils.NewPaginatedResponse(entries, pagination))
}

func (h *WalletHandler) UnlockWallet(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	if claims.Role != models.RoleAdmin {
		return utils.Forbidden(c, "admin role required")
	}
	walletID, err := c.ParamsInt("id")
	if err != nil || walletID <= 0 {
		return utils.BadRequest(c, "Invalid wallet id")
	}

	if err := h.wallets.Unlock(c.Context(), uint(walletID)); err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return utils.NotFound(c, "Wallet not found")
		}
		return utils.InternalError(c, "Failed to unlock wallet")
	}
	return utils.Success(c, fiber.Map{"message": "wallet unlocked"})
}

// walletView strips the pin hash and attempt counter from API responses.
func walletView(w *models.Wallet) fiber.Map {
	return fiber.Map{
		"id":         w.ID,
		"user_id":    w.UserID,
		"balance":    w.Balance,
		"status":     w.Status,
		"created_at": w.CreatedAt,
	}
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(raw)
}
