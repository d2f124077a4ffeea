package handlers

import (
	"errors"

	"lumapay/internal/services/callback"
	"lumapay/internal/services/ledger"
	"lumapay/internal/services/virtualaccount"
	"lumapay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

// CallbackHandler receives settlement notifications from banks. It is the
// only unauthenticated mutating endpoint; the channel key inside the body
// is the credential.
type CallbackHandler struct {
	callbacks callback.Service
}

func NewCallbackHandler(callbacks callback.Service) *CallbackHandler {
	return &CallbackHandler{callbacks: callbacks}
}

func (h *CallbackHandler) Settlement(c *fiber.Ctx) error {
	var n callback.Notification
	if err := c.BodyParser(&n); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}

	result, err := h.callbacks.Apply(c.Context(), n)
	if err != nil {
		switch {
		case errors.Is(err, callback.ErrUnauthorized):
			return utils.Unauthorized(c, err.Error())
		case errors.Is(err, virtualaccount.ErrVirtualAccountNotFound):
			return utils.NotFound(c, err.Error())
		case errors.Is(err, callback.ErrAccountInactive),
			errors.Is(err, callback.ErrAmountMismatch):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, ledger.ErrInsufficientBalance):
			return utils.UnprocessableEntity(c, err.Error())
		default:
			return utils.InternalError(c, "Failed to apply settlement")
		}
	}

	return utils.Success(c, fiber.Map{
		"reference_number": result.Payment.ReferenceNumber,
		"duplicate":        result.Duplicate,
	})
}
