package handlers

import (
	"errors"
	"time"

	"lumapay/internal/services/bank"
	"lumapay/internal/services/plan"
	"lumapay/internal/services/wallet"
	"lumapay/internal/utils"

	"github.com/gofiber/fiber/v2"
)

type PlanHandler struct {
	plans plan.Service
}

func NewPlanHandler(plans plan.Service) *PlanHandler {
	return &PlanHandler{plans: plans}
}

func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}

	var input struct {
		WalletID           uint   `json:"wallet_id"`
		BankCode           string `json:"bank_code"`
		DestinationAccount string `json:"destination_account"`
		Amount             string `json:"amount"`
		Interval           string `json:"interval"`
		Installments       int    `json:"installments"`
	}
	if err := c.BodyParser(&input); err != nil {
		return utils.BadRequest(c, "Invalid request format")
	}
	amount, err := parseAmount(input.Amount)
	if err != nil {
		return utils.BadRequest(c, "Invalid amount")
	}
	interval, err := time.ParseDuration(input.Interval)
	if err != nil {
		return utils.BadRequest(c, "Invalid interval")
	}

	p, err := h.plans.Create(c.Context(), plan.CreateRequest{
		WalletID:           input.WalletID,
		BankCode:           input.BankCode,
		DestinationAccount: input.DestinationAccount,
		Amount:             amount,
		Interval:           interval,
		Installments:       input.Installments,
	})
	if err != nil {
		switch {
		case errors.Is(err, plan.ErrInvalidPlan), errors.Is(err, bank.ErrUnknownBank):
			return utils.BadRequest(c, err.Error())
		case errors.Is(err, wallet.ErrWalletNotFound):
			return utils.NotFound(c, err.Error())
		default:
			return utils.InternalError(c, "Failed to create plan")
		}
	}

	return utils.Respond(c, fiber.StatusCreated, fiber.Map{"plan": p})
}

func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	planID, err := c.ParamsInt("id")
	if err != nil || planID <= 0 {
		return utils.BadRequest(c, "Invalid plan id")
	}

	p, err := h.plans.Get(c.Context(), uint(planID))
	if err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "Failed to get plan")
	}
	return utils.Success(c, fiber.Map{"plan": p})
}

func (h *PlanHandler) CancelPlan(c *fiber.Ctx) error {
	if _, err := extractUserClaims(c); err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	planID, err := c.ParamsInt("id")
	if err != nil || planID <= 0 {
		return utils.BadRequest(c, "Invalid plan id")
	}

	if err := h.plans.Cancel(c.Context(), uint(planID)); err != nil {
		if errors.Is(err, plan.ErrPlanNotFound) {
			return utils.NotFound(c, err.Error())
		}
		return utils.InternalError(c, "Failed to cancel plan")
	}
	return utils.Success(c, fiber.Map{"message": "plan cancelled"})
}
