package handlers

import (
	"lumapay/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// Handlers groups every HTTP handler so route setup takes one argument.
type Handlers struct {
	Wallet         *WalletHandler
	Transfer       *TransferHandler
	VirtualAccount *VirtualAccountHandler
	Callback       *CallbackHandler
	Plan           *PlanHandler
	Health         *HealthHandler
}

// SetupRoutes mounts all API routes on the app.
func SetupRoutes(app *fiber.App, h Handlers, auth *middleware.AuthMiddleware) {
	app.Get("/health", h.Health.HealthCheck)

	api := app.Group("/api")

	// Bank-facing settlement callback; authenticated by channel key.
	api.Post("/callbacks/settlement", h.Callback.Settlement)

	authenticated := api.Group("/", auth.Handler)

	wallets := authenticated.Group("/wallets")
	wallets.Post("/", h.Wallet.CreateWallet)
	wallets.Get("/:id", h.Wallet.GetWallet)
	wallets.Get("/:id/transactions", h.Wallet.GetTransactions)
	wallets.Post("/:id/unlock", h.Wallet.UnlockWallet)

	transfers := authenticated.Group("/transfers")
	transfers.Post("/internal", h.Transfer.TransferInternal)
	transfers.Post("/external", h.Transfer.TransferExternal)

	authenticated.Post("/payments/:id/refund", h.Transfer.Refund)

	accounts := authenticated.Group("/virtual-accounts")
	accounts.Post("/deposit", h.VirtualAccount.ProvisionDeposit)
	accounts.Post("/withdrawal", h.VirtualAccount.ProvisionWithdrawal)

	plans := authenticated.Group("/plans")
	plans.Post("/", h.Plan.CreatePlan)
	plans.Get("/:id", h.Plan.GetPlan)
	plans.Delete("/:id", h.Plan.CancelPlan)
}
