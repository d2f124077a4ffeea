package handlers

import (
	"lumapay/internal/repositories/cache"

	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	cache *cache.CacheService
}

func NewHealthHandler(cache *cache.CacheService) *HealthHandler {
	return &HealthHandler{cache: cache}
}

func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	redisStatus := "connected"
	if h.cache != nil {
		if err := h.cache.HealthCheck(c.Context()); err != nil {
			redisStatus = "unavailable"
		}
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"services": fiber.Map{
			"redis": redisStatus,
		},
	})
}
