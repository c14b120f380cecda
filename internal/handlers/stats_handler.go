package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/openfit/studioback/internal/services"
)

type StatsHandler struct {
	service dashboardStatsService
}

type dashboardStatsService interface {
	Dashboard(ctx context.Context) (*services.DashboardStats, error)
}

func NewStatsHandler(service *services.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

func (h *StatsHandler) Dashboard(c *fiber.Ctx) error {
	stats, err := h.service.Dashboard(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to compute dashboard stats"})
	}
	return c.JSON(fiber.Map{"stats": stats})
}
