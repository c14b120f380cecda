package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/openfit/studioback/internal/repository"
)

type PlanHandler struct {
	planRepo *repository.PlanRepository
}

func NewPlanHandler(planRepo *repository.PlanRepository) *PlanHandler {
	return &PlanHandler{planRepo: planRepo}
}

type createPlanRequest struct {
	Name                string  `json:"name" validate:"required,max=100"`
	Description         *string `json:"description"`
	Price               float64 `json:"price" validate:"gte=0"`
	DurationDays        int     `json:"duration_days" validate:"required,gte=1"`
	MaxSessionsPerMonth *int    `json:"max_sessions_per_month" validate:"omitempty,gte=1"`
}

type updatePlanRequest struct {
	Name                *string  `json:"name" validate:"omitempty,max=100"`
	Description         *string  `json:"description"`
	Price               *float64 `json:"price" validate:"omitempty,gte=0"`
	DurationDays        *int     `json:"duration_days" validate:"omitempty,gte=1"`
	MaxSessionsPerMonth *int     `json:"max_sessions_per_month" validate:"omitempty,gte=1"`
	IsActive            *bool    `json:"is_active"`
}

func (h *PlanHandler) CreatePlan(c *fiber.Ctx) error {
	var req createPlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	plan, err := h.planRepo.Create(c.Context(), repository.CreatePlanInput{
		Name:                req.Name,
		Description:         req.Description,
		Price:               req.Price,
		DurationDays:        req.DurationDays,
		MaxSessionsPerMonth: req.MaxSessionsPerMonth,
	})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to create plan"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) ListPlans(c *fiber.Ctx) error {
	plans, err := h.planRepo.ListAll(c.Context(), c.QueryBool("active_only", false))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to list plans"})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

func (h *PlanHandler) GetPlan(c *fiber.Ctx) error {
	planID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan id"})
	}

	plan, err := h.planRepo.GetByID(c.Context(), planID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to fetch plan"})
	}
	return c.JSON(fiber.Map{"plan": plan})
}

func (h *PlanHandler) UpdatePlan(c *fiber.Ctx) error {
	planID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan id"})
	}

	var req updatePlanRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	plan, err := h.planRepo.UpdatePartial(c.Context(), planID, repository.UpdatePlanInput{
		Name:                req.Name,
		Description:         req.Description,
		Price:               req.Price,
		DurationDays:        req.DurationDays,
		MaxSessionsPerMonth: req.MaxSessionsPerMonth,
		IsActive:            req.IsActive,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
		}
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to update plan"})
	}
	return c.JSON(fiber.Map{"plan": plan})
}

// DeletePlan removes a plan that has no subscriptions. Plans with history
// should be deactivated via is_active instead.
func (h *PlanHandler) DeletePlan(c *fiber.Ctx) error {
	planID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid plan id"})
	}

	deleted, err := h.planRepo.Delete(c.Context(), planID)
	if err != nil {
		return c.Status(fiber.StatusConflict).
			JSON(fiber.Map{"error": "Plan has subscriptions and cannot be deleted"})
	}
	if !deleted {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
