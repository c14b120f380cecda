package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/services"
)

type SubscriptionHandler struct {
	service subscriptionApplicationService
}

type subscriptionApplicationService interface {
	Subscribe(ctx context.Context, memberID, planID int64, startDate *time.Time) (*models.SubscriptionDetail, error)
	GetSubscription(ctx context.Context, subscriptionID int64) (*models.SubscriptionDetail, error)
	ListForMember(ctx context.Context, memberID int64) ([]models.SubscriptionDetail, error)
	Cancel(ctx context.Context, subscriptionID int64) (*models.Subscription, error)
	Freeze(ctx context.Context, subscriptionID int64) (*models.Subscription, error)
	Unfreeze(ctx context.Context, subscriptionID int64) (*models.Subscription, error)
}

func NewSubscriptionHandler(service *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

type subscribeRequest struct {
	MemberID  int64   `json:"member_id" validate:"required,gt=0"`
	PlanID    int64   `json:"plan_id" validate:"required,gt=0"`
	StartDate *string `json:"start_date"`
}

func (h *SubscriptionHandler) Subscribe(c *fiber.Ctx) error {
	var req subscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	startDate, err := parseOptionalDate(req.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "start_date must be YYYY-MM-DD"})
	}

	detail, err := h.service.Subscribe(c.Context(), req.MemberID, req.PlanID, startDate)
	if err != nil {
		return mapSubscriptionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"subscription": detail})
}

func (h *SubscriptionHandler) GetSubscription(c *fiber.Ctx) error {
	subscriptionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid subscription id"})
	}

	detail, err := h.service.GetSubscription(c.Context(), subscriptionID)
	if err != nil {
		return mapSubscriptionError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": detail})
}

func (h *SubscriptionHandler) ListForMember(c *fiber.Ctx) error {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member id"})
	}

	subscriptions, err := h.service.ListForMember(c.Context(), memberID)
	if err != nil {
		return mapSubscriptionError(c, err)
	}
	return c.JSON(fiber.Map{"subscriptions": subscriptions})
}

func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	return h.transition(c, h.service.Cancel)
}

func (h *SubscriptionHandler) Freeze(c *fiber.Ctx) error {
	return h.transition(c, h.service.Freeze)
}

func (h *SubscriptionHandler) Unfreeze(c *fiber.Ctx) error {
	return h.transition(c, h.service.Unfreeze)
}

func (h *SubscriptionHandler) transition(
	c *fiber.Ctx,
	apply func(ctx context.Context, subscriptionID int64) (*models.Subscription, error),
) error {
	subscriptionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid subscription id"})
	}

	subscription, err := apply(c.Context(), subscriptionID)
	if err != nil {
		return mapSubscriptionError(c, err)
	}
	return c.JSON(fiber.Map{"subscription": subscription})
}

func mapSubscriptionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrMemberNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	case errors.Is(err, services.ErrPlanNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Plan not found"})
	case errors.Is(err, services.ErrSubscriptionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Subscription not found"})
	case errors.Is(err, services.ErrPlanInactive), errors.Is(err, services.ErrMemberNotActive):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSubscriptionExists):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process subscription request"})
	}
}
