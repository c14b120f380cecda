package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/services"
)

type CommentHandler struct {
	service commentApplicationService
}

type commentApplicationService interface {
	AddComment(ctx context.Context, input services.AddCommentInput) (*models.SessionComment, error)
	ListComments(ctx context.Context, sessionID, viewerID int64, viewerRole string) ([]models.SessionComment, error)
	UpdateComment(ctx context.Context, commentID, actorID int64, actorRole, body string, isPrivate bool) (*models.SessionComment, error)
	DeleteComment(ctx context.Context, commentID, actorID int64, actorRole string) error
}

func NewCommentHandler(service *services.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

type addCommentRequest struct {
	CommentType string `json:"comment_type" validate:"required"`
	Body        string `json:"body" validate:"required,max=4000"`
	IsPrivate   bool   `json:"is_private"`
}

type updateCommentRequest struct {
	Body      string `json:"body" validate:"required,max=4000"`
	IsPrivate bool   `json:"is_private"`
}

func (h *CommentHandler) AddComment(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	actorID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req addCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	comment, err := h.service.AddComment(c.Context(), services.AddCommentInput{
		SessionID:   sessionID,
		AuthorID:    actorID,
		CommentType: req.CommentType,
		Body:        req.Body,
		IsPrivate:   req.IsPrivate,
	})
	if err != nil {
		return mapCommentError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"comment": comment})
}

func (h *CommentHandler) ListComments(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	actorID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	comments, err := h.service.ListComments(c.Context(), sessionID, actorID, currentRole(c))
	if err != nil {
		return mapCommentError(c, err)
	}

	return c.JSON(fiber.Map{"comments": comments})
}

func (h *CommentHandler) UpdateComment(c *fiber.Ctx) error {
	commentID, err := parseIDParam(c, "commentId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid comment id"})
	}

	actorID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req updateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	comment, err := h.service.UpdateComment(c.Context(), commentID, actorID, currentRole(c), req.Body, req.IsPrivate)
	if err != nil {
		return mapCommentError(c, err)
	}

	return c.JSON(fiber.Map{"comment": comment})
}

func (h *CommentHandler) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseIDParam(c, "commentId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid comment id"})
	}

	actorID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if err := h.service.DeleteComment(c.Context(), commentID, actorID, currentRole(c)); err != nil {
		return mapCommentError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func mapCommentError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	case errors.Is(err, services.ErrCommentNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Comment not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process comment request"})
	}
}
