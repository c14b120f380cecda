package handlers

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
	"github.com/openfit/studioback/internal/services"
)

type SessionHandler struct {
	service schedulingApplicationService
}

type schedulingApplicationService interface {
	BookSession(ctx context.Context, actorUserID int64, input services.BookSessionInput) (*models.TrainingSession, error)
	CheckConflicts(ctx context.Context, trainerID, memberID int64, room *string, scheduledAt time.Time, durationMinutes int, excludeSessionID int64) (*models.ConflictCheckResult, error)
	ListSessions(ctx context.Context, filter repository.SessionListFilter) ([]models.TrainingSession, error)
	GetSession(ctx context.Context, sessionID int64) (*models.TrainingSession, error)
	Reschedule(ctx context.Context, sessionID int64, scheduledAt time.Time, durationMinutes int) (*models.TrainingSession, error)
	UpdateStatus(ctx context.Context, sessionID int64, requestedStatus string, input services.StatusChangeInput) (*models.TrainingSession, error)
	Calendar(ctx context.Context, from, to time.Time) ([]models.TrainingSession, error)
	DeleteSession(ctx context.Context, sessionID int64) error
}

func NewSessionHandler(service *services.SchedulingService) *SessionHandler {
	return &SessionHandler{service: service}
}

type bookSessionRequest struct {
	MemberID         int64    `json:"member_id" validate:"required,gt=0"`
	TrainerID        int64    `json:"trainer_id" validate:"required,gt=0"`
	SessionType      string   `json:"session_type" validate:"required"`
	Title            string   `json:"title" validate:"required,max=200"`
	Description      *string  `json:"description"`
	ScheduledAt      string   `json:"scheduled_at" validate:"required"`
	DurationMinutes  int      `json:"duration_minutes" validate:"required,gte=15,max=480"`
	Cost             *float64 `json:"cost"`
	SessionRoom      *string  `json:"session_room"`
	EquipmentNeeded  []string `json:"equipment_needed"`
	SessionGoals     *string  `json:"session_goals"`
	PreparationNotes *string  `json:"preparation_notes"`
}

type rescheduleSessionRequest struct {
	ScheduledAt     string `json:"scheduled_at" validate:"required"`
	DurationMinutes int    `json:"duration_minutes" validate:"required,gte=15,max=480"`
}

type updateSessionStatusRequest struct {
	Status            string `json:"status" validate:"required"`
	CompletionSummary string `json:"completion_summary"`
	MemberRating      *int   `json:"member_rating"`
	TrainerRating     *int   `json:"trainer_rating"`
}

type checkConflictsRequest struct {
	TrainerID        int64   `json:"trainer_id" validate:"required,gt=0"`
	MemberID         int64   `json:"member_id"`
	SessionRoom      *string `json:"session_room"`
	ScheduledAt      string  `json:"scheduled_at" validate:"required"`
	DurationMinutes  int     `json:"duration_minutes" validate:"required,gte=15,max=480"`
	ExcludeSessionID int64   `json:"exclude_session_id"`
}

func (h *SessionHandler) BookSession(c *fiber.Ctx) error {
	actorID, err := currentUserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	var req bookSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	scheduledAt, err := parseRFC3339(req.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "scheduled_at must be a valid RFC3339 timestamp"})
	}

	session, err := h.service.BookSession(c.Context(), actorID, services.BookSessionInput{
		MemberID:         req.MemberID,
		TrainerID:        req.TrainerID,
		SessionType:      req.SessionType,
		Title:            req.Title,
		Description:      req.Description,
		ScheduledAt:      scheduledAt,
		DurationMinutes:  req.DurationMinutes,
		Cost:             req.Cost,
		SessionRoom:      req.SessionRoom,
		EquipmentNeeded:  req.EquipmentNeeded,
		SessionGoals:     req.SessionGoals,
		PreparationNotes: req.PreparationNotes,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

// CheckConflicts is the read-only preview used by the booking form. It never
// writes and never blocks.
func (h *SessionHandler) CheckConflicts(c *fiber.Ctx) error {
	var req checkConflictsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	scheduledAt, err := parseRFC3339(req.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "scheduled_at must be a valid RFC3339 timestamp"})
	}

	result, err := h.service.CheckConflicts(
		c.Context(), req.TrainerID, req.MemberID, req.SessionRoom,
		scheduledAt, req.DurationMinutes, req.ExcludeSessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{
		"has_conflicts": result.HasConflicts(),
		"verified":      result.Verified,
		"conflicts":     result.Conflicts,
	})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	timeframe := strings.TrimSpace(c.Query("timeframe"))
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "timeframe must be upcoming or past"})
	}

	filter := repository.SessionListFilter{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: timeframe,
	}
	if trainerID := c.QueryInt("trainer_id"); trainerID > 0 {
		filter.TrainerID = int64(trainerID)
	}
	if memberID := c.QueryInt("member_id"); memberID > 0 {
		filter.MemberID = int64(memberID)
	}

	sessions, err := h.service.ListSessions(c.Context(), filter)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

// Calendar returns all sessions in a date range for the schedule grid.
func (h *SessionHandler) Calendar(c *fiber.Ctx) error {
	from, err := parseRFC3339(c.Query("from"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "from must be a valid RFC3339 timestamp"})
	}
	to, err := parseRFC3339(c.Query("to"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "to must be a valid RFC3339 timestamp"})
	}

	sessions, err := h.service.Calendar(c.Context(), from, to)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	session, err := h.service.GetSession(c.Context(), sessionID)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) Reschedule(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req rescheduleSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	scheduledAt, err := parseRFC3339(req.ScheduledAt)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "scheduled_at must be a valid RFC3339 timestamp"})
	}

	session, err := h.service.Reschedule(c.Context(), sessionID, scheduledAt, req.DurationMinutes)
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) UpdateStatus(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	var req updateSessionStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	session, err := h.service.UpdateStatus(c.Context(), sessionID, req.Status, services.StatusChangeInput{
		CompletionSummary: req.CompletionSummary,
		MemberRating:      req.MemberRating,
		TrainerRating:     req.TrainerRating,
	})
	if err != nil {
		return mapSessionError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) DeleteSession(c *fiber.Ctx) error {
	sessionID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
	}

	if err := h.service.DeleteSession(c.Context(), sessionID); err != nil {
		return mapSessionError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func parseRFC3339(value string) (time.Time, error) {
	return time.Parse(time.RFC3339, strings.TrimSpace(value))
}

func mapSessionError(c *fiber.Ctx, err error) error {
	var conflictErr *services.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":     "Requested time conflicts with the existing schedule",
			"conflicts": conflictErr.Conflicts,
		})
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrTrainerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trainer not found"})
	case errors.Is(err, services.ErrMemberNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	case errors.Is(err, services.ErrTrainerInactive), errors.Is(err, services.ErrMemberNotActive):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSessionNotFound), errors.Is(err, pgx.ErrNoRows):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process session request"})
	}
}
