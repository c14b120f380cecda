package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/openfit/studioback/internal/models"
)

// SchemaHandler serves the enumerations and bounds the booking UI needs to
// render forms without hardcoding them client-side.
type SchemaHandler struct{}

func NewSchemaHandler() *SchemaHandler {
	return &SchemaHandler{}
}

func (h *SchemaHandler) SessionSchema(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"session_types":        models.SessionTypes,
		"session_statuses":     models.SessionStatuses,
		"comment_types":        models.CommentTypes,
		"member_statuses":      models.MemberStatuses,
		"duration_minutes_min": models.MinSessionDurationMinutes,
		"duration_minutes_max": models.MaxSessionDurationMinutes,
		"conflict_types": []string{
			models.ConflictTrainerUnavailable,
			models.ConflictTrainerBooked,
			models.ConflictMemberBooked,
			models.ConflictRoomOccupied,
		},
	})
}
