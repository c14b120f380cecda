package handlers

import (
	"context"
	"errors"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
	"github.com/openfit/studioback/internal/services"
)

type TrainerHandler struct {
	service trainerApplicationService
}

type trainerApplicationService interface {
	CreateTrainer(ctx context.Context, input repository.CreateTrainerInput) (*models.Trainer, error)
	GetTrainer(ctx context.Context, trainerID int64) (*models.Trainer, error)
	ListTrainers(ctx context.Context, activeOnly bool) ([]models.Trainer, error)
	UpdateTrainer(ctx context.Context, trainerID int64, input repository.UpdateTrainerInput) (*models.Trainer, error)
	DeleteTrainer(ctx context.Context, trainerID int64) error
	AddAvailabilityWindow(ctx context.Context, window models.AvailabilityWindow) (*models.AvailabilityWindow, error)
	ListAvailability(ctx context.Context, trainerID int64) ([]models.AvailabilityWindow, error)
	RemoveAvailabilityWindow(ctx context.Context, trainerID, windowID int64) error
	UploadTrainerPhoto(ctx context.Context, trainerID int64, file multipart.File) (*models.Trainer, error)
}

func NewTrainerHandler(service *services.TrainerService) *TrainerHandler {
	return &TrainerHandler{service: service}
}

type createTrainerRequest struct {
	FirstName       string   `json:"first_name" validate:"required,max=100"`
	LastName        string   `json:"last_name" validate:"required,max=100"`
	Email           string   `json:"email" validate:"required,email"`
	Phone           *string  `json:"phone" validate:"omitempty,phone"`
	Bio             *string  `json:"bio"`
	Specializations []string `json:"specializations"`
	Certifications  []string `json:"certifications"`
	HourlyRate      *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
}

type updateTrainerRequest struct {
	FirstName       *string   `json:"first_name" validate:"omitempty,max=100"`
	LastName        *string   `json:"last_name" validate:"omitempty,max=100"`
	Email           *string   `json:"email" validate:"omitempty,email"`
	Phone           *string   `json:"phone" validate:"omitempty,phone"`
	Bio             *string   `json:"bio"`
	Specializations *[]string `json:"specializations"`
	Certifications  *[]string `json:"certifications"`
	HourlyRate      *float64  `json:"hourly_rate" validate:"omitempty,gte=0"`
	IsActive        *bool     `json:"is_active"`
}

type availabilityWindowRequest struct {
	DayOfWeek   int `json:"day_of_week" validate:"gte=0,lte=6"`
	StartMinute int `json:"start_minute" validate:"gte=0,lte=1439"`
	EndMinute   int `json:"end_minute" validate:"gte=1,lte=1440"`
}

func (h *TrainerHandler) CreateTrainer(c *fiber.Ctx) error {
	var req createTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	trainer, err := h.service.CreateTrainer(c.Context(), repository.CreateTrainerInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Bio:             req.Bio,
		Specializations: req.Specializations,
		Certifications:  req.Certifications,
		HourlyRate:      req.HourlyRate,
	})
	if err != nil {
		return mapTrainerError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"trainer": trainer})
}

func (h *TrainerHandler) ListTrainers(c *fiber.Ctx) error {
	trainers, err := h.service.ListTrainers(c.Context(), c.QueryBool("active_only", false))
	if err != nil {
		return mapTrainerError(c, err)
	}
	return c.JSON(fiber.Map{"trainers": trainers})
}

func (h *TrainerHandler) GetTrainer(c *fiber.Ctx) error {
	trainerID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trainer id"})
	}

	trainer, err := h.service.GetTrainer(c.Context(), trainerID)
	if err != nil {
		return mapTrainerError(c, err)
	}
	return c.JSON(fiber.Map{"trainer": trainer})
}

func (h *TrainerHandler) UpdateTrainer(c *fiber.Ctx) error {
	trainerID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trainer id"})
	}

	var req updateTrainerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	trainer, err := h.service.UpdateTrainer(c.Context(), trainerID, repository.UpdateTrainerInput{
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		Email:           req.Email,
		Phone:           req.Phone,
		Bio:             req.Bio,
		Specializations: req.Specializations,
		Certifications:  req.Certifications,
		HourlyRate:      req.HourlyRate,
		IsActive:        req.IsActive,
	})
	if err != nil {
		return mapTrainerError(c, err)
	}
	return c.JSON(fiber.Map{"trainer": trainer})
}

func (h *TrainerHandler) DeleteTrainer(c *fiber.Ctx) error {
	trainerID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trainer id"})
	}

	if err := h.service.DeleteTrainer(c.Context(), trainerID); err != nil {
		return mapTrainerError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TrainerHandler) AddAvailability(c *fiber.Ctx) error {
	trainerID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trainer id"})
	}

	var req availabilityWindowRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	window, err := h.service.AddAvailabilityWindow(c.Context(), models.AvailabilityWindow{
		TrainerID:   trainerID,
		DayOfWeek:   req.DayOfWeek,
		StartMinute: req.StartMinute,
		EndMinute:   req.EndMinute,
	})
	if err != nil {
		return mapTrainerError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"window": window})
}

func (h *TrainerHandler) ListAvailability(c *fiber.Ctx) error {
	trainerID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trainer id"})
	}

	windows, err := h.service.ListAvailability(c.Context(), trainerID)
	if err != nil {
		return mapTrainerError(c, err)
	}
	return c.JSON(fiber.Map{"windows": windows})
}

func (h *TrainerHandler) RemoveAvailability(c *fiber.Ctx) error {
	trainerID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trainer id"})
	}
	windowID, err := parseIDParam(c, "windowId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid window id"})
	}

	if err := h.service.RemoveAvailabilityWindow(c.Context(), trainerID, windowID); err != nil {
		return mapTrainerError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *TrainerHandler) UploadPhoto(c *fiber.Ctx) error {
	trainerID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid trainer id"})
	}

	fileHeader, err := c.FormFile("photo")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "photo file is required"})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to read photo"})
	}
	defer file.Close()

	trainer, err := h.service.UploadTrainerPhoto(c.Context(), trainerID, file)
	if err != nil {
		return mapTrainerError(c, err)
	}

	return c.JSON(fiber.Map{"trainer": trainer})
}

func mapTrainerError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidAvailabilityWindow):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateAvailabilityWindow):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateEmail):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already registered"})
	case errors.Is(err, services.ErrTrainerNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Trainer not found"})
	case errors.Is(err, services.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnsupportedPhotoType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process trainer request"})
	}
}
