package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
	"github.com/openfit/studioback/internal/services"
)

type MemberHandler struct {
	service memberApplicationService
}

type memberApplicationService interface {
	CreateMember(ctx context.Context, input repository.CreateMemberInput) (*models.Member, error)
	GetMember(ctx context.Context, memberID int64) (*models.Member, error)
	GetMemberByCode(ctx context.Context, code string) (*models.Member, error)
	ListMembers(ctx context.Context, filter repository.MemberListFilter) ([]models.Member, int, error)
	ListAllMembers(ctx context.Context) ([]models.Member, error)
	UpdateMember(ctx context.Context, memberID int64, input repository.UpdateMemberInput) (*models.Member, error)
	SetMemberStatus(ctx context.Context, memberID int64, status string) (*models.Member, error)
	DeleteMember(ctx context.Context, memberID int64) error
	BulkDeleteMembers(ctx context.Context, memberIDs []int64) (int64, error)
	MemberStats(ctx context.Context) (*models.MemberStats, error)
	MemberQRCode(ctx context.Context, memberID int64, size int) ([]byte, error)
	UploadMemberPhoto(ctx context.Context, memberID int64, file multipart.File) (*models.Member, error)
}

func NewMemberHandler(service *services.MemberService) *MemberHandler {
	return &MemberHandler{service: service}
}

type createMemberRequest struct {
	FirstName             string  `json:"first_name" validate:"required,max=100"`
	LastName              string  `json:"last_name" validate:"required,max=100"`
	Email                 string  `json:"email" validate:"required,email"`
	Phone                 *string `json:"phone" validate:"omitempty,phone"`
	DateOfBirth           *string `json:"date_of_birth"`
	Gender                *string `json:"gender"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone" validate:"omitempty,phone"`
	MedicalNotes          *string `json:"medical_notes"`
}

type updateMemberRequest struct {
	FirstName             *string `json:"first_name" validate:"omitempty,max=100"`
	LastName              *string `json:"last_name" validate:"omitempty,max=100"`
	Email                 *string `json:"email" validate:"omitempty,email"`
	Phone                 *string `json:"phone" validate:"omitempty,phone"`
	DateOfBirth           *string `json:"date_of_birth"`
	Gender                *string `json:"gender"`
	EmergencyContactName  *string `json:"emergency_contact_name"`
	EmergencyContactPhone *string `json:"emergency_contact_phone" validate:"omitempty,phone"`
	MedicalNotes          *string `json:"medical_notes"`
}

type memberStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type bulkDeleteRequest struct {
	MemberIDs []int64 `json:"member_ids" validate:"required,min=1"`
}

func (h *MemberHandler) CreateMember(c *fiber.Ctx) error {
	var req createMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	dateOfBirth, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "date_of_birth must be YYYY-MM-DD"})
	}

	member, err := h.service.CreateMember(c.Context(), repository.CreateMemberInput{
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Email:                 req.Email,
		Phone:                 req.Phone,
		DateOfBirth:           dateOfBirth,
		Gender:                req.Gender,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		MedicalNotes:          req.MedicalNotes,
	})
	if err != nil {
		return mapMemberError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"member": member})
}

func (h *MemberHandler) ListMembers(c *fiber.Ctx) error {
	page, limit := normalizePagination(c.QueryInt("page", 1), c.QueryInt("limit", defaultPageLimit))

	members, total, err := h.service.ListMembers(c.Context(), repository.MemberListFilter{
		Status: strings.TrimSpace(c.Query("status")),
		Search: strings.TrimSpace(c.Query("search")),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return mapMemberError(c, err)
	}

	return c.JSON(fiber.Map{
		"members":    members,
		"pagination": buildPaginationMeta(page, limit, total),
	})
}

func (h *MemberHandler) GetMember(c *fiber.Ctx) error {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member id"})
	}

	member, err := h.service.GetMember(c.Context(), memberID)
	if err != nil {
		return mapMemberError(c, err)
	}

	return c.JSON(fiber.Map{"member": member})
}

// GetMemberByCode resolves a scanned badge code to a member record.
func (h *MemberHandler) GetMemberByCode(c *fiber.Ctx) error {
	code := strings.TrimSpace(c.Params("code"))
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member code"})
	}

	member, err := h.service.GetMemberByCode(c.Context(), code)
	if err != nil {
		return mapMemberError(c, err)
	}

	return c.JSON(fiber.Map{"member": member})
}

func (h *MemberHandler) UpdateMember(c *fiber.Ctx) error {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member id"})
	}

	var req updateMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	dateOfBirth, err := parseOptionalDate(req.DateOfBirth)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).
			JSON(fiber.Map{"error": "date_of_birth must be YYYY-MM-DD"})
	}

	member, err := h.service.UpdateMember(c.Context(), memberID, repository.UpdateMemberInput{
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Email:                 req.Email,
		Phone:                 req.Phone,
		DateOfBirth:           dateOfBirth,
		Gender:                req.Gender,
		EmergencyContactName:  req.EmergencyContactName,
		EmergencyContactPhone: req.EmergencyContactPhone,
		MedicalNotes:          req.MedicalNotes,
	})
	if err != nil {
		return mapMemberError(c, err)
	}

	return c.JSON(fiber.Map{"member": member})
}

// UpdateStatus handles freeze, unfreeze and deactivation.
func (h *MemberHandler) UpdateStatus(c *fiber.Ctx) error {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member id"})
	}

	var req memberStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	member, err := h.service.SetMemberStatus(c.Context(), memberID, req.Status)
	if err != nil {
		return mapMemberError(c, err)
	}

	return c.JSON(fiber.Map{"member": member})
}

func (h *MemberHandler) DeleteMember(c *fiber.Ctx) error {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member id"})
	}

	if err := h.service.DeleteMember(c.Context(), memberID); err != nil {
		return mapMemberError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *MemberHandler) BulkDelete(c *fiber.Ctx) error {
	var req bulkDeleteRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationMessage(err)})
	}

	deleted, err := h.service.BulkDeleteMembers(c.Context(), req.MemberIDs)
	if err != nil {
		return mapMemberError(c, err)
	}

	return c.JSON(fiber.Map{"deleted": deleted})
}

func (h *MemberHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.MemberStats(c.Context())
	if err != nil {
		return mapMemberError(c, err)
	}
	return c.JSON(fiber.Map{"stats": stats})
}

// ExportCSV streams the full roster as a CSV download.
func (h *MemberHandler) ExportCSV(c *fiber.Ctx) error {
	members, err := h.service.ListAllMembers(c.Context())
	if err != nil {
		return mapMemberError(c, err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	header := []string{
		"member_code", "first_name", "last_name", "email", "phone",
		"status", "joined_at",
	}
	if err := writer.Write(header); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to build export"})
	}
	for _, member := range members {
		phone := ""
		if member.Phone != nil {
			phone = *member.Phone
		}
		record := []string{
			member.MemberCode,
			member.FirstName,
			member.LastName,
			member.Email,
			phone,
			member.Status,
			member.JoinedAt.Format("2006-01-02"),
		}
		if err := writer.Write(record); err != nil {
			return c.Status(fiber.StatusInternalServerError).
				JSON(fiber.Map{"error": "Failed to build export"})
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to build export"})
	}

	filename := fmt.Sprintf("members-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

// QRCode returns a PNG encoding of the member's badge code.
func (h *MemberHandler) QRCode(c *fiber.Ctx) error {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member id"})
	}

	png, err := h.service.MemberQRCode(c.Context(), memberID, c.QueryInt("size", 256))
	if err != nil {
		return mapMemberError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(png)
}

func (h *MemberHandler) UploadPhoto(c *fiber.Ctx) error {
	memberID, err := parseIDParam(c, "id")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member id"})
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

	member, err := h.service.UploadMemberPhoto(c.Context(), memberID, file)
	if err != nil {
		return mapMemberError(c, err)
	}

	return c.JSON(fiber.Map{"member": member})
}

func parseOptionalDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func mapMemberError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateEmail):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email already registered"})
	case errors.Is(err, services.ErrMemberNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	case errors.Is(err, services.ErrStorageUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnsupportedPhotoType):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"error": "Failed to process member request"})
	}
}
