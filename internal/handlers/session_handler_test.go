package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
	"github.com/openfit/studioback/internal/services"
)

type stubSchedulingService struct {
	bookResult         *models.TrainingSession
	bookErr            error
	checkResult        *models.ConflictCheckResult
	checkErr           error
	listResult         []models.TrainingSession
	listErr            error
	getResult          *models.TrainingSession
	getErr             error
	rescheduleResult   *models.TrainingSession
	rescheduleErr      error
	updateStatusResult *models.TrainingSession
	updateStatusErr    error
	calendarResult     []models.TrainingSession
	calendarErr        error
	deleteErr          error

	lastActorID      int64
	lastBookInput    services.BookSessionInput
	lastListFilter   repository.SessionListFilter
	lastSessionID    int64
	lastStatus       string
	lastStatusInput  services.StatusChangeInput
	lastScheduledAt  time.Time
	lastDuration     int
	lastCalendarFrom time.Time
	lastCalendarTo   time.Time
}

func (s *stubSchedulingService) BookSession(_ context.Context, actorUserID int64, input services.BookSessionInput) (*models.TrainingSession, error) {
	s.lastActorID = actorUserID
	s.lastBookInput = input
	return s.bookResult, s.bookErr
}

func (s *stubSchedulingService) CheckConflicts(_ context.Context, trainerID, memberID int64, room *string, scheduledAt time.Time, durationMinutes int, excludeSessionID int64) (*models.ConflictCheckResult, error) {
	s.lastScheduledAt = scheduledAt
	s.lastDuration = durationMinutes
	s.lastSessionID = excludeSessionID
	return s.checkResult, s.checkErr
}

func (s *stubSchedulingService) ListSessions(_ context.Context, filter repository.SessionListFilter) ([]models.TrainingSession, error) {
	s.lastListFilter = filter
	return s.listResult, s.listErr
}

func (s *stubSchedulingService) GetSession(_ context.Context, sessionID int64) (*models.TrainingSession, error) {
	s.lastSessionID = sessionID
	return s.getResult, s.getErr
}

func (s *stubSchedulingService) Reschedule(_ context.Context, sessionID int64, scheduledAt time.Time, durationMinutes int) (*models.TrainingSession, error) {
	s.lastSessionID = sessionID
	s.lastScheduledAt = scheduledAt
	s.lastDuration = durationMinutes
	return s.rescheduleResult, s.rescheduleErr
}

func (s *stubSchedulingService) UpdateStatus(_ context.Context, sessionID int64, requestedStatus string, input services.StatusChangeInput) (*models.TrainingSession, error) {
	s.lastSessionID = sessionID
	s.lastStatus = requestedStatus
	s.lastStatusInput = input
	return s.updateStatusResult, s.updateStatusErr
}

func (s *stubSchedulingService) Calendar(_ context.Context, from, to time.Time) ([]models.TrainingSession, error) {
	s.lastCalendarFrom = from
	s.lastCalendarTo = to
	return s.calendarResult, s.calendarErr
}

func (s *stubSchedulingService) DeleteSession(_ context.Context, sessionID int64) error {
	s.lastSessionID = sessionID
	return s.deleteErr
}

func newSessionTestApp(service *stubSchedulingService) *fiber.App {
	handler := &SessionHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", models.RoleAdmin)
		c.Locals("user_id", "42")
		return c.Next()
	})
	app.Post("/v1/sessions", handler.BookSession)
	app.Post("/v1/sessions/check-conflicts", handler.CheckConflicts)
	app.Get("/v1/sessions", handler.ListSessions)
	app.Get("/v1/sessions/calendar", handler.Calendar)
	app.Get("/v1/sessions/:id", handler.GetSession)
	app.Put("/v1/sessions/:id", handler.Reschedule)
	app.Put("/v1/sessions/:id/status", handler.UpdateStatus)
	app.Delete("/v1/sessions/:id", handler.DeleteSession)
	return app
}

func TestBookSessionReturnsCreatedSession(t *testing.T) {
	service := &stubSchedulingService{
		bookResult: &models.TrainingSession{
			ID:              91,
			MemberID:        3,
			TrainerID:       7,
			Status:          models.SessionStatusScheduled,
			DurationMinutes: 60,
		},
	}
	app := newSessionTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{
		"member_id": 3,
		"trainer_id": 7,
		"session_type": "personal",
		"title": "Mobility focus",
		"scheduled_at": "2026-03-16T09:00:00Z",
		"duration_minutes": 60
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastActorID != 42 {
		t.Fatalf("expected actor id 42, got %d", service.lastActorID)
	}
	if service.lastBookInput.TrainerID != 7 || service.lastBookInput.MemberID != 3 {
		t.Fatalf("unexpected booking input: %+v", service.lastBookInput)
	}
	if service.lastBookInput.DurationMinutes != 60 {
		t.Fatalf("expected 60 minutes, got %d", service.lastBookInput.DurationMinutes)
	}
}

func TestBookSessionRejectsMissingFields(t *testing.T) {
	service := &stubSchedulingService{}
	app := newSessionTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{
		"trainer_id": 7,
		"scheduled_at": "2026-03-16T09:00:00Z"
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestBookSessionReturnsConflictListOn409(t *testing.T) {
	service := &stubSchedulingService{
		bookErr: &services.ConflictError{
			Conflicts: []models.SessionConflict{
				{Type: models.ConflictTrainerBooked, Message: "Trainer already has a session in this slot"},
			},
		},
	}
	app := newSessionTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions", strings.NewReader(`{
		"member_id": 3,
		"trainer_id": 7,
		"session_type": "personal",
		"title": "Overlapping",
		"scheduled_at": "2026-03-16T09:30:00Z",
		"duration_minutes": 60
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409, got %d", resp.StatusCode)
	}

	var body struct {
		Conflicts []models.SessionConflict `json:"conflicts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(body.Conflicts) != 1 || body.Conflicts[0].Type != models.ConflictTrainerBooked {
		t.Fatalf("expected trainer_booked conflict in body, got %+v", body.Conflicts)
	}
}

func TestCheckConflictsReturnsPreview(t *testing.T) {
	service := &stubSchedulingService{
		checkResult: &models.ConflictCheckResult{
			Conflicts: []models.SessionConflict{{Type: models.ConflictTrainerUnavailable}},
			Verified:  true,
		},
	}
	app := newSessionTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/check-conflicts", strings.NewReader(`{
		"trainer_id": 7,
		"scheduled_at": "2026-03-16T20:00:00Z",
		"duration_minutes": 60,
		"exclude_session_id": 12
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 12 {
		t.Fatalf("expected exclude session id forwarded, got %d", service.lastSessionID)
	}

	var body struct {
		HasConflicts bool                     `json:"has_conflicts"`
		Verified     bool                     `json:"verified"`
		Conflicts    []models.SessionConflict `json:"conflicts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !body.HasConflicts || !body.Verified || len(body.Conflicts) != 1 {
		t.Fatalf("unexpected preview body: %+v", body)
	}
}

func TestListSessionsPassesFilters(t *testing.T) {
	service := &stubSchedulingService{
		listResult: []models.TrainingSession{{ID: 5, Status: models.SessionStatusConfirmed}},
	}
	app := newSessionTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions?status=confirmed&timeframe=upcoming&trainer_id=7", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastListFilter.Status != "confirmed" || service.lastListFilter.Timeframe != "upcoming" {
		t.Fatalf("unexpected filter: %+v", service.lastListFilter)
	}
	if service.lastListFilter.TrainerID != 7 {
		t.Fatalf("expected trainer filter 7, got %d", service.lastListFilter.TrainerID)
	}
}

func TestListSessionsRejectsBadTimeframe(t *testing.T) {
	app := newSessionTestApp(&stubSchedulingService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions?timeframe=someday", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCalendarRequiresValidRange(t *testing.T) {
	app := newSessionTestApp(&stubSchedulingService{})

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/calendar?from=notatime&to=2026-03-20T00:00:00Z", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestGetSessionReturnsNotFound(t *testing.T) {
	service := &stubSchedulingService{getErr: pgx.ErrNoRows}
	app := newSessionTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/999", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestRescheduleForwardsNewSlot(t *testing.T) {
	service := &stubSchedulingService{
		rescheduleResult: &models.TrainingSession{ID: 55, Status: models.SessionStatusScheduled},
	}
	app := newSessionTestApp(service)

	req := httptest.NewRequest(http.MethodPut, "/v1/sessions/55", strings.NewReader(`{
		"scheduled_at": "2026-03-17T11:00:00Z",
		"duration_minutes": 45
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 55 || service.lastDuration != 45 {
		t.Fatalf("unexpected reschedule call: id=%d duration=%d", service.lastSessionID, service.lastDuration)
	}
	want := time.Date(2026, 3, 17, 11, 0, 0, 0, time.UTC)
	if !service.lastScheduledAt.Equal(want) {
		t.Fatalf("expected %v, got %v", want, service.lastScheduledAt)
	}
}

func TestUpdateStatusForwardsCompletionFields(t *testing.T) {
	service := &stubSchedulingService{
		updateStatusResult: &models.TrainingSession{ID: 55, Status: models.SessionStatusCompleted},
	}
	app := newSessionTestApp(service)

	req := httptest.NewRequest(http.MethodPut, "/v1/sessions/55/status", strings.NewReader(`{
		"status": "complete",
		"completion_summary": "Solid session",
		"member_rating": 5
	}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastStatus != "complete" {
		t.Fatalf("expected forwarded status, got %q", service.lastStatus)
	}
	if service.lastStatusInput.CompletionSummary != "Solid session" {
		t.Fatalf("expected forwarded summary, got %q", service.lastStatusInput.CompletionSummary)
	}
	if service.lastStatusInput.MemberRating == nil || *service.lastStatusInput.MemberRating != 5 {
		t.Fatalf("expected member rating 5, got %v", service.lastStatusInput.MemberRating)
	}
}

func TestUpdateStatusReturnsUnprocessableForInvalidTransition(t *testing.T) {
	service := &stubSchedulingService{updateStatusErr: services.ErrInvalidStateTransition}
	app := newSessionTestApp(service)

	req := httptest.NewRequest(http.MethodPut, "/v1/sessions/55/status", strings.NewReader(`{"status":"complete"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", resp.StatusCode)
	}
}

func TestDeleteSessionReturnsNoContent(t *testing.T) {
	service := &stubSchedulingService{}
	app := newSessionTestApp(service)

	req := httptest.NewRequest(http.MethodDelete, "/v1/sessions/31", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if service.lastSessionID != 31 {
		t.Fatalf("expected session id 31, got %d", service.lastSessionID)
	}
}

func TestMapSessionErrorDefaultsToInternalServerError(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return mapSessionError(c, errors.New("boom"))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}

func TestMapSessionErrorReturnsTrainerNotFound(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return mapSessionError(c, services.ErrTrainerNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
