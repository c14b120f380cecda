package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
	"github.com/openfit/studioback/internal/services"
)

type stubMemberService struct {
	createResult *models.Member
	createErr    error
	getResult    *models.Member
	getErr       error
	listResult   []models.Member
	listTotal    int
	listErr      error
	listAll      []models.Member
	listAllErr   error
	updateResult *models.Member
	updateErr    error
	statusResult *models.Member
	statusErr    error
	deleteErr    error
	bulkDeleted  int64
	bulkErr      error
	statsResult  *models.MemberStats
	statsErr     error
	qrResult     []byte
	qrErr        error
	photoResult  *models.Member
	photoErr     error

	lastCreateInput repository.CreateMemberInput
	lastListFilter  repository.MemberListFilter
	lastMemberID    int64
	lastStatus      string
	lastBulkIDs     []int64
}

func (s *stubMemberService) CreateMember(_ context.Context, input repository.CreateMemberInput) (*models.Member, error) {
	s.lastCreateInput = input
	return s.createResult, s.createErr
}

func (s *stubMemberService) GetMember(_ context.Context, memberID int64) (*models.Member, error) {
	s.lastMemberID = memberID
	return s.getResult, s.getErr
}

func (s *stubMemberService) GetMemberByCode(_ context.Context, code string) (*models.Member, error) {
	return s.getResult, s.getErr
}

func (s *stubMemberService) ListMembers(_ context.Context, filter repository.MemberListFilter) ([]models.Member, int, error) {
	s.lastListFilter = filter
	return s.listResult, s.listTotal, s.listErr
}

func (s *stubMemberService) ListAllMembers(_ context.Context) ([]models.Member, error) {
	return s.listAll, s.listAllErr
}

func (s *stubMemberService) UpdateMember(_ context.Context, memberID int64, _ repository.UpdateMemberInput) (*models.Member, error) {
	s.lastMemberID = memberID
	return s.updateResult, s.updateErr
}

func (s *stubMemberService) SetMemberStatus(_ context.Context, memberID int64, status string) (*models.Member, error) {
	s.lastMemberID = memberID
	s.lastStatus = status
	return s.statusResult, s.statusErr
}

func (s *stubMemberService) DeleteMember(_ context.Context, memberID int64) error {
	s.lastMemberID = memberID
	return s.deleteErr
}

func (s *stubMemberService) BulkDeleteMembers(_ context.Context, memberIDs []int64) (int64, error) {
	s.lastBulkIDs = memberIDs
	return s.bulkDeleted, s.bulkErr
}

func (s *stubMemberService) MemberStats(_ context.Context) (*models.MemberStats, error) {
	return s.statsResult, s.statsErr
}

func (s *stubMemberService) MemberQRCode(_ context.Context, memberID int64, _ int) ([]byte, error) {
	s.lastMemberID = memberID
	return s.qrResult, s.qrErr
}

func (s *stubMemberService) UploadMemberPhoto(_ context.Context, memberID int64, _ multipart.File) (*models.Member, error) {
	s.lastMemberID = memberID
	return s.photoResult, s.photoErr
}

func newMemberTestApp(service *stubMemberService) *fiber.App {
	handler := &MemberHandler{service: service}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals("role", models.RoleAdmin)
		c.Locals("user_id", "1")
		return c.Next()
	})
	app.Post("/v1/members", handler.CreateMember)
	app.Get("/v1/members", handler.ListMembers)
	app.Get("/v1/members/stats", handler.Stats)
	app.Get("/v1/members/export", handler.ExportCSV)
	app.Post("/v1/members/bulk-delete", handler.BulkDelete)
	app.Get("/v1/members/:id", handler.GetMember)
	app.Put("/v1/members/:id/status", handler.UpdateStatus)
	app.Get("/v1/members/:id/qr", handler.QRCode)
	return app
}

func TestCreateMemberReturnsCreated(t *testing.T) {
	service := &stubMemberService{
		createResult: &models.Member{
			ID:         12,
			MemberCode: "GM-AB12CD34",
			FirstName:  "Jordan",
			LastName:   "Lee",
			Email:      "jordan@example.com",
			Status:     models.MemberStatusActive,
		},
	}
	app := newMemberTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/members", strings.NewReader(`{
		"first_name": "Jordan",
		"last_name": "Lee",
		"email": "jordan@example.com",
		"phone": "+1 555 0100"
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
	if service.lastCreateInput.Email != "jordan@example.com" {
		t.Fatalf("unexpected create input: %+v", service.lastCreateInput)
	}
}

func TestCreateMemberRejectsBadEmail(t *testing.T) {
	app := newMemberTestApp(&stubMemberService{})

	req := httptest.NewRequest(http.MethodPost, "/v1/members", strings.NewReader(`{
		"first_name": "Jordan",
		"last_name": "Lee",
		"email": "not-an-email"
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

func TestCreateMemberReturnsConflictForDuplicateEmail(t *testing.T) {
	service := &stubMemberService{createErr: services.ErrDuplicateEmail}
	app := newMemberTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/members", strings.NewReader(`{
		"first_name": "Jordan",
		"last_name": "Lee",
		"email": "jordan@example.com"
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
}

func TestListMembersForwardsFiltersAndPagination(t *testing.T) {
	service := &stubMemberService{
		listResult: []models.Member{{ID: 1, Status: models.MemberStatusFrozen}},
		listTotal:  41,
	}
	app := newMemberTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/v1/members?status=frozen&search=lee&page=2&limit=20", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastListFilter.Status != "frozen" || service.lastListFilter.Search != "lee" {
		t.Fatalf("unexpected filter: %+v", service.lastListFilter)
	}
	if service.lastListFilter.Page != 2 || service.lastListFilter.Limit != 20 {
		t.Fatalf("unexpected pagination: %+v", service.lastListFilter)
	}

	var body struct {
		Pagination models.PaginationMeta `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Pagination.Total != 41 || body.Pagination.TotalPages != 3 {
		t.Fatalf("unexpected pagination meta: %+v", body.Pagination)
	}
}

func TestUpdateMemberStatusForwardsFreeze(t *testing.T) {
	service := &stubMemberService{
		statusResult: &models.Member{ID: 9, Status: models.MemberStatusFrozen},
	}
	app := newMemberTestApp(service)

	req := httptest.NewRequest(http.MethodPut, "/v1/members/9/status", strings.NewReader(`{"status":"frozen"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if service.lastMemberID != 9 || service.lastStatus != models.MemberStatusFrozen {
		t.Fatalf("unexpected status call: id=%d status=%q", service.lastMemberID, service.lastStatus)
	}
}

func TestBulkDeleteForwardsIDs(t *testing.T) {
	service := &stubMemberService{bulkDeleted: 3}
	app := newMemberTestApp(service)

	req := httptest.NewRequest(http.MethodPost, "/v1/members/bulk-delete", strings.NewReader(`{"member_ids":[4,5,6]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if len(service.lastBulkIDs) != 3 || service.lastBulkIDs[0] != 4 {
		t.Fatalf("unexpected bulk ids: %v", service.lastBulkIDs)
	}

	var body struct {
		Deleted int64 `json:"deleted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if body.Deleted != 3 {
		t.Fatalf("expected 3 deleted, got %d", body.Deleted)
	}
}

func TestExportCSVWritesRoster(t *testing.T) {
	phone := "+1 555 0100"
	service := &stubMemberService{
		listAll: []models.Member{
			{
				MemberCode: "GM-AB12CD34",
				FirstName:  "Jordan",
				LastName:   "Lee",
				Email:      "jordan@example.com",
				Phone:      &phone,
				Status:     models.MemberStatusActive,
				JoinedAt:   time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			},
		},
	}
	app := newMemberTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/v1/members/export", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("expected text/csv, got %q", ct)
	}

	records, err := csv.NewReader(resp.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d records", len(records))
	}
	if records[1][0] != "GM-AB12CD34" || records[1][6] != "2026-01-10" {
		t.Fatalf("unexpected row: %v", records[1])
	}
}

func TestQRCodeReturnsPNG(t *testing.T) {
	service := &stubMemberService{qrResult: []byte{0x89, 'P', 'N', 'G'}}
	app := newMemberTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/v1/members/31/qr", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	if service.lastMemberID != 31 {
		t.Fatalf("expected member id 31, got %d", service.lastMemberID)
	}
}

func TestGetMemberReturnsNotFound(t *testing.T) {
	service := &stubMemberService{getErr: services.ErrMemberNotFound}
	app := newMemberTestApp(service)

	req := httptest.NewRequest(http.MethodGet, "/v1/members/404", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
