package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
)

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrStorageUnavailable = errors.New("photo storage is not configured")
)

type MemberService struct {
	memberRepo *repository.MemberRepository
	storage    PhotoStorage
}

func NewMemberService(memberRepo *repository.MemberRepository, storage PhotoStorage) *MemberService {
	return &MemberService{memberRepo: memberRepo, storage: storage}
}

// CreateMember registers a new member and assigns a unique member code used
// on check-in badges and QR scans.
func (s *MemberService) CreateMember(ctx context.Context, input repository.CreateMemberInput) (*models.Member, error) {
	input.MemberCode = newMemberCode()
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	member, err := s.memberRepo.Create(ctx, input)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create member: %w", err)
	}
	return member, nil
}

func (s *MemberService) GetMember(ctx context.Context, memberID int64) (*models.Member, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member: %w", err)
	}
	return member, nil
}

func (s *MemberService) GetMemberByCode(ctx context.Context, code string) (*models.Member, error) {
	member, err := s.memberRepo.GetByCode(ctx, strings.TrimSpace(code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("get member by code: %w", err)
	}
	return member, nil
}

func (s *MemberService) ListMembers(ctx context.Context, filter repository.MemberListFilter) ([]models.Member, int, error) {
	if filter.Status != "" && !validMemberStatus(filter.Status) {
		return nil, 0, ErrInvalidStatus
	}
	members, total, err := s.memberRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list members: %w", err)
	}
	return members, total, nil
}

// ListAllMembers returns the unpaginated roster, used by the CSV export.
func (s *MemberService) ListAllMembers(ctx context.Context) ([]models.Member, error) {
	members, err := s.memberRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all members: %w", err)
	}
	return members, nil
}

func (s *MemberService) UpdateMember(ctx context.Context, memberID int64, input repository.UpdateMemberInput) (*models.Member, error) {
	if input.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*input.Email))
		input.Email = &normalized
	}
	member, err := s.memberRepo.UpdatePartial(ctx, memberID, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update member: %w", err)
	}
	return member, nil
}

// SetMemberStatus moves a member between active, frozen and inactive.
// Freezing a member does not touch their sessions; bookings for frozen
// members are rejected at booking time instead.
func (s *MemberService) SetMemberStatus(ctx context.Context, memberID int64, status string) (*models.Member, error) {
	if !validMemberStatus(status) {
		return nil, ErrInvalidStatus
	}
	member, err := s.memberRepo.UpdateStatus(ctx, memberID, status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("update member status: %w", err)
	}
	return member, nil
}

func (s *MemberService) DeleteMember(ctx context.Context, memberID int64) error {
	deleted, err := s.memberRepo.Delete(ctx, memberID)
	if err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if !deleted {
		return ErrMemberNotFound
	}
	return nil
}

func (s *MemberService) BulkDeleteMembers(ctx context.Context, memberIDs []int64) (int64, error) {
	if len(memberIDs) == 0 {
		return 0, ErrInvalidInput
	}
	deleted, err := s.memberRepo.BulkDelete(ctx, memberIDs)
	if err != nil {
		return 0, fmt.Errorf("bulk delete members: %w", err)
	}
	return deleted, nil
}

func (s *MemberService) MemberStats(ctx context.Context) (*models.MemberStats, error) {
	stats, err := s.memberRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("member stats: %w", err)
	}
	return stats, nil
}

// MemberQRCode renders the member's code as a PNG for badge printing and
// front-desk scanning.
func (s *MemberService) MemberQRCode(ctx context.Context, memberID int64, size int) ([]byte, error) {
	member, err := s.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(member.MemberCode, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode qr code: %w", err)
	}
	return png, nil
}

// UploadMemberPhoto stores the photo and records its URL on the member.
// A previous photo is removed from the bucket on a best effort basis.
func (s *MemberService) UploadMemberPhoto(ctx context.Context, memberID int64, file multipart.File) (*models.Member, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	member, err := s.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}

	photoURL, err := s.storage.UploadPhoto(ctx, file, member.MemberCode, "members")
	if err != nil {
		return nil, err
	}

	if member.PhotoURL != nil && *member.PhotoURL != photoURL {
		if err := s.storage.DeletePhoto(ctx, *member.PhotoURL); err != nil {
			log.Printf("delete previous member photo: %v", err)
		}
	}

	updated, err := s.memberRepo.UpdatePhotoURL(ctx, memberID, photoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("record member photo: %w", err)
	}
	return updated, nil
}

func newMemberCode() string {
	return "GM-" + strings.ToUpper(uuid.NewString()[:8])
}

func validMemberStatus(status string) bool {
	for _, known := range models.MemberStatuses {
		if status == known {
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
