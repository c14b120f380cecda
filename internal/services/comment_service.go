package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrCommentNotFound = errors.New("comment not found")
)

const maxCommentLength = 4000

type sessionReader interface {
	GetByID(ctx context.Context, sessionID int64) (*models.TrainingSession, error)
}

type CommentService struct {
	commentRepo *repository.CommentRepository
	sessions    sessionReader
}

func NewCommentService(commentRepo *repository.CommentRepository, sessions sessionReader) *CommentService {
	return &CommentService{commentRepo: commentRepo, sessions: sessions}
}

type AddCommentInput struct {
	SessionID   int64
	AuthorID    int64
	CommentType string
	Body        string
	IsPrivate   bool
}

func (s *CommentService) AddComment(ctx context.Context, input AddCommentInput) (*models.SessionComment, error) {
	input.Body = strings.TrimSpace(input.Body)
	if input.Body == "" || len(input.Body) > maxCommentLength {
		return nil, ErrInvalidInput
	}
	if !validCommentType(input.CommentType) {
		return nil, ErrInvalidInput
	}

	if _, err := s.sessions.GetByID(ctx, input.SessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	comment, err := s.commentRepo.Create(ctx, input.SessionID, input.AuthorID, input.CommentType, input.Body, input.IsPrivate)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// ListComments returns the session's comment thread. Private comments are
// visible only to their author unless the viewer is an admin.
func (s *CommentService) ListComments(ctx context.Context, sessionID, viewerID int64, viewerRole string) ([]models.SessionComment, error) {
	if _, err := s.sessions.GetByID(ctx, sessionID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	includePrivate := viewerRole == models.RoleAdmin
	comments, err := s.commentRepo.ListBySession(ctx, sessionID, viewerID, includePrivate)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// UpdateComment edits a comment's body and privacy. Only the author or an
// admin may edit.
func (s *CommentService) UpdateComment(ctx context.Context, commentID, actorID int64, actorRole, body string, isPrivate bool) (*models.SessionComment, error) {
	body = strings.TrimSpace(body)
	if body == "" || len(body) > maxCommentLength {
		return nil, ErrInvalidInput
	}

	existing, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("load comment: %w", err)
	}
	if existing.AuthorID != actorID && actorRole != models.RoleAdmin {
		return nil, ErrForbidden
	}

	updated, err := s.commentRepo.Update(ctx, commentID, body, isPrivate)
	if err != nil {
		return nil, fmt.Errorf("update comment: %w", err)
	}
	return updated, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, commentID, actorID int64, actorRole string) error {
	existing, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("load comment: %w", err)
	}
	if existing.AuthorID != actorID && actorRole != models.RoleAdmin {
		return ErrForbidden
	}

	deleted, err := s.commentRepo.Delete(ctx, commentID)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if !deleted {
		return ErrCommentNotFound
	}
	return nil
}

func validCommentType(commentType string) bool {
	for _, known := range models.CommentTypes {
		if commentType == known {
			return true
		}
	}
	return false
}
