package repository

import (
	"context"

	"github.com/openfit/studioback/internal/models"
)

type CommentRepository struct {
	db DBTX
}

func NewCommentRepository(db DBTX) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(
	ctx context.Context,
	sessionID int64,
	authorID int64,
	commentType string,
	body string,
	isPrivate bool,
) (*models.SessionComment, error) {
	query := `
		INSERT INTO session_comments (session_id, author_id, comment_type, body, is_private)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, session_id, author_id, comment_type, body, is_private, created_at, updated_at
	`

	var comment models.SessionComment
	err := r.db.QueryRow(ctx, query, sessionID, authorID, commentType, body, isPrivate).Scan(
		&comment.ID,
		&comment.SessionID,
		&comment.AuthorID,
		&comment.CommentType,
		&comment.Body,
		&comment.IsPrivate,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &comment, nil
}

func (r *CommentRepository) GetByID(ctx context.Context, commentID int64) (*models.SessionComment, error) {
	query := `
		SELECT id, session_id, author_id, comment_type, body, is_private, created_at, updated_at
		FROM session_comments
		WHERE id = $1
	`
	var comment models.SessionComment
	err := r.db.QueryRow(ctx, query, commentID).Scan(
		&comment.ID,
		&comment.SessionID,
		&comment.AuthorID,
		&comment.CommentType,
		&comment.Body,
		&comment.IsPrivate,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListBySession returns comments oldest first. When includePrivate is false,
// private comments authored by other users are filtered out.
func (r *CommentRepository) ListBySession(
	ctx context.Context,
	sessionID int64,
	viewerID int64,
	includePrivate bool,
) ([]models.SessionComment, error) {
	query := `
		SELECT id, session_id, author_id, comment_type, body, is_private, created_at, updated_at
		FROM session_comments
		WHERE session_id = $1
		  AND ($3 OR NOT is_private OR author_id = $2)
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, sessionID, viewerID, includePrivate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := make([]models.SessionComment, 0)
	for rows.Next() {
		var comment models.SessionComment
		if err := rows.Scan(
			&comment.ID,
			&comment.SessionID,
			&comment.AuthorID,
			&comment.CommentType,
			&comment.Body,
			&comment.IsPrivate,
			&comment.CreatedAt,
			&comment.UpdatedAt,
		); err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return comments, nil
}

func (r *CommentRepository) Update(
	ctx context.Context,
	commentID int64,
	body string,
	isPrivate bool,
) (*models.SessionComment, error) {
	query := `
		UPDATE session_comments
		SET body = $2, is_private = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING id, session_id, author_id, comment_type, body, is_private, created_at, updated_at
	`
	var comment models.SessionComment
	err := r.db.QueryRow(ctx, query, commentID, body, isPrivate).Scan(
		&comment.ID,
		&comment.SessionID,
		&comment.AuthorID,
		&comment.CommentType,
		&comment.Body,
		&comment.IsPrivate,
		&comment.CreatedAt,
		&comment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *CommentRepository) Delete(ctx context.Context, commentID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM session_comments WHERE id = $1`, commentID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
