package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openfit/studioback/internal/models"
)

const memberColumns = `id, user_id, member_code, first_name, last_name, email, phone,
	   date_of_birth, gender, emergency_contact_name, emergency_contact_phone,
	   medical_notes, photo_url, status, joined_at, created_at, updated_at`

type CreateMemberInput struct {
	UserID                *int64
	MemberCode            string
	FirstName             string
	LastName              string
	Email                 string
	Phone                 *string
	DateOfBirth           *time.Time
	Gender                *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
	MedicalNotes          *string
}

type UpdateMemberInput struct {
	FirstName             *string
	LastName              *string
	Email                 *string
	Phone                 *string
	DateOfBirth           *time.Time
	Gender                *string
	EmergencyContactName  *string
	EmergencyContactPhone *string
	MedicalNotes          *string
}

type MemberListFilter struct {
	Status string
	Search string
	Page   int
	Limit  int
}

type MemberRepository struct {
	db DBTX
}

func NewMemberRepository(db DBTX) *MemberRepository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Create(ctx context.Context, input CreateMemberInput) (*models.Member, error) {
	query := fmt.Sprintf(`
		INSERT INTO members (user_id, member_code, first_name, last_name, email, phone,
			date_of_birth, gender, emergency_contact_name, emergency_contact_phone, medical_notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING %s
	`, memberColumns)

	return r.scanOne(r.db.QueryRow(ctx, query,
		input.UserID,
		input.MemberCode,
		input.FirstName,
		input.LastName,
		input.Email,
		input.Phone,
		input.DateOfBirth,
		input.Gender,
		input.EmergencyContactName,
		input.EmergencyContactPhone,
		input.MedicalNotes,
	))
}

func (r *MemberRepository) GetByID(ctx context.Context, memberID int64) (*models.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE id = $1`, memberColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, memberID))
}

func (r *MemberRepository) GetByCode(ctx context.Context, code string) (*models.Member, error) {
	query := fmt.Sprintf(`SELECT %s FROM members WHERE member_code = $1`, memberColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, code))
}

func (r *MemberRepository) List(ctx context.Context, filter MemberListFilter) ([]models.Member, int, error) {
	args := []any{}
	whereParts := []string{"TRUE"}

	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		whereParts = append(whereParts, fmt.Sprintf(
			"(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR member_code ILIKE $%d)",
			len(args), len(args), len(args), len(args)))
	}

	where := strings.Join(whereParts, " AND ")

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM members WHERE %s`, where)
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)
	query := fmt.Sprintf(`
		SELECT %s
		FROM members
		WHERE %s
		ORDER BY last_name ASC, first_name ASC, id ASC
		LIMIT $%d OFFSET $%d
	`, memberColumns, where, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		member, err := r.scanOne(rows)
		if err != nil {
			return nil, 0, err
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return members, total, nil
}

func (r *MemberRepository) ListAll(ctx context.Context) ([]models.Member, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM members
		ORDER BY last_name ASC, first_name ASC, id ASC
	`, memberColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.Member, 0)
	for rows.Next() {
		member, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MemberRepository) UpdatePartial(ctx context.Context, memberID int64, input UpdateMemberInput) (*models.Member, error) {
	query := fmt.Sprintf(`
		UPDATE members
		SET first_name = COALESCE($1, first_name),
			last_name = COALESCE($2, last_name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			date_of_birth = COALESCE($5, date_of_birth),
			gender = COALESCE($6, gender),
			emergency_contact_name = COALESCE($7, emergency_contact_name),
			emergency_contact_phone = COALESCE($8, emergency_contact_phone),
			medical_notes = COALESCE($9, medical_notes),
			updated_at = NOW()
		WHERE id = $10
		RETURNING %s
	`, memberColumns)

	return r.scanOne(r.db.QueryRow(ctx, query,
		input.FirstName,
		input.LastName,
		input.Email,
		input.Phone,
		input.DateOfBirth,
		input.Gender,
		input.EmergencyContactName,
		input.EmergencyContactPhone,
		input.MedicalNotes,
		memberID,
	))
}

func (r *MemberRepository) UpdateStatus(ctx context.Context, memberID int64, status string) (*models.Member, error) {
	query := fmt.Sprintf(`
		UPDATE members
		SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, memberColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, memberID, status))
}

func (r *MemberRepository) UpdatePhotoURL(ctx context.Context, memberID int64, photoURL string) (*models.Member, error) {
	query := fmt.Sprintf(`
		UPDATE members
		SET photo_url = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, memberColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, memberID, photoURL))
}

func (r *MemberRepository) Delete(ctx context.Context, memberID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM members WHERE id = $1`, memberID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *MemberRepository) BulkDelete(ctx context.Context, memberIDs []int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM members WHERE id = ANY($1)`, memberIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *MemberRepository) CountByStatus(ctx context.Context) (*models.MemberStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'active'),
			COUNT(*) FILTER (WHERE status = 'frozen'),
			COUNT(*) FILTER (WHERE status = 'inactive')
		FROM members
	`
	var stats models.MemberStats
	err := r.db.QueryRow(ctx, query).Scan(&stats.Total, &stats.Active, &stats.Frozen, &stats.Inactive)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *MemberRepository) scanOne(row rowScanner) (*models.Member, error) {
	var member models.Member
	err := row.Scan(
		&member.ID,
		&member.UserID,
		&member.MemberCode,
		&member.FirstName,
		&member.LastName,
		&member.Email,
		&member.Phone,
		&member.DateOfBirth,
		&member.Gender,
		&member.EmergencyContactName,
		&member.EmergencyContactPhone,
		&member.MedicalNotes,
		&member.PhotoURL,
		&member.Status,
		&member.JoinedAt,
		&member.CreatedAt,
		&member.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &member, nil
}
