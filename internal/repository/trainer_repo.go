package repository

import (
	"context"
	"fmt"

	"github.com/openfit/studioback/internal/models"
)

const trainerColumns = `id, user_id, first_name, last_name, email, phone, bio,
	   specializations, certifications, hourly_rate, photo_url, is_active, created_at, updated_at`

type CreateTrainerInput struct {
	UserID          *int64
	FirstName       string
	LastName        string
	Email           string
	Phone           *string
	Bio             *string
	Specializations []string
	Certifications  []string
	HourlyRate      *float64
}

type UpdateTrainerInput struct {
	FirstName       *string
	LastName        *string
	Email           *string
	Phone           *string
	Bio             *string
	Specializations *[]string
	Certifications  *[]string
	HourlyRate      *float64
	IsActive        *bool
}

type TrainerRepository struct {
	db DBTX
}

func NewTrainerRepository(db DBTX) *TrainerRepository {
	return &TrainerRepository{db: db}
}

func (r *TrainerRepository) Create(ctx context.Context, input CreateTrainerInput) (*models.Trainer, error) {
	query := fmt.Sprintf(`
		INSERT INTO trainers (user_id, first_name, last_name, email, phone, bio,
			specializations, certifications, hourly_rate)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING %s
	`, trainerColumns)

	return r.scanOne(r.db.QueryRow(ctx, query,
		input.UserID,
		input.FirstName,
		input.LastName,
		input.Email,
		input.Phone,
		input.Bio,
		input.Specializations,
		input.Certifications,
		input.HourlyRate,
	))
}

func (r *TrainerRepository) GetByID(ctx context.Context, trainerID int64) (*models.Trainer, error) {
	query := fmt.Sprintf(`SELECT %s FROM trainers WHERE id = $1`, trainerColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, trainerID))
}

func (r *TrainerRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.Trainer, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM trainers
		WHERE ($1 = FALSE OR is_active)
		ORDER BY last_name ASC, first_name ASC, id ASC
	`, trainerColumns)

	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trainers := make([]models.Trainer, 0)
	for rows.Next() {
		trainer, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		trainers = append(trainers, *trainer)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return trainers, nil
}

func (r *TrainerRepository) UpdatePartial(ctx context.Context, trainerID int64, input UpdateTrainerInput) (*models.Trainer, error) {
	query := fmt.Sprintf(`
		UPDATE trainers
		SET first_name = COALESCE($1, first_name),
			last_name = COALESCE($2, last_name),
			email = COALESCE($3, email),
			phone = COALESCE($4, phone),
			bio = COALESCE($5, bio),
			specializations = COALESCE($6, specializations),
			certifications = COALESCE($7, certifications),
			hourly_rate = COALESCE($8, hourly_rate),
			is_active = COALESCE($9, is_active),
			updated_at = NOW()
		WHERE id = $10
		RETURNING %s
	`, trainerColumns)

	return r.scanOne(r.db.QueryRow(ctx, query,
		input.FirstName,
		input.LastName,
		input.Email,
		input.Phone,
		input.Bio,
		input.Specializations,
		input.Certifications,
		input.HourlyRate,
		input.IsActive,
		trainerID,
	))
}

func (r *TrainerRepository) UpdatePhotoURL(ctx context.Context, trainerID int64, photoURL string) (*models.Trainer, error) {
	query := fmt.Sprintf(`
		UPDATE trainers
		SET photo_url = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, trainerColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, trainerID, photoURL))
}

func (r *TrainerRepository) Delete(ctx context.Context, trainerID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM trainers WHERE id = $1`, trainerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *TrainerRepository) scanOne(row rowScanner) (*models.Trainer, error) {
	var trainer models.Trainer
	err := row.Scan(
		&trainer.ID,
		&trainer.UserID,
		&trainer.FirstName,
		&trainer.LastName,
		&trainer.Email,
		&trainer.Phone,
		&trainer.Bio,
		&trainer.Specializations,
		&trainer.Certifications,
		&trainer.HourlyRate,
		&trainer.PhotoURL,
		&trainer.IsActive,
		&trainer.CreatedAt,
		&trainer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &trainer, nil
}
