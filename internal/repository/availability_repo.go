package repository

import (
	"context"

	"github.com/openfit/studioback/internal/models"
)

type AvailabilityRepository struct {
	db DBTX
}

func NewAvailabilityRepository(db DBTX) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

func (r *AvailabilityRepository) Create(ctx context.Context, window models.AvailabilityWindow) (*models.AvailabilityWindow, error) {
	query := `
		INSERT INTO trainer_availability (trainer_id, day_of_week, start_minute, end_minute)
		VALUES ($1, $2, $3, $4)
		RETURNING id, trainer_id, day_of_week, start_minute, end_minute
	`
	var created models.AvailabilityWindow
	err := r.db.QueryRow(ctx, query,
		window.TrainerID,
		window.DayOfWeek,
		window.StartMinute,
		window.EndMinute,
	).Scan(
		&created.ID,
		&created.TrainerID,
		&created.DayOfWeek,
		&created.StartMinute,
		&created.EndMinute,
	)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func (r *AvailabilityRepository) ListForTrainer(ctx context.Context, trainerID int64) ([]models.AvailabilityWindow, error) {
	query := `
		SELECT id, trainer_id, day_of_week, start_minute, end_minute
		FROM trainer_availability
		WHERE trainer_id = $1
		ORDER BY day_of_week ASC, start_minute ASC
	`
	return r.list(ctx, query, trainerID)
}

func (r *AvailabilityRepository) ListForTrainerDay(ctx context.Context, trainerID int64, dayOfWeek int) ([]models.AvailabilityWindow, error) {
	query := `
		SELECT id, trainer_id, day_of_week, start_minute, end_minute
		FROM trainer_availability
		WHERE trainer_id = $1 AND day_of_week = $2
		ORDER BY start_minute ASC
	`
	return r.list(ctx, query, trainerID, dayOfWeek)
}

func (r *AvailabilityRepository) Delete(ctx context.Context, trainerID, windowID int64) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`DELETE FROM trainer_availability WHERE id = $1 AND trainer_id = $2`,
		windowID, trainerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *AvailabilityRepository) list(ctx context.Context, query string, args ...any) ([]models.AvailabilityWindow, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	windows := make([]models.AvailabilityWindow, 0)
	for rows.Next() {
		var window models.AvailabilityWindow
		if err := rows.Scan(
			&window.ID,
			&window.TrainerID,
			&window.DayOfWeek,
			&window.StartMinute,
			&window.EndMinute,
		); err != nil {
			return nil, err
		}
		windows = append(windows, window)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return windows, nil
}
