package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/openfit/studioback/internal/models"
)

const sessionColumns = `id, member_id, trainer_id, session_type, title, description,
	   scheduled_at, duration_min, status, cost, session_room, equipment_needed,
	   session_goals, preparation_notes, actual_start_time, actual_end_time,
	   completion_summary, member_rating, trainer_rating, created_by, created_at, updated_at`

type CreateSessionInput struct {
	MemberID         int64
	TrainerID        int64
	SessionType      string
	Title            string
	Description      *string
	ScheduledAt      time.Time
	DurationMinutes  int
	Cost             *float64
	SessionRoom      *string
	EquipmentNeeded  []string
	SessionGoals     *string
	PreparationNotes *string
	CreatedBy        *int64
}

type SessionListFilter struct {
	TrainerID int64
	MemberID  int64
	Status    string
	Timeframe string
	From      *time.Time
	To        *time.Time
}

type SessionRepository struct {
	db DBTX
}

func NewSessionRepository(db DBTX) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, input CreateSessionInput) (*models.TrainingSession, error) {
	query := fmt.Sprintf(`
		INSERT INTO training_sessions (member_id, trainer_id, session_type, title, description,
			scheduled_at, duration_min, status, cost, session_room, equipment_needed,
			session_goals, preparation_notes, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 'scheduled', $8, $9, $10, $11, $12, $13)
		RETURNING %s
	`, sessionColumns)

	return r.scanOne(r.db.QueryRow(ctx, query,
		input.MemberID,
		input.TrainerID,
		input.SessionType,
		input.Title,
		input.Description,
		input.ScheduledAt,
		input.DurationMinutes,
		input.Cost,
		input.SessionRoom,
		input.EquipmentNeeded,
		input.SessionGoals,
		input.PreparationNotes,
		input.CreatedBy,
	))
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID int64) (*models.TrainingSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM training_sessions WHERE id = $1`, sessionColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) GetByIDForUpdate(ctx context.Context, sessionID int64) (*models.TrainingSession, error) {
	query := fmt.Sprintf(`SELECT %s FROM training_sessions WHERE id = $1 FOR UPDATE`, sessionColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID))
}

func (r *SessionRepository) List(ctx context.Context, filter SessionListFilter) ([]models.TrainingSession, error) {
	args := []any{}
	whereParts := []string{"TRUE"}

	if filter.TrainerID > 0 {
		args = append(args, filter.TrainerID)
		whereParts = append(whereParts, fmt.Sprintf("trainer_id = $%d", len(args)))
	}
	if filter.MemberID > 0 {
		args = append(args, filter.MemberID)
		whereParts = append(whereParts, fmt.Sprintf("member_id = $%d", len(args)))
	}
	if status := strings.TrimSpace(filter.Status); status != "" {
		args = append(args, status)
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		whereParts = append(whereParts, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		whereParts = append(whereParts, fmt.Sprintf("scheduled_at < $%d", len(args)))
	}

	switch strings.TrimSpace(filter.Timeframe) {
	case "upcoming":
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) > NOW()",
		)
	case "past":
		whereParts = append(
			whereParts,
			"(scheduled_at + (duration_min * INTERVAL '1 minute')) <= NOW()",
		)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM training_sessions
		WHERE %s
		ORDER BY scheduled_at ASC, id ASC
	`, sessionColumns, strings.Join(whereParts, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]models.TrainingSession, 0)
	for rows.Next() {
		session, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

func (r *SessionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	nextStatus string,
) (*models.TrainingSession, error) {
	query := fmt.Sprintf(`
		UPDATE training_sessions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID, currentStatus, nextStatus))
}

// StartIfCurrent moves the session to in_progress and stamps the actual start
// time, guarded by the current status.
func (r *SessionRepository) StartIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
) (*models.TrainingSession, error) {
	query := fmt.Sprintf(`
		UPDATE training_sessions
		SET status = 'in_progress', actual_start_time = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID, currentStatus))
}

// CompleteIfCurrent moves the session to completed, stamps the actual end
// time and records the completion summary and optional ratings. A previously
// stamped actual_start_time is left untouched.
func (r *SessionRepository) CompleteIfCurrent(
	ctx context.Context,
	sessionID int64,
	currentStatus string,
	summary string,
	memberRating *int,
	trainerRating *int,
) (*models.TrainingSession, error) {
	query := fmt.Sprintf(`
		UPDATE training_sessions
		SET status = 'completed',
			actual_end_time = NOW(),
			completion_summary = $3,
			member_rating = $4,
			trainer_rating = $5,
			updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING %s
	`, sessionColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID, currentStatus, summary, memberRating, trainerRating))
}

func (r *SessionRepository) Reschedule(
	ctx context.Context,
	sessionID int64,
	scheduledAt time.Time,
	durationMinutes int,
) (*models.TrainingSession, error) {
	query := fmt.Sprintf(`
		UPDATE training_sessions
		SET scheduled_at = $2, duration_min = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING %s
	`, sessionColumns)
	return r.scanOne(r.db.QueryRow(ctx, query, sessionID, scheduledAt, durationMinutes))
}

func (r *SessionRepository) Delete(ctx context.Context, sessionID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM training_sessions WHERE id = $1`, sessionID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// CountOverlappingForTrainer counts non-cancelled sessions for the trainer
// whose occupied interval truly overlaps [start, end): existing.start < end
// AND existing.end > start. excludeSessionID skips the session being edited;
// pass 0 when creating.
func (r *SessionRepository) CountOverlappingForTrainer(
	ctx context.Context,
	trainerID int64,
	start time.Time,
	end time.Time,
	excludeSessionID int64,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM training_sessions
		WHERE trainer_id = $1
		  AND id <> $4
		  AND status <> 'cancelled'
		  AND scheduled_at < $3
		  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $2
	`
	var count int
	if err := r.db.QueryRow(ctx, query, trainerID, start, end, excludeSessionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SessionRepository) CountOverlappingForMember(
	ctx context.Context,
	memberID int64,
	start time.Time,
	end time.Time,
	excludeSessionID int64,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM training_sessions
		WHERE member_id = $1
		  AND id <> $4
		  AND status <> 'cancelled'
		  AND scheduled_at < $3
		  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $2
	`
	var count int
	if err := r.db.QueryRow(ctx, query, memberID, start, end, excludeSessionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SessionRepository) CountOverlappingForRoom(
	ctx context.Context,
	room string,
	start time.Time,
	end time.Time,
	excludeSessionID int64,
) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM training_sessions
		WHERE session_room = $1
		  AND id <> $4
		  AND status <> 'cancelled'
		  AND scheduled_at < $3
		  AND (scheduled_at + (duration_min * INTERVAL '1 minute')) > $2
	`
	var count int
	if err := r.db.QueryRow(ctx, query, room, start, end, excludeSessionID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *SessionRepository) CountByStatusSince(ctx context.Context, since time.Time) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*)
		FROM training_sessions
		WHERE scheduled_at >= $1
		GROUP BY status
	`
	rows, err := r.db.Query(ctx, query, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func (r *SessionRepository) scanOne(row rowScanner) (*models.TrainingSession, error) {
	var session models.TrainingSession
	err := row.Scan(
		&session.ID,
		&session.MemberID,
		&session.TrainerID,
		&session.SessionType,
		&session.Title,
		&session.Description,
		&session.ScheduledAt,
		&session.DurationMinutes,
		&session.Status,
		&session.Cost,
		&session.SessionRoom,
		&session.EquipmentNeeded,
		&session.SessionGoals,
		&session.PreparationNotes,
		&session.ActualStartTime,
		&session.ActualEndTime,
		&session.CompletionSummary,
		&session.MemberRating,
		&session.TrainerRating,
		&session.CreatedBy,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &session, nil
}
