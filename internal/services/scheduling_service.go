package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
)

var (
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidStatus          = errors.New("invalid status")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrInvalidInput           = errors.New("invalid input")
	ErrTrainerNotFound        = errors.New("trainer not found")
	ErrTrainerInactive        = errors.New("trainer is not active")
	ErrMemberNotFound         = errors.New("member not found")
	ErrMemberNotActive        = errors.New("member is not active")
)

// ConflictError carries the full conflict list so handlers can surface every
// reason a slot was rejected, not just the first.
type ConflictError struct {
	Conflicts []models.SessionConflict
}

func (e *ConflictError) Error() string {
	kinds := make([]string, 0, len(e.Conflicts))
	for _, conflict := range e.Conflicts {
		kinds = append(kinds, conflict.Type)
	}
	return fmt.Sprintf("scheduling conflicts: %s", strings.Join(kinds, ", "))
}

// allowedTransitions is the authoritative lifecycle table. completed,
// cancelled and no_show are terminal. rescheduled is a recognized status with
// no inbound transition; rescheduling moves the time, not the status.
var allowedTransitions = map[string][]string{
	models.SessionStatusScheduled: {
		models.SessionStatusConfirmed,
		models.SessionStatusCancelled,
		models.SessionStatusNoShow,
	},
	models.SessionStatusConfirmed: {
		models.SessionStatusInProgress,
		models.SessionStatusCancelled,
		models.SessionStatusNoShow,
	},
	models.SessionStatusInProgress: {
		models.SessionStatusCompleted,
		models.SessionStatusCancelled,
		models.SessionStatusNoShow,
	},
}

type trainerReader interface {
	GetByID(ctx context.Context, id int64) (*models.Trainer, error)
}

type memberReader interface {
	GetByID(ctx context.Context, id int64) (*models.Member, error)
}

type availabilityReader interface {
	ListForTrainerDay(ctx context.Context, trainerID int64, dayOfWeek int) ([]models.AvailabilityWindow, error)
}

type overlapCounter interface {
	CountOverlappingForTrainer(ctx context.Context, trainerID int64, start, end time.Time, excludeSessionID int64) (int, error)
	CountOverlappingForMember(ctx context.Context, memberID int64, start, end time.Time, excludeSessionID int64) (int, error)
	CountOverlappingForRoom(ctx context.Context, room string, start, end time.Time, excludeSessionID int64) (int, error)
}

type SchedulePublisher interface {
	PublishScheduleEvent(event string, session *models.TrainingSession)
}

type SchedulingService struct {
	db               *pgxpool.Pool
	sessionRepo      *repository.SessionRepository
	availabilityRepo *repository.AvailabilityRepository
	trainerRepo      trainerReader
	memberRepo       memberReader
	events           SchedulePublisher
	studioTZ         *time.Location
}

// NewSchedulingService builds the scheduling core. studioTZ is the timezone
// availability windows are entered in; nil means UTC.
func NewSchedulingService(
	db *pgxpool.Pool,
	sessionRepo *repository.SessionRepository,
	availabilityRepo *repository.AvailabilityRepository,
	trainerRepo trainerReader,
	memberRepo memberReader,
	events SchedulePublisher,
	studioTZ *time.Location,
) *SchedulingService {
	if studioTZ == nil {
		studioTZ = time.UTC
	}
	return &SchedulingService{
		db:               db,
		sessionRepo:      sessionRepo,
		availabilityRepo: availabilityRepo,
		trainerRepo:      trainerRepo,
		memberRepo:       memberRepo,
		events:           events,
		studioTZ:         studioTZ,
	}
}

type BookSessionInput struct {
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
}

type conflictCheckParams struct {
	TrainerID        int64
	MemberID         int64
	Room             *string
	StartsAt         time.Time
	DurationMinutes  int
	ExcludeSessionID int64
	Location         *time.Location
}

// CheckConflicts reports every reason the proposed slot would be invalid. An
// empty conflict list with Verified=true means the slot is clear; with
// Verified=false a lookup failed and the slot could not be fully checked
// (the check degrades open rather than blocking bookings on a transient read
// failure).
func (s *SchedulingService) CheckConflicts(
	ctx context.Context,
	trainerID int64,
	memberID int64,
	room *string,
	scheduledAt time.Time,
	durationMinutes int,
	excludeSessionID int64,
) (*models.ConflictCheckResult, error) {
	if trainerID <= 0 || durationMinutes <= 0 {
		return nil, ErrInvalidInput
	}

	result := checkConflicts(ctx, s.availabilityRepo, s.sessionRepo, conflictCheckParams{
		TrainerID:        trainerID,
		MemberID:         memberID,
		Room:             room,
		StartsAt:         scheduledAt.UTC(),
		DurationMinutes:  durationMinutes,
		ExcludeSessionID: excludeSessionID,
		Location:         s.studioTZ,
	})
	return &result, nil
}

func checkConflicts(
	ctx context.Context,
	windows availabilityReader,
	overlaps overlapCounter,
	params conflictCheckParams,
) models.ConflictCheckResult {
	result := models.ConflictCheckResult{
		Conflicts: make([]models.SessionConflict, 0),
		Verified:  true,
	}

	start := params.StartsAt.UTC()
	end := start.Add(time.Duration(params.DurationMinutes) * time.Minute)

	// Windows are entered in the studio's timezone, so the weekday and
	// time-of-day come from the local clock, not UTC.
	loc := params.Location
	if loc == nil {
		loc = time.UTC
	}
	local := start.In(loc)
	startMinute := local.Hour()*60 + local.Minute()
	endMinute := startMinute + params.DurationMinutes

	dayWindows, err := windows.ListForTrainerDay(ctx, params.TrainerID, int(local.Weekday()))
	if err != nil {
		log.Printf("conflict check degraded: availability lookup: %v", err)
		result.Verified = false
	} else if !windowsContain(dayWindows, startMinute, endMinute) {
		result.Conflicts = append(result.Conflicts, models.SessionConflict{
			Type:    models.ConflictTrainerUnavailable,
			Message: "trainer has no availability window covering the requested time",
			Details: map[string]any{
				"day_of_week": int(local.Weekday()),
				"windows":     len(dayWindows),
			},
		})
	}

	trainerOverlaps, err := overlaps.CountOverlappingForTrainer(ctx, params.TrainerID, start, end, params.ExcludeSessionID)
	if err != nil {
		log.Printf("conflict check degraded: trainer overlap lookup: %v", err)
		result.Verified = false
	} else if trainerOverlaps > 0 {
		result.Conflicts = append(result.Conflicts, models.SessionConflict{
			Type:    models.ConflictTrainerBooked,
			Message: "trainer already has a session in the requested window",
			Details: map[string]any{"overlapping_sessions": trainerOverlaps},
		})
	}

	if params.MemberID > 0 {
		memberOverlaps, err := overlaps.CountOverlappingForMember(ctx, params.MemberID, start, end, params.ExcludeSessionID)
		if err != nil {
			log.Printf("conflict check degraded: member overlap lookup: %v", err)
			result.Verified = false
		} else if memberOverlaps > 0 {
			result.Conflicts = append(result.Conflicts, models.SessionConflict{
				Type:    models.ConflictMemberBooked,
				Message: "member already has a session in the requested window",
				Details: map[string]any{"overlapping_sessions": memberOverlaps},
			})
		}
	}

	if params.Room != nil && strings.TrimSpace(*params.Room) != "" {
		roomOverlaps, err := overlaps.CountOverlappingForRoom(ctx, strings.TrimSpace(*params.Room), start, end, params.ExcludeSessionID)
		if err != nil {
			log.Printf("conflict check degraded: room overlap lookup: %v", err)
			result.Verified = false
		} else if roomOverlaps > 0 {
			result.Conflicts = append(result.Conflicts, models.SessionConflict{
				Type:    models.ConflictRoomOccupied,
				Message: "room is occupied in the requested window",
				Details: map[string]any{"overlapping_sessions": roomOverlaps},
			})
		}
	}

	return result
}

// windowsContain reports whether [startMinute, endMinute) is fully inside at
// least one window. A session spilling past midnight can never be contained.
func windowsContain(windows []models.AvailabilityWindow, startMinute, endMinute int) bool {
	if endMinute > 24*60 {
		return false
	}
	for _, window := range windows {
		if window.StartMinute <= startMinute && window.EndMinute >= endMinute {
			return true
		}
	}
	return false
}

func (s *SchedulingService) BookSession(
	ctx context.Context,
	actorUserID int64,
	input BookSessionInput,
) (*models.TrainingSession, error) {
	if err := validateBookingInput(input); err != nil {
		return nil, err
	}

	trainer, err := s.trainerRepo.GetByID(ctx, input.TrainerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, err
	}
	if !trainer.IsActive {
		return nil, ErrTrainerInactive
	}

	member, err := s.memberRepo.GetByID(ctx, input.MemberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	if member.Status != models.MemberStatusActive {
		return nil, ErrMemberNotActive
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txAvailabilityRepo := repository.NewAvailabilityRepository(tx)

	// Serializes the check-then-insert per trainer so two concurrent
	// bookings cannot both pass the overlap check.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", input.TrainerID); err != nil {
		return nil, err
	}

	result := checkConflicts(ctx, txAvailabilityRepo, txSessionRepo, conflictCheckParams{
		TrainerID:       input.TrainerID,
		MemberID:        input.MemberID,
		Room:            input.SessionRoom,
		StartsAt:        input.ScheduledAt.UTC(),
		DurationMinutes: input.DurationMinutes,
		Location:        s.studioTZ,
	})
	if result.HasConflicts() {
		return nil, &ConflictError{Conflicts: result.Conflicts}
	}
	if !result.Verified {
		log.Printf("booking proceeding with unverified conflict check: trainer=%d at=%s",
			input.TrainerID, input.ScheduledAt.UTC().Format(time.RFC3339))
	}

	var createdBy *int64
	if actorUserID > 0 {
		createdBy = &actorUserID
	}

	session, err := txSessionRepo.Create(ctx, repository.CreateSessionInput{
		MemberID:         input.MemberID,
		TrainerID:        input.TrainerID,
		SessionType:      input.SessionType,
		Title:            strings.TrimSpace(input.Title),
		Description:      input.Description,
		ScheduledAt:      input.ScheduledAt.UTC(),
		DurationMinutes:  input.DurationMinutes,
		Cost:             input.Cost,
		SessionRoom:      input.SessionRoom,
		EquipmentNeeded:  input.EquipmentNeeded,
		SessionGoals:     input.SessionGoals,
		PreparationNotes: input.PreparationNotes,
		CreatedBy:        createdBy,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publish("session_created", session)
	return session, nil
}

func validateBookingInput(input BookSessionInput) error {
	if input.MemberID <= 0 || input.TrainerID <= 0 {
		return ErrInvalidInput
	}
	if strings.TrimSpace(input.Title) == "" {
		return ErrInvalidInput
	}
	if !isValidSessionType(input.SessionType) {
		return ErrInvalidInput
	}
	if input.DurationMinutes < models.MinSessionDurationMinutes ||
		input.DurationMinutes > models.MaxSessionDurationMinutes {
		return ErrInvalidInput
	}
	if input.ScheduledAt.Before(time.Now().Add(-1 * time.Minute)) {
		return ErrInvalidInput
	}
	if input.Cost != nil && *input.Cost < 0 {
		return ErrInvalidInput
	}
	return nil
}

func isValidSessionType(sessionType string) bool {
	for _, known := range models.SessionTypes {
		if sessionType == known {
			return true
		}
	}
	return false
}

// Reschedule moves a non-terminal session to a new slot after re-running the
// conflict check with the session itself excluded from the overlap queries.
func (s *SchedulingService) Reschedule(
	ctx context.Context,
	sessionID int64,
	scheduledAt time.Time,
	durationMinutes int,
) (*models.TrainingSession, error) {
	if sessionID <= 0 {
		return nil, ErrInvalidInput
	}
	if durationMinutes < models.MinSessionDurationMinutes ||
		durationMinutes > models.MaxSessionDurationMinutes {
		return nil, ErrInvalidInput
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txSessionRepo := repository.NewSessionRepository(tx)
	txAvailabilityRepo := repository.NewAvailabilityRepository(tx)

	session, err := txSessionRepo.GetByIDForUpdate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if isTerminalStatus(session.Status) {
		return nil, ErrInvalidStateTransition
	}

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", session.TrainerID); err != nil {
		return nil, err
	}

	result := checkConflicts(ctx, txAvailabilityRepo, txSessionRepo, conflictCheckParams{
		TrainerID:        session.TrainerID,
		MemberID:         session.MemberID,
		Room:             session.SessionRoom,
		StartsAt:         scheduledAt.UTC(),
		DurationMinutes:  durationMinutes,
		ExcludeSessionID: sessionID,
		Location:         s.studioTZ,
	})
	if result.HasConflicts() {
		return nil, &ConflictError{Conflicts: result.Conflicts}
	}
	if !result.Verified {
		log.Printf("reschedule proceeding with unverified conflict check: session=%d", sessionID)
	}

	updated, err := txSessionRepo.Reschedule(ctx, sessionID, scheduledAt.UTC(), durationMinutes)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	s.publish("session_rescheduled", updated)
	return updated, nil
}

type StatusChangeInput struct {
	CompletionSummary string
	MemberRating      *int
	TrainerRating     *int
}

func (s *SchedulingService) UpdateStatus(
	ctx context.Context,
	sessionID int64,
	requestedStatus string,
	input StatusChangeInput,
) (*models.TrainingSession, error) {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	nextStatus, err := normalizeRequestedStatus(requestedStatus)
	if err != nil {
		return nil, err
	}
	if !transitionAllowed(session.Status, nextStatus) {
		return nil, ErrInvalidStateTransition
	}

	var updated *models.TrainingSession
	switch nextStatus {
	case models.SessionStatusInProgress:
		updated, err = s.sessionRepo.StartIfCurrent(ctx, sessionID, session.Status)
	case models.SessionStatusCompleted:
		summary := strings.TrimSpace(input.CompletionSummary)
		if summary == "" {
			return nil, ErrInvalidInput
		}
		if !ratingValid(input.MemberRating) || !ratingValid(input.TrainerRating) {
			return nil, ErrInvalidInput
		}
		updated, err = s.sessionRepo.CompleteIfCurrent(
			ctx, sessionID, session.Status, summary, input.MemberRating, input.TrainerRating)
	default:
		updated, err = s.sessionRepo.UpdateStatusIfCurrent(ctx, sessionID, session.Status, nextStatus)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.publish("session_status_changed", updated)
	return updated, nil
}

func (s *SchedulingService) GetSession(ctx context.Context, sessionID int64) (*models.TrainingSession, error) {
	return s.sessionRepo.GetByID(ctx, sessionID)
}

func (s *SchedulingService) ListSessions(
	ctx context.Context,
	filter repository.SessionListFilter,
) ([]models.TrainingSession, error) {
	return s.sessionRepo.List(ctx, filter)
}

// Calendar returns every session whose start falls in [from, to) regardless
// of status, for the scheduler view.
func (s *SchedulingService) Calendar(
	ctx context.Context,
	from time.Time,
	to time.Time,
) ([]models.TrainingSession, error) {
	if !to.After(from) {
		return nil, ErrInvalidInput
	}
	return s.sessionRepo.List(ctx, repository.SessionListFilter{From: &from, To: &to})
}

func (s *SchedulingService) DeleteSession(ctx context.Context, sessionID int64) error {
	session, err := s.sessionRepo.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}

	deleted, err := s.sessionRepo.Delete(ctx, sessionID)
	if err != nil {
		return err
	}
	if !deleted {
		return pgx.ErrNoRows
	}

	s.publish("session_deleted", session)
	return nil
}

func (s *SchedulingService) publish(event string, session *models.TrainingSession) {
	if s.events == nil || session == nil {
		return
	}
	s.events.PublishScheduleEvent(event, session)
}

func normalizeRequestedStatus(status string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "confirm", "confirmed":
		return models.SessionStatusConfirmed, nil
	case "start", "in_progress":
		return models.SessionStatusInProgress, nil
	case "complete", "completed":
		return models.SessionStatusCompleted, nil
	case "cancel", "cancelled", "canceled":
		return models.SessionStatusCancelled, nil
	case "no_show", "no-show", "noshow":
		return models.SessionStatusNoShow, nil
	default:
		return "", ErrInvalidStatus
	}
}

func transitionAllowed(currentStatus, nextStatus string) bool {
	for _, allowed := range allowedTransitions[currentStatus] {
		if allowed == nextStatus {
			return true
		}
	}
	return false
}

func isTerminalStatus(status string) bool {
	return len(allowedTransitions[status]) == 0
}

func ratingValid(rating *int) bool {
	return rating == nil || (*rating >= 1 && *rating <= 5)
}
