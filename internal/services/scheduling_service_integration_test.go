package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
)

var (
	testDBOnce sync.Once
	testDBPool *pgxpool.Pool
	testDBErr  error
)

func TestSchedulingServiceBookAndCompleteFlow(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSchedulingService(pool)

	trainerID := createTestTrainer(t, ctx, pool)
	memberID := createTestMember(t, ctx, pool)
	t.Cleanup(func() { cleanupTestFixtures(t, ctx, pool, trainerID, memberID) })

	scheduledAt := time.Date(2030, 3, 18, 10, 0, 0, 0, time.UTC)
	addTestAvailability(t, ctx, pool, trainerID, scheduledAt.Weekday())

	session, err := service.BookSession(ctx, 0, BookSessionInput{
		MemberID:        memberID,
		TrainerID:       trainerID,
		SessionType:     models.SessionTypePersonal,
		Title:           "Strength block week 1",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("BookSession: %v", err)
	}
	if session.Status != models.SessionStatusScheduled {
		t.Fatalf("expected scheduled session, got %q", session.Status)
	}
	// Bookings without an acting user must not reference a users row.
	if session.CreatedBy != nil {
		t.Fatalf("expected nil created_by for a system booking, got %d", *session.CreatedBy)
	}

	for _, status := range []string{"confirm", "start"} {
		if session, err = service.UpdateStatus(ctx, session.ID, status, StatusChangeInput{}); err != nil {
			t.Fatalf("UpdateStatus(%s): %v", status, err)
		}
	}
	if session.ActualStartTime == nil {
		t.Fatalf("expected actual start time after start")
	}

	rating := 5
	session, err = service.UpdateStatus(ctx, session.ID, "complete", StatusChangeInput{
		CompletionSummary: "Hit all planned sets",
		MemberRating:      &rating,
	})
	if err != nil {
		t.Fatalf("UpdateStatus(complete): %v", err)
	}
	if session.Status != models.SessionStatusCompleted || session.ActualEndTime == nil {
		t.Fatalf("expected completed session with end time, got %+v", session)
	}
}

func TestSchedulingServiceRejectsOverlappingBookings(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSchedulingService(pool)

	trainerID := createTestTrainer(t, ctx, pool)
	firstMemberID := createTestMember(t, ctx, pool)
	secondMemberID := createTestMember(t, ctx, pool)
	t.Cleanup(func() { cleanupTestFixtures(t, ctx, pool, trainerID, firstMemberID, secondMemberID) })

	scheduledAt := time.Date(2030, 4, 2, 12, 0, 0, 0, time.UTC)
	addTestAvailability(t, ctx, pool, trainerID, scheduledAt.Weekday())

	if _, err := service.BookSession(ctx, 0, BookSessionInput{
		MemberID:        firstMemberID,
		TrainerID:       trainerID,
		SessionType:     models.SessionTypePersonal,
		Title:           "Occupies the slot",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 60,
	}); err != nil {
		t.Fatalf("first BookSession: %v", err)
	}

	_, err := service.BookSession(ctx, 0, BookSessionInput{
		MemberID:        secondMemberID,
		TrainerID:       trainerID,
		SessionType:     models.SessionTypePersonal,
		Title:           "Overlaps the slot",
		ScheduledAt:     scheduledAt.Add(30 * time.Minute),
		DurationMinutes: 45,
	})

	var conflictErr *ConflictError
	if !errors.As(err, &conflictErr) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	found := false
	for _, conflict := range conflictErr.Conflicts {
		if conflict.Type == models.ConflictTrainerBooked {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected trainer_booked conflict, got %+v", conflictErr.Conflicts)
	}
}

func TestSchedulingServiceRescheduleSkipsOwnSlot(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSchedulingService(pool)

	trainerID := createTestTrainer(t, ctx, pool)
	memberID := createTestMember(t, ctx, pool)
	t.Cleanup(func() { cleanupTestFixtures(t, ctx, pool, trainerID, memberID) })

	scheduledAt := time.Date(2030, 5, 14, 9, 0, 0, 0, time.UTC)
	addTestAvailability(t, ctx, pool, trainerID, scheduledAt.Weekday())

	session, err := service.BookSession(ctx, 0, BookSessionInput{
		MemberID:        memberID,
		TrainerID:       trainerID,
		SessionType:     models.SessionTypePersonal,
		Title:           "Movable session",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("BookSession: %v", err)
	}

	// Shifting within the original slot must not trip over the session's
	// own row in the overlap check.
	moved, err := service.Reschedule(ctx, session.ID, scheduledAt.Add(30*time.Minute), 60)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !moved.ScheduledAt.Equal(scheduledAt.Add(30 * time.Minute)) {
		t.Fatalf("expected moved start, got %v", moved.ScheduledAt)
	}
}

func TestSchedulingServiceCancelledSessionFreesSlot(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSchedulingService(pool)

	trainerID := createTestTrainer(t, ctx, pool)
	memberID := createTestMember(t, ctx, pool)
	t.Cleanup(func() { cleanupTestFixtures(t, ctx, pool, trainerID, memberID) })

	scheduledAt := time.Date(2030, 7, 9, 11, 0, 0, 0, time.UTC)
	addTestAvailability(t, ctx, pool, trainerID, scheduledAt.Weekday())

	first, err := service.BookSession(ctx, 0, BookSessionInput{
		MemberID:        memberID,
		TrainerID:       trainerID,
		SessionType:     models.SessionTypePersonal,
		Title:           "Will be cancelled",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("first BookSession: %v", err)
	}
	if _, err := service.UpdateStatus(ctx, first.ID, "cancel", StatusChangeInput{}); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	second, err := service.BookSession(ctx, 0, BookSessionInput{
		MemberID:        memberID,
		TrainerID:       trainerID,
		SessionType:     models.SessionTypePersonal,
		Title:           "Reclaims the slot",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 60,
	})
	if err != nil {
		t.Fatalf("rebooking cancelled slot: %v", err)
	}
	if second.Status != models.SessionStatusScheduled {
		t.Fatalf("expected scheduled rebooking, got %q", second.Status)
	}
}

func TestSchedulingServiceDeleteRemovesSession(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSchedulingService(pool)

	trainerID := createTestTrainer(t, ctx, pool)
	memberID := createTestMember(t, ctx, pool)
	t.Cleanup(func() { cleanupTestFixtures(t, ctx, pool, trainerID, memberID) })

	scheduledAt := time.Date(2030, 8, 13, 15, 0, 0, 0, time.UTC)
	addTestAvailability(t, ctx, pool, trainerID, scheduledAt.Weekday())

	session, err := service.BookSession(ctx, 0, BookSessionInput{
		MemberID:        memberID,
		TrainerID:       trainerID,
		SessionType:     models.SessionTypeAssessment,
		Title:           "Short lived",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 30,
	})
	if err != nil {
		t.Fatalf("BookSession: %v", err)
	}

	if err := service.DeleteSession(ctx, session.ID); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, err := service.GetSession(ctx, session.ID); !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("expected pgx.ErrNoRows after delete, got %v", err)
	}
}

func TestSchedulingServiceListAndCalendar(t *testing.T) {
	ctx := context.Background()
	pool := integrationTestPool(t)
	service := newIntegrationSchedulingService(pool)

	trainerID := createTestTrainer(t, ctx, pool)
	memberID := createTestMember(t, ctx, pool)
	t.Cleanup(func() { cleanupTestFixtures(t, ctx, pool, trainerID, memberID) })

	scheduledAt := time.Date(2030, 6, 11, 8, 0, 0, 0, time.UTC)
	addTestAvailability(t, ctx, pool, trainerID, scheduledAt.Weekday())

	booked, err := service.BookSession(ctx, 0, BookSessionInput{
		MemberID:        memberID,
		TrainerID:       trainerID,
		SessionType:     models.SessionTypeClass,
		Title:           "Morning class",
		ScheduledAt:     scheduledAt,
		DurationMinutes: 45,
	})
	if err != nil {
		t.Fatalf("BookSession: %v", err)
	}

	listed, err := service.ListSessions(ctx, repository.SessionListFilter{
		TrainerID: trainerID,
		Status:    models.SessionStatusScheduled,
		Timeframe: "upcoming",
	})
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != booked.ID {
		t.Fatalf("expected session %d in trainer list, got %+v", booked.ID, listed)
	}

	calendar, err := service.Calendar(ctx, scheduledAt.AddDate(0, 0, -1), scheduledAt.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	found := false
	for _, session := range calendar {
		if session.ID == booked.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session %d in calendar window", booked.ID)
	}
}

func integrationTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	testDBOnce.Do(func() {
		_ = godotenv.Load(".env")
		_ = godotenv.Load(filepath.Join("..", "..", ".env"))

		dbURL := os.Getenv("DB_URL")
		if dbURL == "" {
			testDBErr = fmt.Errorf("DB_URL is not set")
			return
		}

		cfg, err := pgxpool.ParseConfig(dbURL)
		if err != nil {
			testDBErr = err
			return
		}

		testDBPool, testDBErr = pgxpool.NewWithConfig(context.Background(), cfg)
		if testDBErr != nil {
			return
		}
		testDBErr = testDBPool.Ping(context.Background())
	})

	if testDBErr != nil {
		t.Skipf("skipping integration test: %v", testDBErr)
	}
	return testDBPool
}

func newIntegrationSchedulingService(pool *pgxpool.Pool) *SchedulingService {
	return NewSchedulingService(
		pool,
		repository.NewSessionRepository(pool),
		repository.NewAvailabilityRepository(pool),
		repository.NewTrainerRepository(pool),
		repository.NewMemberRepository(pool),
		nil,
		time.UTC,
	)
}

func createTestTrainer(t *testing.T, ctx context.Context, pool *pgxpool.Pool) int64 {
	t.Helper()

	trainer, err := repository.NewTrainerRepository(pool).Create(ctx, repository.CreateTrainerInput{
		FirstName:       "Test",
		LastName:        "Trainer",
		Email:           fmt.Sprintf("scheduling-test-trainer-%d@example.com", time.Now().UnixNano()),
		Specializations: []string{"strength"},
	})
	if err != nil {
		t.Fatalf("create trainer: %v", err)
	}
	return trainer.ID
}

func createTestMember(t *testing.T, ctx context.Context, pool *pgxpool.Pool) int64 {
	t.Helper()

	member, err := repository.NewMemberRepository(pool).Create(ctx, repository.CreateMemberInput{
		MemberCode: fmt.Sprintf("GM-TEST%d", time.Now().UnixNano()%1_000_000_000),
		FirstName:  "Test",
		LastName:   "Member",
		Email:      fmt.Sprintf("scheduling-test-member-%d@example.com", time.Now().UnixNano()),
	})
	if err != nil {
		t.Fatalf("create member: %v", err)
	}
	return member.ID
}

// addTestAvailability opens the whole day so bookings only contend on
// overlap, not on working hours.
func addTestAvailability(t *testing.T, ctx context.Context, pool *pgxpool.Pool, trainerID int64, day time.Weekday) {
	t.Helper()

	_, err := repository.NewAvailabilityRepository(pool).Create(ctx, models.AvailabilityWindow{
		TrainerID:   trainerID,
		DayOfWeek:   int(day),
		StartMinute: 0,
		EndMinute:   24 * 60,
	})
	if err != nil {
		t.Fatalf("create availability window: %v", err)
	}
}

func cleanupTestFixtures(t *testing.T, ctx context.Context, pool *pgxpool.Pool, trainerID int64, memberIDs ...int64) {
	t.Helper()

	if _, err := pool.Exec(ctx, "DELETE FROM training_sessions WHERE trainer_id = $1 OR member_id = ANY($2)", trainerID, memberIDs); err != nil {
		t.Fatalf("cleanup sessions: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM trainer_availability WHERE trainer_id = $1", trainerID); err != nil {
		t.Fatalf("cleanup availability: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM trainers WHERE id = $1", trainerID); err != nil {
		t.Fatalf("cleanup trainers: %v", err)
	}
	if _, err := pool.Exec(ctx, "DELETE FROM members WHERE id = ANY($1)", memberIDs); err != nil {
		t.Fatalf("cleanup members: %v", err)
	}
}
