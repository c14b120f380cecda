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

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
)

var (
	ErrInvalidAvailabilityWindow   = errors.New("invalid availability window")
	ErrDuplicateAvailabilityWindow = errors.New("availability window already exists for that day and start time")
)

type TrainerService struct {
	trainerRepo      *repository.TrainerRepository
	availabilityRepo *repository.AvailabilityRepository
	storage          PhotoStorage
}

func NewTrainerService(
	trainerRepo *repository.TrainerRepository,
	availabilityRepo *repository.AvailabilityRepository,
	storage PhotoStorage,
) *TrainerService {
	return &TrainerService{
		trainerRepo:      trainerRepo,
		availabilityRepo: availabilityRepo,
		storage:          storage,
	}
}

func (s *TrainerService) CreateTrainer(ctx context.Context, input repository.CreateTrainerInput) (*models.Trainer, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	trainer, err := s.trainerRepo.Create(ctx, input)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create trainer: %w", err)
	}
	return trainer, nil
}

func (s *TrainerService) GetTrainer(ctx context.Context, trainerID int64) (*models.Trainer, error) {
	trainer, err := s.trainerRepo.GetByID(ctx, trainerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, fmt.Errorf("get trainer: %w", err)
	}
	return trainer, nil
}

func (s *TrainerService) ListTrainers(ctx context.Context, activeOnly bool) ([]models.Trainer, error) {
	trainers, err := s.trainerRepo.ListAll(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list trainers: %w", err)
	}
	return trainers, nil
}

func (s *TrainerService) UpdateTrainer(ctx context.Context, trainerID int64, input repository.UpdateTrainerInput) (*models.Trainer, error) {
	if input.Email != nil {
		normalized := strings.ToLower(strings.TrimSpace(*input.Email))
		input.Email = &normalized
	}
	trainer, err := s.trainerRepo.UpdatePartial(ctx, trainerID, input)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update trainer: %w", err)
	}
	return trainer, nil
}

// DeleteTrainer removes the trainer. Sessions referencing the trainer keep
// their rows; the foreign key is set to restrict, so trainers with sessions
// must be deactivated instead.
func (s *TrainerService) DeleteTrainer(ctx context.Context, trainerID int64) error {
	deleted, err := s.trainerRepo.Delete(ctx, trainerID)
	if err != nil {
		return fmt.Errorf("delete trainer: %w", err)
	}
	if !deleted {
		return ErrTrainerNotFound
	}
	return nil
}

// AddAvailabilityWindow registers a weekly working window. Minutes count from
// midnight in the studio's timezone; the end is exclusive.
func (s *TrainerService) AddAvailabilityWindow(ctx context.Context, window models.AvailabilityWindow) (*models.AvailabilityWindow, error) {
	if window.DayOfWeek < 0 || window.DayOfWeek > 6 {
		return nil, ErrInvalidAvailabilityWindow
	}
	if window.StartMinute < 0 || window.EndMinute > 24*60 || window.StartMinute >= window.EndMinute {
		return nil, ErrInvalidAvailabilityWindow
	}
	if _, err := s.GetTrainer(ctx, window.TrainerID); err != nil {
		return nil, err
	}

	created, err := s.availabilityRepo.Create(ctx, window)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateAvailabilityWindow
		}
		return nil, fmt.Errorf("create availability window: %w", err)
	}
	return created, nil
}

func (s *TrainerService) ListAvailability(ctx context.Context, trainerID int64) ([]models.AvailabilityWindow, error) {
	if _, err := s.GetTrainer(ctx, trainerID); err != nil {
		return nil, err
	}
	windows, err := s.availabilityRepo.ListForTrainer(ctx, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return windows, nil
}

func (s *TrainerService) RemoveAvailabilityWindow(ctx context.Context, trainerID, windowID int64) error {
	deleted, err := s.availabilityRepo.Delete(ctx, trainerID, windowID)
	if err != nil {
		return fmt.Errorf("delete availability window: %w", err)
	}
	if !deleted {
		return ErrInvalidAvailabilityWindow
	}
	return nil
}

func (s *TrainerService) UploadTrainerPhoto(ctx context.Context, trainerID int64, file multipart.File) (*models.Trainer, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	trainer, err := s.GetTrainer(ctx, trainerID)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("trainer-%d-%s", trainerID, uuid.NewString()[:8])
	photoURL, err := s.storage.UploadPhoto(ctx, file, objectName, "trainers")
	if err != nil {
		return nil, err
	}

	if trainer.PhotoURL != nil && *trainer.PhotoURL != photoURL {
		if err := s.storage.DeletePhoto(ctx, *trainer.PhotoURL); err != nil {
			log.Printf("delete previous trainer photo: %v", err)
		}
	}

	updated, err := s.trainerRepo.UpdatePhotoURL(ctx, trainerID, photoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTrainerNotFound
		}
		return nil, fmt.Errorf("record trainer photo: %w", err)
	}
	return updated, nil
}
