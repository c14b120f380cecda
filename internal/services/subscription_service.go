package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
)

var (
	ErrPlanNotFound         = errors.New("membership plan not found")
	ErrPlanInactive         = errors.New("membership plan is not active")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrSubscriptionExists   = errors.New("member already has an active subscription")
)

type SubscriptionService struct {
	subscriptionRepo *repository.SubscriptionRepository
	planRepo         *repository.PlanRepository
	memberRepo       *repository.MemberRepository
}

func NewSubscriptionService(
	subscriptionRepo *repository.SubscriptionRepository,
	planRepo *repository.PlanRepository,
	memberRepo *repository.MemberRepository,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		memberRepo:       memberRepo,
	}
}

// Subscribe places the member on the plan. The end date is derived from the
// plan's duration, starting today unless a start date is given.
func (s *SubscriptionService) Subscribe(ctx context.Context, memberID, planID int64, startDate *time.Time) (*models.SubscriptionDetail, error) {
	member, err := s.memberRepo.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, fmt.Errorf("load member: %w", err)
	}
	if member.Status != models.MemberStatusActive {
		return nil, ErrMemberNotActive
	}

	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("load plan: %w", err)
	}
	if !plan.IsActive {
		return nil, ErrPlanInactive
	}

	if existing, err := s.subscriptionRepo.GetActiveForMember(ctx, memberID); err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("check active subscription: %w", err)
		}
	} else if existing != nil {
		return nil, ErrSubscriptionExists
	}

	start := time.Now().UTC().Truncate(24 * time.Hour)
	if startDate != nil {
		start = startDate.UTC().Truncate(24 * time.Hour)
	}
	end := start.AddDate(0, 0, plan.DurationDays)

	subscription, err := s.subscriptionRepo.Create(ctx, repository.CreateSubscriptionInput{
		MemberID:  memberID,
		PlanID:    planID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	return &models.SubscriptionDetail{Subscription: *subscription, Plan: plan}, nil
}

func (s *SubscriptionService) GetSubscription(ctx context.Context, subscriptionID int64) (*models.SubscriptionDetail, error) {
	subscription, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return s.withPlan(ctx, subscription), nil
}

// ListForMember returns the member's subscription history, newest first.
func (s *SubscriptionService) ListForMember(ctx context.Context, memberID int64) ([]models.SubscriptionDetail, error) {
	subscriptions, err := s.subscriptionRepo.ListByMember(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	details := make([]models.SubscriptionDetail, 0, len(subscriptions))
	for i := range subscriptions {
		details = append(details, *s.withPlan(ctx, &subscriptions[i]))
	}
	return details, nil
}

// Cancel ends an active or frozen subscription immediately.
func (s *SubscriptionService) Cancel(ctx context.Context, subscriptionID int64) (*models.Subscription, error) {
	return s.transition(ctx, subscriptionID, models.SubscriptionStatusCancelled,
		models.SubscriptionStatusActive, models.SubscriptionStatusFrozen)
}

// Freeze pauses an active subscription.
func (s *SubscriptionService) Freeze(ctx context.Context, subscriptionID int64) (*models.Subscription, error) {
	return s.transition(ctx, subscriptionID, models.SubscriptionStatusFrozen,
		models.SubscriptionStatusActive)
}

// Unfreeze resumes a frozen subscription.
func (s *SubscriptionService) Unfreeze(ctx context.Context, subscriptionID int64) (*models.Subscription, error) {
	return s.transition(ctx, subscriptionID, models.SubscriptionStatusActive,
		models.SubscriptionStatusFrozen)
}

func (s *SubscriptionService) transition(ctx context.Context, subscriptionID int64, target string, allowedFrom ...string) (*models.Subscription, error) {
	current, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	from := ""
	for _, status := range allowedFrom {
		if current.Status == status {
			from = status
			break
		}
	}
	if from == "" {
		return nil, ErrInvalidStateTransition
	}

	updated, err := s.subscriptionRepo.UpdateStatusIfCurrent(ctx, subscriptionID, from, target)
	if err != nil {
		// Racing update changed the status between read and write.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, fmt.Errorf("update subscription status: %w", err)
	}
	return updated, nil
}

func (s *SubscriptionService) withPlan(ctx context.Context, subscription *models.Subscription) *models.SubscriptionDetail {
	detail := &models.SubscriptionDetail{Subscription: *subscription}
	plan, err := s.planRepo.GetByID(ctx, subscription.PlanID)
	if err == nil {
		detail.Plan = plan
	}
	return detail
}
