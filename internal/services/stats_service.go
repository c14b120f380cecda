package services

import (
	"context"
	"fmt"
	"time"

	"github.com/openfit/studioback/internal/models"
	"github.com/openfit/studioback/internal/repository"
)

// DashboardStats is the payload behind the admin dashboard's summary cards.
type DashboardStats struct {
	Members           models.MemberStats   `json:"members"`
	SessionsThisMonth map[string]int       `json:"sessions_this_month"`
	RevenueByPlan     []models.PlanRevenue `json:"revenue_by_plan"`
	TotalRevenue      float64              `json:"total_revenue"`
	ActiveSubscribers int                  `json:"active_subscribers"`
	GeneratedAt       time.Time            `json:"generated_at"`
}

type StatsService struct {
	memberRepo       *repository.MemberRepository
	sessionRepo      *repository.SessionRepository
	subscriptionRepo *repository.SubscriptionRepository
}

func NewStatsService(
	memberRepo *repository.MemberRepository,
	sessionRepo *repository.SessionRepository,
	subscriptionRepo *repository.SubscriptionRepository,
) *StatsService {
	return &StatsService{
		memberRepo:       memberRepo,
		sessionRepo:      sessionRepo,
		subscriptionRepo: subscriptionRepo,
	}
}

func (s *StatsService) Dashboard(ctx context.Context) (*DashboardStats, error) {
	now := time.Now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	memberStats, err := s.memberRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("member stats: %w", err)
	}

	sessionCounts, err := s.sessionRepo.CountByStatusSince(ctx, monthStart)
	if err != nil {
		return nil, fmt.Errorf("session stats: %w", err)
	}

	revenue, err := s.subscriptionRepo.RevenueByPlan(ctx)
	if err != nil {
		return nil, fmt.Errorf("revenue stats: %w", err)
	}

	stats := &DashboardStats{
		Members:           *memberStats,
		SessionsThisMonth: sessionCounts,
		RevenueByPlan:     revenue,
		GeneratedAt:       now,
	}
	for _, plan := range revenue {
		stats.TotalRevenue += plan.Revenue
		stats.ActiveSubscribers += plan.Count
	}
	return stats, nil
}
