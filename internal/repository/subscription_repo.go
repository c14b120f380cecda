package repository

import (
	"context"
	"time"

	"github.com/openfit/studioback/internal/models"
)

type CreateSubscriptionInput struct {
	MemberID  int64
	PlanID    int64
	StartDate time.Time
	EndDate   time.Time
}

type SubscriptionRepository struct {
	db DBTX
}

func NewSubscriptionRepository(db DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, input CreateSubscriptionInput) (*models.Subscription, error) {
	query := `
		INSERT INTO subscriptions (member_id, plan_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, 'active')
		RETURNING id, member_id, plan_id, start_date, end_date, status, created_at, updated_at
	`
	return r.scanOne(r.db.QueryRow(ctx, query, input.MemberID, input.PlanID, input.StartDate, input.EndDate))
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, subscriptionID int64) (*models.Subscription, error) {
	query := `
		SELECT id, member_id, plan_id, start_date, end_date, status, created_at, updated_at
		FROM subscriptions
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, subscriptionID))
}

func (r *SubscriptionRepository) GetActiveForMember(ctx context.Context, memberID int64) (*models.Subscription, error) {
	query := `
		SELECT id, member_id, plan_id, start_date, end_date, status, created_at, updated_at
		FROM subscriptions
		WHERE member_id = $1 AND status = 'active'
		ORDER BY end_date DESC, id DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, memberID))
}

func (r *SubscriptionRepository) ListByMember(ctx context.Context, memberID int64) ([]models.Subscription, error) {
	query := `
		SELECT id, member_id, plan_id, start_date, end_date, status, created_at, updated_at
		FROM subscriptions
		WHERE member_id = $1
		ORDER BY start_date DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, memberID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subscriptions := make([]models.Subscription, 0)
	for rows.Next() {
		subscription, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		subscriptions = append(subscriptions, *subscription)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subscriptions, nil
}

func (r *SubscriptionRepository) UpdateStatusIfCurrent(
	ctx context.Context,
	subscriptionID int64,
	currentStatus string,
	nextStatus string,
) (*models.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING id, member_id, plan_id, start_date, end_date, status, created_at, updated_at
	`
	return r.scanOne(r.db.QueryRow(ctx, query, subscriptionID, currentStatus, nextStatus))
}

// RevenueByPlan aggregates subscription counts and revenue per plan for the
// dashboard.
func (r *SubscriptionRepository) RevenueByPlan(ctx context.Context) ([]models.PlanRevenue, error) {
	query := `
		SELECT p.id, p.name, COUNT(s.id),
			COALESCE(SUM(p.price) FILTER (WHERE s.id IS NOT NULL), 0)
		FROM membership_plans p
		LEFT JOIN subscriptions s ON s.plan_id = p.id AND s.status <> 'cancelled'
		GROUP BY p.id, p.name
		ORDER BY p.id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	revenues := make([]models.PlanRevenue, 0)
	for rows.Next() {
		var revenue models.PlanRevenue
		if err := rows.Scan(&revenue.PlanID, &revenue.PlanName, &revenue.Count, &revenue.Revenue); err != nil {
			return nil, err
		}
		revenues = append(revenues, revenue)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return revenues, nil
}

func (r *SubscriptionRepository) scanOne(row rowScanner) (*models.Subscription, error) {
	var subscription models.Subscription
	err := row.Scan(
		&subscription.ID,
		&subscription.MemberID,
		&subscription.PlanID,
		&subscription.StartDate,
		&subscription.EndDate,
		&subscription.Status,
		&subscription.CreatedAt,
		&subscription.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &subscription, nil
}
