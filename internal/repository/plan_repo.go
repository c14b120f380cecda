package repository

import (
	"context"

	"github.com/openfit/studioback/internal/models"
)

type CreatePlanInput struct {
	Name                string
	Description         *string
	Price               float64
	DurationDays        int
	MaxSessionsPerMonth *int
}

type UpdatePlanInput struct {
	Name                *string
	Description         *string
	Price               *float64
	DurationDays        *int
	MaxSessionsPerMonth *int
	IsActive            *bool
}

type PlanRepository struct {
	db DBTX
}

func NewPlanRepository(db DBTX) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, input CreatePlanInput) (*models.MembershipPlan, error) {
	query := `
		INSERT INTO membership_plans (name, description, price, duration_days, max_sessions_per_month)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, description, price, duration_days, max_sessions_per_month, is_active, created_at, updated_at
	`

	return r.scanOne(r.db.QueryRow(ctx, query,
		input.Name,
		input.Description,
		input.Price,
		input.DurationDays,
		input.MaxSessionsPerMonth,
	))
}

func (r *PlanRepository) GetByID(ctx context.Context, planID int64) (*models.MembershipPlan, error) {
	query := `
		SELECT id, name, description, price, duration_days, max_sessions_per_month, is_active, created_at, updated_at
		FROM membership_plans
		WHERE id = $1
	`
	return r.scanOne(r.db.QueryRow(ctx, query, planID))
}

func (r *PlanRepository) ListAll(ctx context.Context, activeOnly bool) ([]models.MembershipPlan, error) {
	query := `
		SELECT id, name, description, price, duration_days, max_sessions_per_month, is_active, created_at, updated_at
		FROM membership_plans
		WHERE ($1 = FALSE OR is_active)
		ORDER BY price ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := make([]models.MembershipPlan, 0)
	for rows.Next() {
		plan, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, *plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return plans, nil
}

func (r *PlanRepository) UpdatePartial(ctx context.Context, planID int64, input UpdatePlanInput) (*models.MembershipPlan, error) {
	query := `
		UPDATE membership_plans
		SET name = COALESCE($1, name),
			description = COALESCE($2, description),
			price = COALESCE($3, price),
			duration_days = COALESCE($4, duration_days),
			max_sessions_per_month = COALESCE($5, max_sessions_per_month),
			is_active = COALESCE($6, is_active),
			updated_at = NOW()
		WHERE id = $7
		RETURNING id, name, description, price, duration_days, max_sessions_per_month, is_active, created_at, updated_at
	`

	return r.scanOne(r.db.QueryRow(ctx, query,
		input.Name,
		input.Description,
		input.Price,
		input.DurationDays,
		input.MaxSessionsPerMonth,
		input.IsActive,
		planID,
	))
}

func (r *PlanRepository) Delete(ctx context.Context, planID int64) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM membership_plans WHERE id = $1`, planID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PlanRepository) scanOne(row rowScanner) (*models.MembershipPlan, error) {
	var plan models.MembershipPlan
	err := row.Scan(
		&plan.ID,
		&plan.Name,
		&plan.Description,
		&plan.Price,
		&plan.DurationDays,
		&plan.MaxSessionsPerMonth,
		&plan.IsActive,
		&plan.CreatedAt,
		&plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &plan, nil
}
