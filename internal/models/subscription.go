package models

import "time"

type MembershipPlan struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Description         *string   `json:"description"`
	Price               float64   `json:"price"`
	DurationDays        int       `json:"duration_days"`
	MaxSessionsPerMonth *int      `json:"max_sessions_per_month"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusExpired   = "expired"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusFrozen    = "frozen"
)

var SubscriptionStatuses = []string{
	SubscriptionStatusActive,
	SubscriptionStatusExpired,
	SubscriptionStatusCancelled,
	SubscriptionStatusFrozen,
}

type Subscription struct {
	ID        int64     `json:"id"`
	MemberID  int64     `json:"member_id"`
	PlanID    int64     `json:"plan_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubscriptionDetail bundles a subscription with its plan for list views.
type SubscriptionDetail struct {
	Subscription
	Plan *MembershipPlan `json:"plan,omitempty"`
}

type PlanRevenue struct {
	PlanID   int64   `json:"plan_id"`
	PlanName string  `json:"plan_name"`
	Count    int     `json:"count"`
	Revenue  float64 `json:"revenue"`
}
