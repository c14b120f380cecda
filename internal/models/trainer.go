package models

import "time"

type Trainer struct {
	ID              int64     `json:"id"`
	UserID          *int64    `json:"user_id"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	Email           string    `json:"email"`
	Phone           *string   `json:"phone"`
	Bio             *string   `json:"bio"`
	Specializations *[]string `json:"specializations"`
	Certifications  *[]string `json:"certifications"`
	HourlyRate      *float64  `json:"hourly_rate"`
	PhotoURL        *string   `json:"photo_url"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AvailabilityWindow is a recurring weekly range during which a trainer
// accepts bookings. DayOfWeek follows time.Weekday (0 = Sunday). Start and
// end are minutes since midnight, end exclusive.
type AvailabilityWindow struct {
	ID          int64 `json:"id"`
	TrainerID   int64 `json:"trainer_id"`
	DayOfWeek   int   `json:"day_of_week"`
	StartMinute int   `json:"start_minute"`
	EndMinute   int   `json:"end_minute"`
}
