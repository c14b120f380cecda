package models

import "time"

const (
	MemberStatusActive   = "active"
	MemberStatusFrozen   = "frozen"
	MemberStatusInactive = "inactive"
)

var MemberStatuses = []string{
	MemberStatusActive,
	MemberStatusFrozen,
	MemberStatusInactive,
}

type Member struct {
	ID                    int64      `json:"id"`
	UserID                *int64     `json:"user_id"`
	MemberCode            string     `json:"member_code"`
	FirstName             string     `json:"first_name"`
	LastName              string     `json:"last_name"`
	Email                 string     `json:"email"`
	Phone                 *string    `json:"phone"`
	DateOfBirth           *time.Time `json:"date_of_birth"`
	Gender                *string    `json:"gender"`
	EmergencyContactName  *string    `json:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone"`
	MedicalNotes          *string    `json:"medical_notes"`
	PhotoURL              *string    `json:"photo_url"`
	Status                string     `json:"status"`
	JoinedAt              time.Time  `json:"joined_at"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
}

type MemberStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Frozen   int `json:"frozen"`
	Inactive int `json:"inactive"`
}
