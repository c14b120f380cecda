package models

import "time"

const (
	SessionStatusScheduled   = "scheduled"
	SessionStatusConfirmed   = "confirmed"
	SessionStatusInProgress  = "in_progress"
	SessionStatusCompleted   = "completed"
	SessionStatusCancelled   = "cancelled"
	SessionStatusNoShow      = "no_show"
	SessionStatusRescheduled = "rescheduled"
)

var SessionStatuses = []string{
	SessionStatusScheduled,
	SessionStatusConfirmed,
	SessionStatusInProgress,
	SessionStatusCompleted,
	SessionStatusCancelled,
	SessionStatusNoShow,
	SessionStatusRescheduled,
}

const (
	SessionTypePersonal       = "personal"
	SessionTypeGroup          = "group"
	SessionTypeClass          = "class"
	SessionTypeAssessment     = "assessment"
	SessionTypeConsultation   = "consultation"
	SessionTypeRehabilitation = "rehabilitation"
)

var SessionTypes = []string{
	SessionTypePersonal,
	SessionTypeGroup,
	SessionTypeClass,
	SessionTypeAssessment,
	SessionTypeConsultation,
	SessionTypeRehabilitation,
}

const (
	MinSessionDurationMinutes = 15
	MaxSessionDurationMinutes = 480
)

type TrainingSession struct {
	ID                int64      `json:"id"`
	MemberID          int64      `json:"member_id"`
	TrainerID         int64      `json:"trainer_id"`
	SessionType       string     `json:"session_type"`
	Title             string     `json:"title"`
	Description       *string    `json:"description"`
	ScheduledAt       time.Time  `json:"scheduled_at"`
	DurationMinutes   int        `json:"duration_minutes"`
	Status            string     `json:"status"`
	Cost              *float64   `json:"cost"`
	SessionRoom       *string    `json:"session_room"`
	EquipmentNeeded   *[]string  `json:"equipment_needed"`
	SessionGoals      *string    `json:"session_goals"`
	PreparationNotes  *string    `json:"preparation_notes"`
	ActualStartTime   *time.Time `json:"actual_start_time"`
	ActualEndTime     *time.Time `json:"actual_end_time"`
	CompletionSummary *string    `json:"completion_summary"`
	MemberRating      *int       `json:"member_rating"`
	TrainerRating     *int       `json:"trainer_rating"`
	CreatedBy         *int64     `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// EndsAt is the end of the occupied interval, exclusive.
func (s *TrainingSession) EndsAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

const (
	ConflictTrainerUnavailable = "trainer_unavailable"
	ConflictTrainerBooked      = "trainer_booked"
	ConflictMemberBooked       = "member_booked"
	ConflictRoomOccupied       = "room_occupied"
)

type SessionConflict struct {
	Type    string         `json:"type"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ConflictCheckResult distinguishes a verified-clear slot from one the
// checker could not fully verify because a lookup failed.
type ConflictCheckResult struct {
	Conflicts []SessionConflict `json:"conflicts"`
	Verified  bool              `json:"verified"`
}

func (r *ConflictCheckResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}
