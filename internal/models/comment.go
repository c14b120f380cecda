package models

import "time"

const (
	CommentTypeNote      = "note"
	CommentTypeProgress  = "progress"
	CommentTypeIssue     = "issue"
	CommentTypeGoal      = "goal"
	CommentTypeEquipment = "equipment"
	CommentTypeFeedback  = "feedback"
	CommentTypeReminder  = "reminder"
)

var CommentTypes = []string{
	CommentTypeNote,
	CommentTypeProgress,
	CommentTypeIssue,
	CommentTypeGoal,
	CommentTypeEquipment,
	CommentTypeFeedback,
	CommentTypeReminder,
}

type SessionComment struct {
	ID          int64     `json:"id"`
	SessionID   int64     `json:"session_id"`
	AuthorID    int64     `json:"author_id"`
	CommentType string    `json:"comment_type"`
	Body        string    `json:"body"`
	IsPrivate   bool      `json:"is_private"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
