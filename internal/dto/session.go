package dto

import (
	"time"

	"github.com/classmeet/classmeet-api/internal/models"
)

// CreateSessionRequest is the payload for scheduling a live session.
// ScheduledEnd is optional and defaults to one hour after the start.
type CreateSessionRequest struct {
	Title          string     `json:"title" validate:"required,min=2,max=200"`
	Description    *string    `json:"description,omitempty" validate:"omitempty,max=1000"`
	ClassID        string     `json:"class_id" validate:"required,uuid4"`
	SubjectID      string     `json:"subject_id" validate:"required,uuid4"`
	ScheduledStart time.Time  `json:"scheduled_start" validate:"required"`
	ScheduledEnd   *time.Time `json:"scheduled_end,omitempty"`
}

// UpdateSessionStatusRequest moves a session through its lifecycle.
type UpdateSessionStatusRequest struct {
	Status models.SessionStatus `json:"status" validate:"required"`
}

// SessionQuery mirrors supported listing filters.
type SessionQuery struct {
	ClassID   string `form:"class_id"`
	SubjectID string `form:"subject_id"`
	Status    string `form:"status"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
	SortOrder string `form:"sort"`
}
