package models

import "time"

// SessionStatus is the lifecycle state of a live session.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionLive      SessionStatus = "live"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

// Valid reports whether the status is one of the known states.
func (s SessionStatus) Valid() bool {
	switch s {
	case SessionScheduled, SessionLive, SessionCompleted, SessionCancelled:
		return true
	}
	return false
}

// CanTransitionTo encodes the session state machine. Completed and
// cancelled are terminal.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	switch s {
	case SessionScheduled:
		return next == SessionLive || next == SessionCancelled
	case SessionLive:
		return next == SessionCompleted || next == SessionCancelled
	}
	return false
}

// Session is a scheduled live lesson for one class and subject.
type Session struct {
	ID              string        `db:"id" json:"id"`
	Title           string        `db:"title" json:"title"`
	Description     *string       `db:"description" json:"description,omitempty"`
	ClassID         string        `db:"class_id" json:"class_id"`
	SubjectID       string        `db:"subject_id" json:"subject_id"`
	TeacherID       string        `db:"teacher_id" json:"teacher_id"`
	ScheduledStart  time.Time     `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd    time.Time     `db:"scheduled_end" json:"scheduled_end"`
	DurationMinutes int           `db:"duration_minutes" json:"duration_minutes"`
	RoomID          string        `db:"room_id" json:"room_id"`
	Status          SessionStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionDetail joins class and subject names for list views.
type SessionDetail struct {
	Session
	ClassName    string `db:"class_name" json:"class_name"`
	SubjectName  string `db:"subject_name" json:"subject_name"`
	SubjectColor string `db:"subject_color" json:"subject_color"`
	TeacherName  string `db:"teacher_name" json:"teacher_name"`
}

// SessionFilter captures optional list filters before scoping.
type SessionFilter struct {
	ClassID   string
	SubjectID string
	Status    *SessionStatus
	Page      int
	PageSize  int
	SortOrder string
}
