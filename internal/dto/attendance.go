package dto

import "github.com/classmeet/classmeet-api/internal/models"

// MarkAttendanceRequest is the teacher-side payload for recording or
// correcting a student's attendance in a session.
type MarkAttendanceRequest struct {
	SessionID       string                  `json:"session_id" validate:"required,uuid4"`
	StudentID       string                  `json:"student_id" validate:"required,uuid4"`
	Status          models.AttendanceStatus `json:"status" validate:"required"`
	DurationMinutes int                     `json:"duration_minutes" validate:"min=0"`
}

// AttendanceQuery mirrors supported listing filters. The student filter
// only applies to teacher callers; students are always pinned to their
// own records.
type AttendanceQuery struct {
	SessionID string `form:"session_id"`
	StudentID string `form:"student_id"`
}

// ReportQuery selects the export format for the attendance report.
type ReportQuery struct {
	SessionID string `form:"session_id"`
	StudentID string `form:"student_id"`
	Format    string `form:"format"`
}
