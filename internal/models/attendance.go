package models

import (
	"math"
	"time"
)

// AttendanceStatus partitions attendance records.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// Valid reports whether the status is one of the known statuses.
func (s AttendanceStatus) Valid() bool {
	return s == AttendancePresent || s == AttendanceAbsent || s == AttendanceLate
}

// Attendance links one student to one session. The (session, student)
// pair is unique; re-marking updates the existing record.
type Attendance struct {
	ID              string           `db:"id" json:"id"`
	SessionID       string           `db:"session_id" json:"session_id"`
	StudentID       string           `db:"student_id" json:"student_id"`
	Status          AttendanceStatus `db:"status" json:"status"`
	JoinTime        *time.Time       `db:"join_time" json:"join_time,omitempty"`
	DurationMinutes int              `db:"duration_minutes" json:"duration_minutes"`
	AutoMarked      bool             `db:"auto_marked" json:"auto_marked"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time        `db:"updated_at" json:"updated_at"`
}

// AttendanceDetail joins session and student display fields.
type AttendanceDetail struct {
	Attendance
	SessionTitle   string    `db:"session_title" json:"session_title"`
	ScheduledStart time.Time `db:"scheduled_start" json:"scheduled_start"`
	StudentName    string    `db:"student_name" json:"student_name"`
	StudentEmail   string    `db:"student_email" json:"student_email"`
}

// AttendanceStats summarises a set of attendance records.
type AttendanceStats struct {
	TotalSessions   int `json:"total_sessions"`
	Present         int `json:"present"`
	Absent          int `json:"absent"`
	Late            int `json:"late"`
	AverageDuration int `json:"average_duration"`
}

// SummarizeAttendance folds records into summary counts. The fold is
// order-independent; an empty input yields the zero value.
func SummarizeAttendance(records []AttendanceDetail) AttendanceStats {
	stats := AttendanceStats{TotalSessions: len(records)}
	if len(records) == 0 {
		return stats
	}
	total := 0
	for _, rec := range records {
		switch rec.Status {
		case AttendancePresent:
			stats.Present++
		case AttendanceAbsent:
			stats.Absent++
		case AttendanceLate:
			stats.Late++
		}
		total += rec.DurationMinutes
	}
	stats.AverageDuration = int(math.Round(float64(total) / float64(len(records))))
	return stats
}
