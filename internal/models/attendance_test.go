package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarizeAttendanceEmpty(t *testing.T) {
	stats := SummarizeAttendance(nil)
	assert.Equal(t, AttendanceStats{}, stats)
}

func TestSummarizeAttendancePartitionsAndRounds(t *testing.T) {
	records := []AttendanceDetail{
		{Attendance: Attendance{Status: AttendancePresent, DurationMinutes: 50}},
		{Attendance: Attendance{Status: AttendanceLate, DurationMinutes: 30}},
	}
	stats := SummarizeAttendance(records)
	assert.Equal(t, 2, stats.TotalSessions)
	assert.Equal(t, 1, stats.Present)
	assert.Equal(t, 0, stats.Absent)
	assert.Equal(t, 1, stats.Late)
	assert.Equal(t, 40, stats.AverageDuration)
}

func TestSummarizeAttendancePartitionIsExact(t *testing.T) {
	records := []AttendanceDetail{
		{Attendance: Attendance{Status: AttendancePresent, DurationMinutes: 45}},
		{Attendance: Attendance{Status: AttendanceAbsent}},
		{Attendance: Attendance{Status: AttendanceAbsent}},
		{Attendance: Attendance{Status: AttendanceLate, DurationMinutes: 10}},
		{Attendance: Attendance{Status: AttendancePresent, DurationMinutes: 60}},
	}
	stats := SummarizeAttendance(records)
	assert.Equal(t, len(records), stats.Present+stats.Absent+stats.Late)
	// 115/5 = 23
	assert.Equal(t, 23, stats.AverageDuration)
}

func TestSummarizeAttendanceRoundsHalfUp(t *testing.T) {
	records := []AttendanceDetail{
		{Attendance: Attendance{Status: AttendancePresent, DurationMinutes: 30}},
		{Attendance: Attendance{Status: AttendancePresent, DurationMinutes: 31}},
	}
	stats := SummarizeAttendance(records)
	assert.Equal(t, 31, stats.AverageDuration)
}

func TestSessionStatusTransitions(t *testing.T) {
	assert.True(t, SessionScheduled.CanTransitionTo(SessionLive))
	assert.True(t, SessionScheduled.CanTransitionTo(SessionCancelled))
	assert.True(t, SessionLive.CanTransitionTo(SessionCompleted))
	assert.True(t, SessionLive.CanTransitionTo(SessionCancelled))

	assert.False(t, SessionScheduled.CanTransitionTo(SessionCompleted))
	assert.False(t, SessionCompleted.CanTransitionTo(SessionLive))
	assert.False(t, SessionCancelled.CanTransitionTo(SessionScheduled))
	assert.False(t, SessionCompleted.CanTransitionTo(SessionCancelled))
}

func TestAccessScopeCapabilities(t *testing.T) {
	teacher := NewAccessScope(&JWTClaims{UserID: "t-1", Role: RoleTeacher})
	assert.True(t, teacher.Can(CapOwnClass))
	assert.True(t, teacher.Can(CapOwnSession))
	assert.False(t, teacher.Can(CapOwnRecord))

	student := NewAccessScope(&JWTClaims{UserID: "s-1", Role: RoleStudent})
	assert.True(t, student.Can(CapOwnRecord))
	assert.True(t, student.Can(CapEnrolledIn))
	assert.False(t, student.Can(CapOwnClass))
}
