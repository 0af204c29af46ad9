package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classmeet/classmeet-api/internal/dto"
	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
)

type mockAttendanceRepo struct {
	details  []models.AttendanceDetail
	upserted []models.Attendance
	swept    []string
	failNext int
	stall    bool
}

func (m *mockAttendanceRepo) List(ctx context.Context, scope models.AttendanceScope, sessionID string) ([]models.AttendanceDetail, error) {
	return m.details, nil
}

func (m *mockAttendanceRepo) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	if m.failNext > 0 {
		m.failNext--
		return nil, context.DeadlineExceeded
	}
	if m.stall {
		// Simulate a write that hangs until its deadline expires.
		m.stall = false
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	saved := *record
	saved.ID = "att-1"
	m.upserted = append(m.upserted, saved)
	return &saved, nil
}

func (m *mockAttendanceRepo) MarkAbsentees(ctx context.Context, sessionID string) (int, error) {
	m.swept = append(m.swept, sessionID)
	return 3, nil
}

func newAttendanceService(repo *mockAttendanceRepo, sessions *mockSessionRepo, classes *mockSessionClasses) *AttendanceService {
	return NewAttendanceService(repo, sessions, classes, NewMetricsService(), validator.New(), zap.NewNop(), time.Second)
}

func TestAttendanceListFoldsSummary(t *testing.T) {
	repo := &mockAttendanceRepo{details: []models.AttendanceDetail{
		{Attendance: models.Attendance{Status: models.AttendancePresent, DurationMinutes: 50}},
		{Attendance: models.Attendance{Status: models.AttendanceAbsent, DurationMinutes: 0}},
		{Attendance: models.Attendance{Status: models.AttendanceLate, DurationMinutes: 40}},
	}}
	svc := newAttendanceService(repo, &mockSessionRepo{}, &mockSessionClasses{})

	report, err := svc.List(context.Background(), models.SelfAttendance("s1"), "")
	require.NoError(t, err)
	assert.Equal(t, 3, report.Stats.TotalSessions)
	assert.Equal(t, 1, report.Stats.Present)
	assert.Equal(t, 1, report.Stats.Absent)
	assert.Equal(t, 1, report.Stats.Late)
	assert.Equal(t, 30, report.Stats.AverageDuration)
}

func TestAttendanceMark(t *testing.T) {
	repo := &mockAttendanceRepo{}
	sessions := &mockSessionRepo{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", TeacherID: "t1", Status: models.SessionLive},
	}}
	classes := &mockSessionClasses{enrolled: map[string]string{"11111111-2222-4333-8444-555555555555": "c1"}}
	svc := newAttendanceService(repo, sessions, classes)

	req := dto.MarkAttendanceRequest{
		SessionID: "11111111-2222-4333-8444-000000000000",
		StudentID: "11111111-2222-4333-8444-555555555555",
		Status:    models.AttendanceLate,
	}
	sessions.sessions[req.SessionID] = models.Session{ID: req.SessionID, ClassID: "c1", TeacherID: "t1"}

	record, err := svc.Mark(context.Background(), "t1", req)
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceLate, record.Status)
	assert.False(t, record.AutoMarked)
}

func TestAttendanceMarkNonOwnerReadsAsAbsent(t *testing.T) {
	repo := &mockAttendanceRepo{}
	sessionID := "11111111-2222-4333-8444-000000000000"
	sessions := &mockSessionRepo{sessions: map[string]models.Session{
		sessionID: {ID: sessionID, ClassID: "c1", TeacherID: "t1"},
	}}
	svc := newAttendanceService(repo, sessions, &mockSessionClasses{})

	_, err := svc.Mark(context.Background(), "t2", dto.MarkAttendanceRequest{
		SessionID: sessionID,
		StudentID: "11111111-2222-4333-8444-555555555555",
		Status:    models.AttendancePresent,
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestAttendanceMarkRetriesTransientUpsert(t *testing.T) {
	repo := &mockAttendanceRepo{failNext: 1}
	sessionID := "11111111-2222-4333-8444-000000000000"
	studentID := "11111111-2222-4333-8444-555555555555"
	sessions := &mockSessionRepo{sessions: map[string]models.Session{
		sessionID: {ID: sessionID, ClassID: "c1", TeacherID: "t1"},
	}}
	classes := &mockSessionClasses{enrolled: map[string]string{studentID: "c1"}}
	svc := newAttendanceService(repo, sessions, classes)

	record, err := svc.Mark(context.Background(), "t1", dto.MarkAttendanceRequest{
		SessionID: sessionID,
		StudentID: studentID,
		Status:    models.AttendancePresent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.Len(t, repo.upserted, 1)
}

func TestAttendanceMarkRetryGetsFreshDeadline(t *testing.T) {
	repo := &mockAttendanceRepo{stall: true}
	sessionID := "11111111-2222-4333-8444-000000000000"
	studentID := "11111111-2222-4333-8444-555555555555"
	sessions := &mockSessionRepo{sessions: map[string]models.Session{
		sessionID: {ID: sessionID, ClassID: "c1", TeacherID: "t1"},
	}}
	classes := &mockSessionClasses{enrolled: map[string]string{studentID: "c1"}}
	svc := NewAttendanceService(repo, sessions, classes, NewMetricsService(), validator.New(), zap.NewNop(), 50*time.Millisecond)

	record, err := svc.Mark(context.Background(), "t1", dto.MarkAttendanceRequest{
		SessionID: sessionID,
		StudentID: studentID,
		Status:    models.AttendancePresent,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.Len(t, repo.upserted, 1)
}

func TestSweepAbsentees(t *testing.T) {
	repo := &mockAttendanceRepo{}
	svc := newAttendanceService(repo, &mockSessionRepo{}, &mockSessionClasses{})

	err := svc.SweepAbsentees(context.Background(), "sess1")
	require.NoError(t, err)
	assert.Equal(t, []string{"sess1"}, repo.swept)
}
