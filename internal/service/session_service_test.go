package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classmeet/classmeet-api/internal/dto"
	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
	"github.com/classmeet/classmeet-api/pkg/jobs"
)

type mockSessionRepo struct {
	sessions map[string]models.Session
	created  *models.Session
	updated  map[string]models.SessionStatus
}

func (m *mockSessionRepo) List(ctx context.Context, scope models.RecordScope, filter models.SessionFilter) ([]models.SessionDetail, int, error) {
	return nil, 0, nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	if s, ok := m.sessions[id]; ok {
		return &models.SessionDetail{Session: s}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = "new-session"
	}
	if m.sessions == nil {
		m.sessions = make(map[string]models.Session)
	}
	m.sessions[session.ID] = *session
	m.created = session
	return nil
}

func (m *mockSessionRepo) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	if m.updated == nil {
		m.updated = make(map[string]models.SessionStatus)
	}
	m.updated[id] = status
	if s, ok := m.sessions[id]; ok {
		s.Status = status
		m.sessions[id] = s
	}
	return nil
}

type mockSessionClasses struct {
	ownedBy  map[string]string
	enrolled map[string]string
}

func (m *mockSessionClasses) FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error) {
	if m.ownedBy[id] == teacherID {
		return &models.Class{ID: id, TeacherID: teacherID}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionClasses) IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	return m.enrolled[studentID] == classID, nil
}

type mockSubjectFinder struct {
	subjects map[string]models.Subject
}

func (m *mockSubjectFinder) FindByID(ctx context.Context, id string) (*models.Subject, error) {
	if s, ok := m.subjects[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockAttendanceWriter struct {
	records []models.Attendance
	fail    int
	stall   bool
}

func (m *mockAttendanceWriter) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	if m.fail > 0 {
		m.fail--
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
	m.records = append(m.records, saved)
	return &saved, nil
}

type mockSweeper struct {
	tasks []jobs.Task
}

func (m *mockSweeper) Submit(task jobs.Task) error {
	m.tasks = append(m.tasks, task)
	return nil
}

const (
	testClassID   = "aaaaaaaa-bbbb-4ccc-8ddd-000000000001"
	testSubjectID = "aaaaaaaa-bbbb-4ccc-8ddd-000000000002"
)

func newSessionService(repo *mockSessionRepo, classes *mockSessionClasses, attendance *mockAttendanceWriter, sweeper *mockSweeper) *SessionService {
	subjects := &mockSubjectFinder{subjects: map[string]models.Subject{
		testSubjectID: {ID: testSubjectID, ClassID: testClassID, TeacherID: "t1"},
	}}
	return NewSessionService(repo, classes, subjects, attendance, sweeper, NewMetricsService(), validator.New(), zap.NewNop(), time.Second)
}

func TestSessionCreateDefaultsEndToOneHour(t *testing.T) {
	repo := &mockSessionRepo{}
	classes := &mockSessionClasses{ownedBy: map[string]string{testClassID: "t1"}}
	svc := newSessionService(repo, classes, &mockAttendanceWriter{}, &mockSweeper{})

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	session, err := svc.Create(context.Background(), "t1", dto.CreateSessionRequest{
		Title:          "Algebra intro",
		ClassID:        testClassID,
		SubjectID:      testSubjectID,
		ScheduledStart: start,
	})
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), session.ScheduledEnd)
	assert.Equal(t, 60, session.DurationMinutes)
	assert.Equal(t, models.SessionScheduled, session.Status)
	assert.True(t, strings.HasPrefix(session.RoomID, "session-"), "room id %q", session.RoomID)
}

func TestSessionCreateRoundsDuration(t *testing.T) {
	repo := &mockSessionRepo{}
	classes := &mockSessionClasses{ownedBy: map[string]string{testClassID: "t1"}}
	svc := newSessionService(repo, classes, &mockAttendanceWriter{}, &mockSweeper{})

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(45*time.Minute + 40*time.Second)
	session, err := svc.Create(context.Background(), "t1", dto.CreateSessionRequest{
		Title:          "Short lesson",
		ClassID:        testClassID,
		SubjectID:      testSubjectID,
		ScheduledStart: start,
		ScheduledEnd:   &end,
	})
	require.NoError(t, err)
	assert.Equal(t, 46, session.DurationMinutes)
}

func TestSessionCreateUnownedClassReadsAsAbsent(t *testing.T) {
	repo := &mockSessionRepo{}
	classes := &mockSessionClasses{ownedBy: map[string]string{testClassID: "someone-else"}}
	svc := newSessionService(repo, classes, &mockAttendanceWriter{}, &mockSweeper{})

	_, err := svc.Create(context.Background(), "t1", dto.CreateSessionRequest{
		Title:          "Algebra intro",
		ClassID:        testClassID,
		SubjectID:      testSubjectID,
		ScheduledStart: time.Now().UTC(),
	})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSessionUpdateStatusTransitions(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", TeacherID: "t1", Status: models.SessionScheduled},
	}}
	classes := &mockSessionClasses{}
	sweeper := &mockSweeper{}
	svc := newSessionService(repo, classes, &mockAttendanceWriter{}, sweeper)

	session, err := svc.UpdateStatus(context.Background(), "t1", "sess1", dto.UpdateSessionStatusRequest{Status: models.SessionLive})
	require.NoError(t, err)
	assert.Equal(t, models.SessionLive, session.Status)

	// Going back to scheduled is not a legal move.
	_, err = svc.UpdateStatus(context.Background(), "t1", "sess1", dto.UpdateSessionStatusRequest{Status: models.SessionScheduled})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)

	session, err = svc.UpdateStatus(context.Background(), "t1", "sess1", dto.UpdateSessionStatusRequest{Status: models.SessionCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.SessionCompleted, session.Status)

	require.Len(t, sweeper.tasks, 1)
	assert.Equal(t, "attendance.sweep", sweeper.tasks[0].Kind)
	assert.Equal(t, "sess1", sweeper.tasks[0].Payload)

	_, err = svc.UpdateStatus(context.Background(), "t1", "sess1", dto.UpdateSessionStatusRequest{Status: models.SessionLive})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestSessionUpdateStatusNonOwnerReadsAsAbsent(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", TeacherID: "t1", Status: models.SessionScheduled},
	}}
	svc := newSessionService(repo, &mockSessionClasses{}, &mockAttendanceWriter{}, &mockSweeper{})

	_, err := svc.UpdateStatus(context.Background(), "t2", "sess1", dto.UpdateSessionStatusRequest{Status: models.SessionLive})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSessionJoinMarksPresentWithinGrace(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", TeacherID: "t1", Status: models.SessionLive, ScheduledStart: time.Now().UTC(), RoomID: "session-1-abc"},
	}}
	classes := &mockSessionClasses{enrolled: map[string]string{"s1": "c1"}}
	attendance := &mockAttendanceWriter{}
	svc := newSessionService(repo, classes, attendance, &mockSweeper{})

	detail, record, err := svc.Join(context.Background(), "s1", "sess1")
	require.NoError(t, err)
	assert.Equal(t, "session-1-abc", detail.RoomID)
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.True(t, record.AutoMarked)
	require.NotNil(t, record.JoinTime)
}

func TestSessionJoinMarksLateAfterGrace(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", TeacherID: "t1", Status: models.SessionLive, ScheduledStart: time.Now().UTC().Add(-30 * time.Minute)},
	}}
	classes := &mockSessionClasses{enrolled: map[string]string{"s1": "c1"}}
	attendance := &mockAttendanceWriter{}
	svc := newSessionService(repo, classes, attendance, &mockSweeper{})

	_, record, err := svc.Join(context.Background(), "s1", "sess1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceLate, record.Status)
}

func TestSessionJoinRequiresLiveSession(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", TeacherID: "t1", Status: models.SessionScheduled},
	}}
	classes := &mockSessionClasses{enrolled: map[string]string{"s1": "c1"}}
	svc := newSessionService(repo, classes, &mockAttendanceWriter{}, &mockSweeper{})

	_, _, err := svc.Join(context.Background(), "s1", "sess1")
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestSessionJoinUnenrolledReadsAsAbsent(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", TeacherID: "t1", Status: models.SessionLive},
	}}
	classes := &mockSessionClasses{}
	svc := newSessionService(repo, classes, &mockAttendanceWriter{}, &mockSweeper{})

	_, _, err := svc.Join(context.Background(), "s1", "sess1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestSessionJoinRetriesTransientUpsert(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", TeacherID: "t1", Status: models.SessionLive, ScheduledStart: time.Now().UTC()},
	}}
	classes := &mockSessionClasses{enrolled: map[string]string{"s1": "c1"}}
	attendance := &mockAttendanceWriter{fail: 1}
	svc := newSessionService(repo, classes, attendance, &mockSweeper{})

	_, record, err := svc.Join(context.Background(), "s1", "sess1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.Len(t, attendance.records, 1)
}

func TestSessionJoinRetryGetsFreshDeadline(t *testing.T) {
	repo := &mockSessionRepo{sessions: map[string]models.Session{
		"sess1": {ID: "sess1", ClassID: "c1", TeacherID: "t1", Status: models.SessionLive, ScheduledStart: time.Now().UTC()},
	}}
	classes := &mockSessionClasses{enrolled: map[string]string{"s1": "c1"}}
	attendance := &mockAttendanceWriter{stall: true}
	subjects := &mockSubjectFinder{}
	svc := NewSessionService(repo, classes, subjects, attendance, &mockSweeper{}, NewMetricsService(), validator.New(), zap.NewNop(), 50*time.Millisecond)

	_, record, err := svc.Join(context.Background(), "s1", "sess1")
	require.NoError(t, err)
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.Len(t, attendance.records, 1)
}
