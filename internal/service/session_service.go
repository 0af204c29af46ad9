package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classmeet/classmeet-api/internal/dto"
	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
	"github.com/classmeet/classmeet-api/pkg/jobs"
)

const (
	defaultSessionLength = time.Hour
	lateJoinThreshold    = 10 * time.Minute
	defaultPageSize      = 20
	maxPageSize          = 100
)

type sessionRepository interface {
	List(ctx context.Context, scope models.RecordScope, filter models.SessionFilter) ([]models.SessionDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error)
	Create(ctx context.Context, session *models.Session) error
	UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error
}

type sessionClassRepository interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
	IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error)
}

type sessionSubjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type attendanceWriter interface {
	Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
}

type taskSubmitter interface {
	Submit(task jobs.Task) error
}

// SessionService manages the live-session lifecycle.
type SessionService struct {
	repo       sessionRepository
	classes    sessionClassRepository
	subjects   sessionSubjectFinder
	attendance attendanceWriter
	sweeper    taskSubmitter
	metrics    *MetricsService
	validate   *validator.Validate
	logger     *zap.Logger
	timeout    time.Duration
}

// NewSessionService constructs a SessionService.
func NewSessionService(repo sessionRepository, classes sessionClassRepository, subjects sessionSubjectFinder, attendance attendanceWriter, sweeper taskSubmitter, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, timeout time.Duration) *SessionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{
		repo:       repo,
		classes:    classes,
		subjects:   subjects,
		attendance: attendance,
		sweeper:    sweeper,
		metrics:    metrics,
		validate:   validate,
		logger:     logger,
		timeout:    timeout,
	}
}

// List returns sessions visible inside the caller's scope.
func (s *SessionService) List(ctx context.Context, scope models.RecordScope, query dto.SessionQuery) ([]models.SessionDetail, *models.Pagination, error) {
	filter := models.SessionFilter{
		ClassID:   query.ClassID,
		SubjectID: query.SubjectID,
		Page:      query.Page,
		PageSize:  query.PageSize,
		SortOrder: query.SortOrder,
	}
	if query.Status != "" {
		status := models.SessionStatus(query.Status)
		if !status.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", query.Status))
		}
		filter.Status = &status
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = defaultPageSize
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	sessions, total, err := s.repo.List(qctx, scope, filter)
	if err != nil {
		return nil, nil, storageErr(err, "sessions not found", "failed to list sessions")
	}

	pagination := &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	}
	return sessions, pagination, nil
}

// Get returns one session when it falls inside the caller's scope.
func (s *SessionService) Get(ctx context.Context, scope models.RecordScope, sessionID string) (*models.SessionDetail, error) {
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	detail, err := s.repo.FindDetailByID(qctx, sessionID)
	if err != nil {
		return nil, storageErr(err, "session not found", "failed to load session")
	}
	if !recordVisible(scope, detail.TeacherID, detail.ClassID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	return detail, nil
}

// Create schedules a session for a class and subject the teacher owns.
// A missing end time defaults to one hour after the start.
func (s *SessionService) Create(ctx context.Context, teacherID string, req dto.CreateSessionRequest) (*models.Session, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.classes.FindOwned(qctx, req.ClassID, teacherID); err != nil {
		return nil, storageErr(err, "class not found", "failed to load class")
	}
	subject, err := s.subjects.FindByID(qctx, req.SubjectID)
	if err != nil {
		return nil, storageErr(err, "subject not found", "failed to load subject")
	}
	if subject.ClassID != req.ClassID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject does not belong to class")
	}

	start := req.ScheduledStart.UTC()
	end := start.Add(defaultSessionLength)
	if req.ScheduledEnd != nil {
		end = req.ScheduledEnd.UTC()
	}
	if !end.After(start) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scheduled end must be after start")
	}

	session := &models.Session{
		Title:           req.Title,
		Description:     req.Description,
		ClassID:         req.ClassID,
		SubjectID:       req.SubjectID,
		TeacherID:       teacherID,
		ScheduledStart:  start,
		ScheduledEnd:    end,
		DurationMinutes: int(math.Round(end.Sub(start).Minutes())),
		RoomID:          newRoomID(),
		Status:          models.SessionScheduled,
	}
	if err := s.repo.Create(qctx, session); err != nil {
		return nil, storageErr(err, "session not found", "failed to create session")
	}

	s.logger.Info("session scheduled",
		zap.String("session_id", session.ID),
		zap.String("class_id", session.ClassID),
		zap.Time("scheduled_start", session.ScheduledStart))
	return session, nil
}

// UpdateStatus moves a session through its lifecycle. Only the owning
// teacher may transition; completed and cancelled are terminal. When a
// session completes, enrolled students without a record are marked
// absent in the background.
func (s *SessionService) UpdateStatus(ctx context.Context, teacherID, sessionID string, req dto.UpdateSessionStatusRequest) (*models.Session, error) {
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", req.Status))
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.repo.FindByID(qctx, sessionID)
	if err != nil {
		return nil, storageErr(err, "session not found", "failed to load session")
	}
	if session.TeacherID != teacherID {
		// Sessions outside the caller's scope read as absent.
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	if !session.Status.CanTransitionTo(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			fmt.Sprintf("cannot transition from %s to %s", session.Status, req.Status))
	}

	if err := s.repo.UpdateStatus(qctx, sessionID, req.Status); err != nil {
		return nil, storageErr(err, "session not found", "failed to update session status")
	}

	previous := session.Status
	session.Status = req.Status
	session.UpdatedAt = time.Now().UTC()

	if req.Status == models.SessionLive {
		s.metrics.SessionWentLive()
	}
	if previous == models.SessionLive {
		s.metrics.SessionLeftLive()
	}
	if req.Status == models.SessionCompleted && s.sweeper != nil {
		task := jobs.Task{ID: uuid.NewString(), Kind: "attendance.sweep", Payload: sessionID}
		if err := s.sweeper.Submit(task); err != nil {
			s.logger.Error("failed to enqueue absent sweep",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}

	s.logger.Info("session status changed",
		zap.String("session_id", sessionID),
		zap.String("from", string(previous)), zap.String("to", string(req.Status)))
	return session, nil
}

// Join records a student entering a live session and returns the room
// identifier. Attendance is marked present, or late past the grace
// window; re-joining updates the existing record.
func (s *SessionService) Join(ctx context.Context, studentID, sessionID string) (*models.SessionDetail, *models.Attendance, error) {
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	detail, err := s.repo.FindDetailByID(qctx, sessionID)
	if err != nil {
		return nil, nil, storageErr(err, "session not found", "failed to load session")
	}

	enrolled, err := s.classes.IsStudentEnrolled(qctx, detail.ClassID, studentID)
	if err != nil {
		return nil, nil, storageErr(err, "session not found", "failed to check enrollment")
	}
	if !enrolled {
		return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}
	if detail.Status != models.SessionLive {
		return nil, nil, appErrors.Clone(appErrors.ErrInvalidTransition, "session is not live")
	}

	now := time.Now().UTC()
	status := models.AttendancePresent
	if now.After(detail.ScheduledStart.Add(lateJoinThreshold)) {
		status = models.AttendanceLate
	}

	record := &models.Attendance{
		SessionID:  sessionID,
		StudentID:  studentID,
		Status:     status,
		JoinTime:   &now,
		AutoMarked: true,
	}
	started := time.Now()
	saved, err := s.attendance.Upsert(qctx, record)
	s.metrics.ObserveDBQuery("attendance_upsert", time.Since(started))
	if err != nil && transient(err) {
		// The upsert is idempotent, retry once on a transient fault
		// under a fresh deadline.
		rctx, rcancel := withTimeout(ctx, s.timeout)
		saved, err = s.attendance.Upsert(rctx, record)
		rcancel()
	}
	if err != nil {
		return nil, nil, storageErr(err, "session not found", "failed to record join")
	}

	s.metrics.RecordAttendanceMark(string(saved.Status))
	s.logger.Info("student joined session",
		zap.String("session_id", sessionID),
		zap.String("student_id", studentID),
		zap.String("status", string(saved.Status)))
	return detail, saved, nil
}

// recordVisible applies the scope restrictions to one loaded record.
func recordVisible(scope models.RecordScope, teacherID, classID string) bool {
	if scope.IsDenied() {
		return false
	}
	if owner, ok := scope.OwnerTeacherID(); ok && owner != teacherID {
		return false
	}
	if bound, ok := scope.BoundClassID(); ok && bound != classID {
		return false
	}
	return true
}

func newRoomID() string {
	suffix := strings.SplitN(uuid.NewString(), "-", 2)[0]
	return fmt.Sprintf("session-%d-%s", time.Now().UnixMilli(), suffix)
}
