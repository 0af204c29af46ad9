package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classmeet/classmeet-api/internal/dto"
	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
)

type attendanceRepository interface {
	List(ctx context.Context, scope models.AttendanceScope, sessionID string) ([]models.AttendanceDetail, error)
	Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error)
	MarkAbsentees(ctx context.Context, sessionID string) (int, error)
}

type attendanceSessionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
}

type attendanceEnrollmentChecker interface {
	IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error)
}

// AttendanceReport bundles the records with their summary.
type AttendanceReport struct {
	Records []models.AttendanceDetail `json:"records"`
	Stats   models.AttendanceStats    `json:"stats"`
}

// AttendanceService manages attendance records and their summaries.
type AttendanceService struct {
	repo     attendanceRepository
	sessions attendanceSessionFinder
	classes  attendanceEnrollmentChecker
	metrics  *MetricsService
	validate *validator.Validate
	logger   *zap.Logger
	timeout  time.Duration
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, sessions attendanceSessionFinder, classes attendanceEnrollmentChecker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, timeout time.Duration) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		repo:     repo,
		sessions: sessions,
		classes:  classes,
		metrics:  metrics,
		validate: validate,
		logger:   logger,
		timeout:  timeout,
	}
}

// List returns attendance records inside the caller's scope together
// with the folded summary.
func (s *AttendanceService) List(ctx context.Context, scope models.AttendanceScope, sessionID string) (*AttendanceReport, error) {
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	records, err := s.repo.List(qctx, scope, sessionID)
	if err != nil {
		return nil, storageErr(err, "attendance not found", "failed to list attendance")
	}
	return &AttendanceReport{
		Records: records,
		Stats:   models.SummarizeAttendance(records),
	}, nil
}

// Mark records or corrects a student's attendance in a session the
// teacher owns. Re-marking the same pair updates the record in place.
func (s *AttendanceService) Mark(ctx context.Context, teacherID string, req dto.MarkAttendanceRequest) (*models.Attendance, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", req.Status))
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	session, err := s.sessions.FindByID(qctx, req.SessionID)
	if err != nil {
		return nil, storageErr(err, "session not found", "failed to load session")
	}
	if session.TeacherID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
	}

	enrolled, err := s.classes.IsStudentEnrolled(qctx, session.ClassID, req.StudentID)
	if err != nil {
		return nil, storageErr(err, "student not found", "failed to check enrollment")
	}
	if !enrolled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student is not enrolled in the session's class")
	}

	record := &models.Attendance{
		SessionID:       req.SessionID,
		StudentID:       req.StudentID,
		Status:          req.Status,
		DurationMinutes: req.DurationMinutes,
		AutoMarked:      false,
	}
	started := time.Now()
	saved, err := s.repo.Upsert(qctx, record)
	s.metrics.ObserveDBQuery("attendance_upsert", time.Since(started))
	if err != nil && transient(err) {
		// The upsert is idempotent, retry once on a transient fault
		// under a fresh deadline.
		rctx, rcancel := withTimeout(ctx, s.timeout)
		saved, err = s.repo.Upsert(rctx, record)
		rcancel()
	}
	if err != nil {
		return nil, storageErr(err, "attendance not found", "failed to record attendance")
	}

	s.metrics.RecordAttendanceMark(string(saved.Status))
	s.logger.Info("attendance marked",
		zap.String("session_id", req.SessionID),
		zap.String("student_id", req.StudentID),
		zap.String("status", string(saved.Status)))
	return saved, nil
}

// SweepAbsentees inserts absent records for every enrolled student
// without one. Runs in the background after a session completes;
// re-running is a no-op for already covered students.
func (s *AttendanceService) SweepAbsentees(ctx context.Context, sessionID string) error {
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	marked, err := s.repo.MarkAbsentees(qctx, sessionID)
	s.metrics.ObserveDBQuery("attendance_sweep", time.Since(started))
	if err != nil {
		return storageErr(err, "session not found", "failed to sweep absentees")
	}
	for i := 0; i < marked; i++ {
		s.metrics.RecordAttendanceMark(string(models.AttendanceAbsent))
	}
	s.logger.Info("absent sweep finished",
		zap.String("session_id", sessionID), zap.Int("marked", marked))
	return nil
}
