package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
)

type enrollmentResolver interface {
	EnrolledClassID(ctx context.Context, studentID string) (string, error)
}

// ScopeService turns a request's resolved identity into query scopes.
// Every list and lookup in the record services goes through here, so an
// unrecognized role or an unenrolled student always narrows to nothing
// instead of to everything.
type ScopeService struct {
	enrollment enrollmentResolver
	logger     *zap.Logger
}

// NewScopeService constructs a ScopeService.
func NewScopeService(enrollment enrollmentResolver, logger *zap.Logger) *ScopeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScopeService{enrollment: enrollment, logger: logger}
}

// ForClasses builds the class-query scope for the caller.
func (s *ScopeService) ForClasses(access models.AccessScope) (models.ClassScope, error) {
	switch {
	case access.Can(models.CapOwnClass):
		return models.OwnedClasses(access.UserID), nil
	case access.Can(models.CapEnrolledIn):
		return models.EnrolledClasses(access.UserID), nil
	default:
		s.logger.Warn("class scope denied", zap.String("user_id", access.UserID), zap.String("role", string(access.Role)))
		return models.ClassScope{}, appErrors.Clone(appErrors.ErrForbidden, "")
	}
}

// ForRecords builds the scope for subjects, sessions and materials. A
// teacher sees records they own; a student sees records of the class
// they are enrolled in, or nothing when unenrolled.
func (s *ScopeService) ForRecords(ctx context.Context, access models.AccessScope) (models.RecordScope, error) {
	switch {
	case access.Can(models.CapOwnSession):
		return models.TeacherRecords(access.UserID), nil
	case access.Can(models.CapEnrolledIn):
		classID, err := s.enrollment.EnrolledClassID(ctx, access.UserID)
		if err != nil {
			return models.RecordScope{}, err
		}
		if classID == "" {
			return models.NoRecords(), nil
		}
		return models.ClassRecords(classID), nil
	default:
		s.logger.Warn("record scope denied", zap.String("user_id", access.UserID), zap.String("role", string(access.Role)))
		return models.RecordScope{}, appErrors.Clone(appErrors.ErrForbidden, "")
	}
}

// ForAttendance builds the attendance-query scope. A student is always
// pinned to their own records regardless of any requested filter; a
// teacher is pinned to sessions they own and may narrow to one student.
func (s *ScopeService) ForAttendance(access models.AccessScope, requestedStudentID string) (models.AttendanceScope, error) {
	switch {
	case access.Can(models.CapOwnRecord):
		return models.SelfAttendance(access.UserID), nil
	case access.Can(models.CapOwnSession):
		return models.TeacherAttendance(access.UserID, requestedStudentID), nil
	default:
		s.logger.Warn("attendance scope denied", zap.String("user_id", access.UserID), zap.String("role", string(access.Role)))
		return models.AttendanceScope{}, appErrors.Clone(appErrors.ErrForbidden, "")
	}
}
