package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classmeet/classmeet-api/internal/dto"
	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
)

type classRepository interface {
	ListOwned(ctx context.Context, teacherID string) ([]models.Class, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Roster(ctx context.Context, classID string) ([]models.UserInfo, error)
	AddStudent(ctx context.Context, classID, studentID string) error
	EnrolledClassIDs(ctx context.Context, studentID string) ([]string, error)
	IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error)
}

type classSubjectLister interface {
	ListByClass(ctx context.Context, classID string) ([]models.Subject, error)
}

type classUserFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// ClassService manages classes and their rosters.
type ClassService struct {
	repo       classRepository
	subjects   classSubjectLister
	users      classUserFinder
	enrollment *EnrollmentService
	validate   *validator.Validate
	logger     *zap.Logger
	timeout    time.Duration
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, subjects classSubjectLister, users classUserFinder, enrollment *EnrollmentService, validate *validator.Validate, logger *zap.Logger, timeout time.Duration) *ClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, subjects: subjects, users: users, enrollment: enrollment, validate: validate, logger: logger, timeout: timeout}
}

// ListForTeacher returns the teacher's classes with rosters and
// subjects attached.
func (s *ClassService) ListForTeacher(ctx context.Context, scope models.ClassScope) ([]models.ClassDetail, error) {
	teacherID, ok := scope.OwnerTeacherID()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	classes, err := s.repo.ListOwned(qctx, teacherID)
	if err != nil {
		return nil, storageErr(err, "classes not found", "failed to list classes")
	}

	details := make([]models.ClassDetail, 0, len(classes))
	for _, class := range classes {
		detail, err := s.hydrate(qctx, class)
		if err != nil {
			return nil, err
		}
		details = append(details, *detail)
	}
	return details, nil
}

// ResolveForStudent returns the student's enrollment view: the single
// enrolled class, or the joinable catalog.
func (s *ClassService) ResolveForStudent(ctx context.Context, scope models.ClassScope) (*models.EnrollmentResult, error) {
	studentID, ok := scope.ViewerStudentID()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	return s.enrollment.Resolve(ctx, studentID)
}

// Get returns one class with roster and subjects. Teachers only see
// classes they own; students only the class they are enrolled in.
// Outside the caller's scope the class does not exist.
func (s *ClassService) Get(ctx context.Context, access models.AccessScope, classID string) (*models.ClassDetail, error) {
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var class *models.Class
	var err error
	switch {
	case access.Can(models.CapOwnClass):
		class, err = s.repo.FindOwned(qctx, classID, access.UserID)
	case access.Can(models.CapEnrolledIn):
		enrolled, enrollErr := s.repo.IsStudentEnrolled(qctx, classID, access.UserID)
		if enrollErr != nil {
			return nil, storageErr(enrollErr, "class not found", "failed to check enrollment")
		}
		if !enrolled {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		class, err = s.repo.FindByID(qctx, classID)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "")
	}
	if err != nil {
		return nil, storageErr(err, "class not found", "failed to load class")
	}
	return s.hydrate(qctx, *class)
}

// Create persists a new class owned by the teacher.
func (s *ClassService) Create(ctx context.Context, teacherID string, req dto.CreateClassRequest) (*models.Class, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	class := &models.Class{
		Name:        req.Name,
		Grade:       req.Grade,
		Section:     req.Section,
		Description: req.Description,
		TeacherID:   teacherID,
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.Create(qctx, class); err != nil {
		return nil, storageErr(err, "class not found", "failed to create class")
	}

	s.enrollment.InvalidateCatalog(ctx)
	s.logger.Info("class created", zap.String("class_id", class.ID), zap.String("teacher_id", teacherID))
	return class, nil
}

// AddStudent appends a student to the roster of a class the teacher
// owns. A student already on any roster is rejected: membership is
// single-class.
func (s *ClassService) AddStudent(ctx context.Context, teacherID, classID string, req dto.AddStudentRequest) error {
	if err := s.validate.Struct(req); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.repo.FindOwned(qctx, classID, teacherID); err != nil {
		return storageErr(err, "class not found", "failed to load class")
	}

	student, err := s.users.FindByID(qctx, req.StudentID)
	if err != nil {
		return storageErr(err, "student not found", "failed to load student")
	}
	if student.Role != models.RoleStudent {
		return appErrors.Clone(appErrors.ErrValidation, "user is not a student")
	}

	existing, err := s.repo.EnrolledClassIDs(qctx, req.StudentID)
	if err != nil {
		return storageErr(err, "enrollment not found", "failed to check enrollment")
	}
	if len(existing) > 0 {
		return appErrors.Clone(appErrors.ErrDuplicateEnrollment, "")
	}

	if err := s.repo.AddStudent(qctx, classID, req.StudentID); err != nil {
		return storageErr(err, "class not found", "failed to add student")
	}

	s.enrollment.InvalidateCatalog(ctx)
	s.logger.Info("student added to class",
		zap.String("class_id", classID), zap.String("student_id", req.StudentID))
	return nil
}

func (s *ClassService) hydrate(ctx context.Context, class models.Class) (*models.ClassDetail, error) {
	roster, err := s.repo.Roster(ctx, class.ID)
	if err != nil {
		return nil, storageErr(err, "roster not found", "failed to load roster")
	}
	subjects, err := s.subjects.ListByClass(ctx, class.ID)
	if err != nil {
		return nil, storageErr(err, "subjects not found", "failed to load subjects")
	}

	teacherName := ""
	if teacher, err := s.users.FindByID(ctx, class.TeacherID); err == nil {
		teacherName = teacher.Name
	}

	return &models.ClassDetail{
		Class:       class,
		TeacherName: teacherName,
		Students:    roster,
		Subjects:    subjects,
	}, nil
}
