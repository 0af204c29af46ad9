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

type subjectRepository interface {
	List(ctx context.Context, scope models.RecordScope, classID string) ([]models.SubjectDetail, error)
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

type subjectClassFinder interface {
	FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error)
}

// SubjectService manages subjects under classes.
type SubjectService struct {
	repo     subjectRepository
	classes  subjectClassFinder
	validate *validator.Validate
	logger   *zap.Logger
	timeout  time.Duration
}

// NewSubjectService constructs a SubjectService.
func NewSubjectService(repo subjectRepository, classes subjectClassFinder, validate *validator.Validate, logger *zap.Logger, timeout time.Duration) *SubjectService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, classes: classes, validate: validate, logger: logger, timeout: timeout}
}

// List returns subjects visible inside the caller's scope, optionally
// narrowed to one class.
func (s *SubjectService) List(ctx context.Context, scope models.RecordScope, classID string) ([]models.SubjectDetail, error) {
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	subjects, err := s.repo.List(qctx, scope, classID)
	if err != nil {
		return nil, storageErr(err, "subjects not found", "failed to list subjects")
	}
	return subjects, nil
}

// Get returns one subject when it is visible inside the caller's
// scope; anything outside reads as absent.
func (s *SubjectService) Get(ctx context.Context, scope models.RecordScope, id string) (*models.Subject, error) {
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	subject, err := s.repo.FindByID(qctx, id)
	if err != nil {
		return nil, storageErr(err, "subject not found", "failed to load subject")
	}
	if !recordVisible(scope, subject.TeacherID, subject.ClassID) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return subject, nil
}

// Create persists a subject under a class the teacher owns. A class
// outside the teacher's scope reads as absent, not forbidden.
func (s *SubjectService) Create(ctx context.Context, teacherID string, req dto.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.classes.FindOwned(qctx, req.ClassID, teacherID); err != nil {
		return nil, storageErr(err, "class not found", "failed to load class")
	}

	subject := &models.Subject{
		Name:        req.Name,
		Color:       req.Color,
		Description: req.Description,
		ClassID:     req.ClassID,
		TeacherID:   teacherID,
	}
	if err := s.repo.Create(qctx, subject); err != nil {
		return nil, storageErr(err, "subject not found", "failed to create subject")
	}

	s.logger.Info("subject created",
		zap.String("subject_id", subject.ID), zap.String("class_id", req.ClassID))
	return subject, nil
}
