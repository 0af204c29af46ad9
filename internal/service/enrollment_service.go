package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
)

type enrollmentClassRepository interface {
	ListWithEnrollment(ctx context.Context, studentID string) ([]models.ClassWithEnrollment, error)
	EnrolledClassIDs(ctx context.Context, studentID string) ([]string, error)
}

// EnrollmentService resolves which class a student belongs to.
//
// A student present in exactly one roster is enrolled in that class. A
// student in no roster sees the full joinable catalog. A student in
// more than one roster is a data fault: the resolver rejects the
// request instead of guessing, so a bad roster surfaces immediately
// rather than leaking another class's records.
type EnrollmentService struct {
	classes enrollmentClassRepository
	cache   *CacheService
	logger  *zap.Logger
	timeout time.Duration
}

// NewEnrollmentService constructs an EnrollmentService.
func NewEnrollmentService(classes enrollmentClassRepository, cache *CacheService, logger *zap.Logger, timeout time.Duration) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{classes: classes, cache: cache, logger: logger, timeout: timeout}
}

func catalogCacheKey(studentID string) string {
	return fmt.Sprintf("catalog:student:%s", studentID)
}

// Resolve determines the student's enrollment state against the full
// class catalog.
func (s *EnrollmentService) Resolve(ctx context.Context, studentID string) (*models.EnrollmentResult, error) {
	if s.cache.Enabled() {
		var cached models.EnrollmentResult
		if hit, _ := s.cache.Get(ctx, catalogCacheKey(studentID), &cached); hit {
			return &cached, nil
		}
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	classes, err := s.classes.ListWithEnrollment(qctx, studentID)
	if err != nil {
		return nil, storageErr(err, "classes not found", "failed to list classes")
	}

	var enrolled []models.ClassWithEnrollment
	for _, class := range classes {
		if class.IsEnrolled {
			enrolled = append(enrolled, class)
		}
	}

	var result *models.EnrollmentResult
	switch len(enrolled) {
	case 0:
		// Empty catalog is not an error: the student just has
		// nothing to join yet.
		result = &models.EnrollmentResult{Enrolled: false, Catalog: classes}
	case 1:
		class := enrolled[0]
		result = &models.EnrollmentResult{Enrolled: true, Class: &class}
	default:
		s.logger.Warn("student enrolled in multiple classes",
			zap.String("student_id", studentID), zap.Int("count", len(enrolled)))
		return nil, appErrors.Clone(appErrors.ErrMultipleEnrollment, "")
	}

	if s.cache.Enabled() {
		_ = s.cache.Set(ctx, catalogCacheKey(studentID), result, 0)
	}
	return result, nil
}

// EnrolledClassID returns the single class the student belongs to, or
// empty when not enrolled. More than one membership is rejected.
func (s *EnrollmentService) EnrolledClassID(ctx context.Context, studentID string) (string, error) {
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ids, err := s.classes.EnrolledClassIDs(qctx, studentID)
	if err != nil {
		return "", storageErr(err, "enrollment not found", "failed to resolve enrollment")
	}
	switch len(ids) {
	case 0:
		return "", nil
	case 1:
		return ids[0], nil
	default:
		return "", appErrors.Clone(appErrors.ErrMultipleEnrollment, "")
	}
}

// InvalidateCatalog drops cached catalog entries after roster or class
// mutations.
func (s *EnrollmentService) InvalidateCatalog(ctx context.Context) {
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "catalog:student:*"); err != nil {
			s.logger.Warn("failed to invalidate catalog cache", zap.Error(err))
		}
	}
}
