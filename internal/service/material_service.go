package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/classmeet/classmeet-api/internal/dto"
	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
	"github.com/classmeet/classmeet-api/pkg/storage"
)

type materialRepository interface {
	List(ctx context.Context, scope models.RecordScope, filter models.MaterialFilter) ([]models.Material, int, error)
	FindByID(ctx context.Context, id string) (*models.Material, error)
	Create(ctx context.Context, material *models.Material) error
}

type materialSubjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// UploadInput carries an incoming multipart file upload.
type UploadInput struct {
	Title       string
	SubjectID   string
	SessionID   *string
	Description *string
	Tags        []string
	Filename    string
	Size        int64
	Reader      io.Reader
}

// DownloadGrant is a short-lived signed reference to a stored file.
type DownloadGrant struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MaterialService manages learning materials: external links and
// uploaded files served through signed URLs.
type MaterialService struct {
	repo        materialRepository
	subjects    materialSubjectFinder
	media       *storage.MediaStore
	signer      *storage.SignedURLSigner
	maxFileSize int64
	validate    *validator.Validate
	logger      *zap.Logger
	timeout     time.Duration
}

// NewMaterialService constructs a MaterialService.
func NewMaterialService(repo materialRepository, subjects materialSubjectFinder, media *storage.MediaStore, signer *storage.SignedURLSigner, maxFileSize int64, validate *validator.Validate, logger *zap.Logger, timeout time.Duration) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaterialService{
		repo:        repo,
		subjects:    subjects,
		media:       media,
		signer:      signer,
		maxFileSize: maxFileSize,
		validate:    validate,
		logger:      logger,
		timeout:     timeout,
	}
}

// List returns materials visible inside the caller's scope.
func (s *MaterialService) List(ctx context.Context, scope models.RecordScope, query dto.MaterialQuery) ([]models.Material, *models.Pagination, error) {
	filter := models.MaterialFilter{
		SubjectID: query.SubjectID,
		SessionID: query.SessionID,
		Page:      query.Page,
		PageSize:  query.PageSize,
	}
	if query.Type != "" {
		mt := models.MaterialType(query.Type)
		if !mt.Valid() {
			return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown material type %q", query.Type))
		}
		filter.Type = &mt
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

	materials, total, err := s.repo.List(qctx, scope, filter)
	if err != nil {
		return nil, nil, storageErr(err, "materials not found", "failed to list materials")
	}

	pagination := &models.Pagination{
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalCount: total,
	}
	return materials, pagination, nil
}

// CreateLink attaches an external resource to a subject the teacher
// owns.
func (s *MaterialService) CreateLink(ctx context.Context, teacherID string, req dto.CreateMaterialRequest) (*models.Material, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown material type %q", req.Type))
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.checkSubjectOwnership(qctx, req.SubjectID, teacherID); err != nil {
		return nil, err
	}

	material := &models.Material{
		Title:           req.Title,
		Type:            req.Type,
		URL:             req.URL,
		Thumbnail:       req.Thumbnail,
		Description:     req.Description,
		SubjectID:       req.SubjectID,
		SessionID:       req.SessionID,
		UploadedBy:      teacherID,
		DurationSeconds: req.DurationSeconds,
		Tags:            req.Tags,
	}
	if err := s.repo.Create(qctx, material); err != nil {
		return nil, storageErr(err, "material not found", "failed to create material")
	}

	s.logger.Info("material linked",
		zap.String("material_id", material.ID), zap.String("subject_id", req.SubjectID))
	return material, nil
}

// Upload stores a file for a subject the teacher owns and records it as
// a material. Oversized files are rejected before touching disk.
func (s *MaterialService) Upload(ctx context.Context, teacherID string, in UploadInput) (*models.Material, error) {
	if in.Title == "" || in.SubjectID == "" || in.Filename == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title, subject_id and file are required")
	}
	if s.maxFileSize > 0 && in.Size > s.maxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "")
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.checkSubjectOwnership(qctx, in.SubjectID, teacherID); err != nil {
		return nil, err
	}

	stored, err := s.media.Save(in.SubjectID, in.Filename, in.Size, in.Reader)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	material := &models.Material{
		Title:       in.Title,
		Type:        materialTypeFor(stored.MIMEType),
		URL:         stored.URL,
		StoragePath: &stored.Path,
		Description: in.Description,
		SubjectID:   in.SubjectID,
		SessionID:   in.SessionID,
		UploadedBy:  teacherID,
		FileSize:    &stored.Size,
		Tags:        in.Tags,
	}
	if err := s.repo.Create(qctx, material); err != nil {
		_ = s.media.Delete(stored.Path)
		return nil, storageErr(err, "material not found", "failed to create material")
	}

	s.logger.Info("material uploaded",
		zap.String("material_id", material.ID),
		zap.String("subject_id", in.SubjectID),
		zap.Int64("size", stored.Size))
	return material, nil
}

// GrantDownload issues a signed, short-lived download token for a
// stored material visible inside the caller's scope.
func (s *MaterialService) GrantDownload(ctx context.Context, scope models.RecordScope, materialID string) (*DownloadGrant, error) {
	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	material, err := s.repo.FindByID(qctx, materialID)
	if err != nil {
		return nil, storageErr(err, "material not found", "failed to load material")
	}
	if err := s.checkVisibility(qctx, scope, material); err != nil {
		return nil, err
	}
	if material.StoragePath == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "material is an external link")
	}

	token, expiresAt, err := s.signer.Generate(material.ID, *material.StoragePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &DownloadGrant{URL: "/media/download?token=" + token, ExpiresAt: expiresAt}, nil
}

// Redeem validates a download token and opens the underlying file. The
// caller owns the returned handle.
func (s *MaterialService) Redeem(ctx context.Context, token string) (*models.Material, *os.File, error) {
	materialID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrSignatureInvalid, "")
	}

	qctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	material, err := s.repo.FindByID(qctx, materialID)
	if err != nil {
		return nil, nil, storageErr(err, "material not found", "failed to load material")
	}
	if material.StoragePath == nil || *material.StoragePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrSignatureInvalid, "")
	}

	file, err := s.media.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "file no longer available")
	}
	return material, file, nil
}

func (s *MaterialService) checkSubjectOwnership(ctx context.Context, subjectID, teacherID string) error {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		return storageErr(err, "subject not found", "failed to load subject")
	}
	if subject.TeacherID != teacherID {
		return appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return nil
}

func (s *MaterialService) checkVisibility(ctx context.Context, scope models.RecordScope, material *models.Material) error {
	subject, err := s.subjects.FindByID(ctx, material.SubjectID)
	if err != nil {
		return storageErr(err, "material not found", "failed to load subject")
	}
	if !recordVisible(scope, subject.TeacherID, subject.ClassID) {
		return appErrors.Clone(appErrors.ErrNotFound, "material not found")
	}
	return nil
}

func materialTypeFor(mimeType string) models.MaterialType {
	switch {
	case mimeType == "application/pdf":
		return models.MaterialPDF
	case strings.HasPrefix(mimeType, "video/"):
		return models.MaterialVideo
	case strings.HasPrefix(mimeType, "image/"):
		return models.MaterialImage
	default:
		return models.MaterialOther
	}
}
