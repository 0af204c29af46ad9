package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classmeet/classmeet-api/internal/models"
)

// MaterialRepository manages persistence for learning materials.
type MaterialRepository struct {
	db *sqlx.DB
}

// NewMaterialRepository constructs a material repository.
func NewMaterialRepository(db *sqlx.DB) *MaterialRepository {
	return &MaterialRepository{db: db}
}

// List returns materials inside the given scope with optional filters,
// newest first.
func (r *MaterialRepository) List(ctx context.Context, scope models.RecordScope, filter models.MaterialFilter) ([]models.Material, int, error) {
	base := `FROM materials m JOIN subjects s ON s.id = m.subject_id`
	where := []string{"1=1"}
	args := []interface{}{}

	if scope.IsDenied() {
		where = append(where, "1=0")
	}
	if teacherID, ok := scope.OwnerTeacherID(); ok {
		where = append(where, fmt.Sprintf("s.teacher_id = $%d", len(args)+1))
		args = append(args, teacherID)
	}
	if classID, ok := scope.BoundClassID(); ok {
		where = append(where, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, classID)
	}
	if filter.SubjectID != "" {
		where = append(where, fmt.Sprintf("m.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.SessionID != "" {
		where = append(where, fmt.Sprintf("m.session_id = $%d", len(args)+1))
		args = append(args, filter.SessionID)
	}
	if filter.Type != nil && filter.Type.Valid() {
		where = append(where, fmt.Sprintf("m.type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT m.id, m.title, m.type, m.url, m.storage_path, m.thumbnail, m.description,
m.subject_id, m.session_id, m.uploaded_by, m.file_size, m.duration_seconds, m.tags, m.created_at, m.updated_at
%s WHERE %s ORDER BY m.created_at DESC LIMIT %d OFFSET %d`, base, whereClause, size, offset)
	var materials []models.Material
	if err := r.db.SelectContext(ctx, &materials, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list materials: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count materials: %w", err)
	}
	return materials, total, nil
}

// FindByID returns a material record by ID.
func (r *MaterialRepository) FindByID(ctx context.Context, id string) (*models.Material, error) {
	const query = `SELECT id, title, type, url, storage_path, thumbnail, description,
subject_id, session_id, uploaded_by, file_size, duration_seconds, tags, created_at, updated_at
FROM materials WHERE id = $1`
	var material models.Material
	if err := r.db.GetContext(ctx, &material, query, id); err != nil {
		return nil, err
	}
	return &material, nil
}

// Create persists a material record.
func (r *MaterialRepository) Create(ctx context.Context, material *models.Material) error {
	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if material.CreatedAt.IsZero() {
		material.CreatedAt = now
	}
	material.UpdatedAt = now

	const query = `INSERT INTO materials (id, title, type, url, storage_path, thumbnail, description,
subject_id, session_id, uploaded_by, file_size, duration_seconds, tags, created_at, updated_at)
VALUES (:id, :title, :type, :url, :storage_path, :thumbnail, :description,
:subject_id, :session_id, :uploaded_by, :file_size, :duration_seconds, :tags, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, material); err != nil {
		return fmt.Errorf("create material: %w", err)
	}
	return nil
}
