package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/classmeet/classmeet-api/internal/models"
)

// ClassRepository manages persistence for classes and their rosters.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a class repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// ListOwned returns classes owned by a teacher, newest first.
func (r *ClassRepository) ListOwned(ctx context.Context, teacherID string) ([]models.Class, error) {
	const query = `SELECT id, name, grade, section, description, teacher_id, created_at, updated_at
FROM classes WHERE teacher_id = $1 ORDER BY created_at DESC`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query, teacherID); err != nil {
		return nil, fmt.Errorf("list owned classes: %w", err)
	}
	return classes, nil
}

// ListWithEnrollment returns the full catalog with a server-computed
// is_enrolled flag for the given student, so callers never have to
// infer membership from the shape of the result.
func (r *ClassRepository) ListWithEnrollment(ctx context.Context, studentID string) ([]models.ClassWithEnrollment, error) {
	const query = `SELECT c.id, c.name, c.grade, c.section, c.description, c.teacher_id, c.created_at, c.updated_at,
u.name AS teacher_name,
(SELECT COUNT(*) FROM class_students cs WHERE cs.class_id = c.id) AS student_count,
EXISTS (SELECT 1 FROM class_students cs WHERE cs.class_id = c.id AND cs.student_id = $1) AS is_enrolled
FROM classes c
JOIN users u ON u.id = c.teacher_id
ORDER BY c.created_at DESC`
	var classes []models.ClassWithEnrollment
	if err := r.db.SelectContext(ctx, &classes, query, studentID); err != nil {
		return nil, fmt.Errorf("list classes with enrollment: %w", err)
	}
	return classes, nil
}

// FindByID returns a class record by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, grade, section, description, teacher_id, created_at, updated_at
FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// FindOwned returns the class only when owned by the given teacher.
func (r *ClassRepository) FindOwned(ctx context.Context, id, teacherID string) (*models.Class, error) {
	const query = `SELECT id, name, grade, section, description, teacher_id, created_at, updated_at
FROM classes WHERE id = $1 AND teacher_id = $2`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id, teacherID); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create persists a class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, name, grade, section, description, teacher_id, created_at, updated_at)
VALUES (:id, :name, :grade, :section, :description, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Roster returns the ordered student list of a class.
func (r *ClassRepository) Roster(ctx context.Context, classID string) ([]models.UserInfo, error) {
	const query = `SELECT u.id, u.name, u.email, u.role, u.avatar
FROM class_students cs
JOIN users u ON u.id = cs.student_id
WHERE cs.class_id = $1
ORDER BY cs.position ASC`
	var students []models.UserInfo
	if err := r.db.SelectContext(ctx, &students, query, classID); err != nil {
		return nil, fmt.Errorf("list class roster: %w", err)
	}
	return students, nil
}

// AddStudent appends a student to the roster. The position is the next
// free slot; the primary key on (class_id, student_id) rejects
// duplicates.
func (r *ClassRepository) AddStudent(ctx context.Context, classID, studentID string) error {
	const query = `INSERT INTO class_students (class_id, student_id, position, joined_at)
VALUES ($1, $2, (SELECT COALESCE(MAX(position), 0) + 1 FROM class_students WHERE class_id = $1), $3)`
	if _, err := r.db.ExecContext(ctx, query, classID, studentID, time.Now().UTC()); err != nil {
		return fmt.Errorf("add student to class: %w", err)
	}
	return nil
}

// EnrolledClassIDs returns the IDs of every class containing the
// student. The resolver uses the count to enforce single-enrollment.
func (r *ClassRepository) EnrolledClassIDs(ctx context.Context, studentID string) ([]string, error) {
	var ids []string
	const query = `SELECT class_id FROM class_students WHERE student_id = $1 ORDER BY joined_at ASC`
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrolled class ids: %w", err)
	}
	return ids, nil
}

// IsStudentEnrolled reports membership of a student in a class.
func (r *ClassRepository) IsStudentEnrolled(ctx context.Context, classID, studentID string) (bool, error) {
	var exists int
	const query = `SELECT 1 FROM class_students WHERE class_id = $1 AND student_id = $2 LIMIT 1`
	if err := r.db.GetContext(ctx, &exists, query, classID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}
