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

// SessionRepository manages persistence for live sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a session repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionDetailColumns = `s.id, s.title, s.description, s.class_id, s.subject_id, s.teacher_id,
s.scheduled_start, s.scheduled_end, s.duration_minutes, s.room_id, s.status, s.created_at, s.updated_at,
c.name AS class_name, sub.name AS subject_name, sub.color AS subject_color, u.name AS teacher_name`

const sessionDetailJoins = `FROM sessions s
JOIN classes c ON c.id = s.class_id
JOIN subjects sub ON sub.id = s.subject_id
JOIN users u ON u.id = s.teacher_id`

// List returns sessions inside the given scope with optional filters,
// most recent start first.
func (r *SessionRepository) List(ctx context.Context, scope models.RecordScope, filter models.SessionFilter) ([]models.SessionDetail, int, error) {
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
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.SubjectID != "" {
		where = append(where, fmt.Sprintf("s.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Status != nil && filter.Status.Valid() {
		where = append(where, fmt.Sprintf("s.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	whereClause := strings.Join(where, " AND ")

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY s.scheduled_start %s LIMIT %d OFFSET %d`,
		sessionDetailColumns, sessionDetailJoins, whereClause, order, size, offset)
	var sessions []models.SessionDetail
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", sessionDetailJoins, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}
	return sessions, total, nil
}

// FindByID returns a session record by ID.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	const query = `SELECT id, title, description, class_id, subject_id, teacher_id,
scheduled_start, scheduled_end, duration_minutes, room_id, status, created_at, updated_at
FROM sessions WHERE id = $1`
	var session models.Session
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// FindDetailByID returns a session with joined display fields.
func (r *SessionRepository) FindDetailByID(ctx context.Context, id string) (*models.SessionDetail, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE s.id = $1`, sessionDetailColumns, sessionDetailJoins)
	var detail models.SessionDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create persists a session record.
func (r *SessionRepository) Create(ctx context.Context, session *models.Session) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	const query = `INSERT INTO sessions (id, title, description, class_id, subject_id, teacher_id,
scheduled_start, scheduled_end, duration_minutes, room_id, status, created_at, updated_at)
VALUES (:id, :title, :description, :class_id, :subject_id, :teacher_id,
:scheduled_start, :scheduled_end, :duration_minutes, :room_id, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpdateStatus moves a session to a new lifecycle state.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status models.SessionStatus) error {
	const query = `UPDATE sessions SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return nil
}
