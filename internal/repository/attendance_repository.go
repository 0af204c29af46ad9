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

// AttendanceRepository manages persistence for attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an attendance repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// List returns attendance rows inside the given scope, most recent
// join first. The scope is mandatory: there is no unscoped listing.
func (r *AttendanceRepository) List(ctx context.Context, scope models.AttendanceScope, sessionID string) ([]models.AttendanceDetail, error) {
	base := `SELECT a.id, a.session_id, a.student_id, a.status, a.join_time, a.duration_minutes, a.auto_marked,
a.created_at, a.updated_at,
s.title AS session_title, s.scheduled_start, u.name AS student_name, u.email AS student_email
FROM attendance a
JOIN sessions s ON s.id = a.session_id
JOIN users u ON u.id = a.student_id`
	where := []string{"1=1"}
	args := []interface{}{}

	if studentID, ok := scope.SelfStudentID(); ok {
		where = append(where, fmt.Sprintf("a.student_id = $%d", len(args)+1))
		args = append(args, studentID)
	}
	if teacherID, ok := scope.OwnerTeacherID(); ok {
		where = append(where, fmt.Sprintf("s.teacher_id = $%d", len(args)+1))
		args = append(args, teacherID)
		if studentID, ok := scope.FilterStudentID(); ok {
			where = append(where, fmt.Sprintf("a.student_id = $%d", len(args)+1))
			args = append(args, studentID)
		}
	}
	if sessionID != "" {
		where = append(where, fmt.Sprintf("a.session_id = $%d", len(args)+1))
		args = append(args, sessionID)
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY a.join_time DESC NULLS LAST", base, strings.Join(where, " AND "))
	var rows []models.AttendanceDetail
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return rows, nil
}

// Upsert inserts or updates attendance for the (session, student) pair.
// The unique constraint makes concurrent marks converge on one record.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.Attendance) (*models.Attendance, error) {
	now := time.Now().UTC()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	const query = `INSERT INTO attendance (id, session_id, student_id, status, join_time, duration_minutes, auto_marked, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (session_id, student_id)
DO UPDATE SET status = EXCLUDED.status, duration_minutes = EXCLUDED.duration_minutes,
auto_marked = EXCLUDED.auto_marked, updated_at = EXCLUDED.updated_at
RETURNING id, session_id, student_id, status, join_time, duration_minutes, auto_marked, created_at, updated_at`
	var stored models.Attendance
	err := r.db.GetContext(ctx, &stored, query,
		record.ID, record.SessionID, record.StudentID, record.Status,
		record.JoinTime, record.DurationMinutes, record.AutoMarked,
		record.CreatedAt, record.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	return &stored, nil
}

// MarkAbsentees inserts absent records for every enrolled student of
// the session's class who has no record yet. Existing records are left
// untouched. Returns the number of rows written.
func (r *AttendanceRepository) MarkAbsentees(ctx context.Context, sessionID string) (int, error) {
	const query = `INSERT INTO attendance (id, session_id, student_id, status, duration_minutes, auto_marked, created_at, updated_at)
SELECT gen_random_uuid(), s.id, cs.student_id, 'absent', 0, TRUE, $2, $2
FROM sessions s
JOIN class_students cs ON cs.class_id = s.class_id
WHERE s.id = $1
ON CONFLICT (session_id, student_id) DO NOTHING`
	res, err := r.db.ExecContext(ctx, query, sessionID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark absentees: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark absentees rows affected: %w", err)
	}
	return int(affected), nil
}
