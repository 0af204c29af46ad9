package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/classmeet/classmeet-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func attendanceRows(record models.Attendance) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "session_id", "student_id", "status", "join_time", "duration_minutes", "auto_marked", "created_at", "updated_at"}).
		AddRow(record.ID, record.SessionID, record.StudentID, record.Status, record.JoinTime, record.DurationMinutes, record.AutoMarked, record.CreatedAt, record.UpdatedAt)
}

func TestAttendanceUpsertConvergesOnConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	now := time.Now().UTC()
	stored := models.Attendance{
		ID:              "att-1",
		SessionID:       "sess-1",
		StudentID:       "stud-1",
		Status:          models.AttendanceLate,
		DurationMinutes: 40,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (session_id, student_id)")).
		WillReturnRows(attendanceRows(stored))

	record := &models.Attendance{
		SessionID:       "sess-1",
		StudentID:       "stud-1",
		Status:          models.AttendanceLate,
		DurationMinutes: 40,
	}
	saved, err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)
	require.Equal(t, "att-1", saved.ID)
	require.Equal(t, models.AttendanceLate, saved.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceMarkAbsenteesCountsRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (session_id, student_id) DO NOTHING")).
		WillReturnResult(sqlmock.NewResult(0, 4))

	marked, err := repo.MarkAbsentees(context.Background(), "sess-1")
	require.NoError(t, err)
	require.Equal(t, 4, marked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceMarkAbsenteesSurfacesCountError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (session_id, student_id) DO NOTHING")).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver does not report rows")))

	_, err := repo.MarkAbsentees(context.Background(), "sess-1")
	require.Error(t, err)
	require.Contains(t, err.Error(), "rows affected")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceListScopesToStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	rows := sqlmock.NewRows([]string{"id", "session_id", "student_id", "status", "join_time", "duration_minutes", "auto_marked", "created_at", "updated_at", "session_title", "scheduled_start", "student_name", "student_email"}).
		AddRow("att-1", "sess-1", "stud-1", "present", nil, 50, true, time.Now(), time.Now(), "Algebra", time.Now(), "Stu Dent", "stu@example.com")

	mock.ExpectQuery(regexp.QuoteMeta("a.student_id = $1")).
		WithArgs("stud-1").
		WillReturnRows(rows)

	records, err := repo.List(context.Background(), models.SelfAttendance("stud-1"), "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "stud-1", records[0].StudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceListTeacherScopePinsOwnership(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	rows := sqlmock.NewRows([]string{"id", "session_id", "student_id", "status", "join_time", "duration_minutes", "auto_marked", "created_at", "updated_at", "session_title", "scheduled_start", "student_name", "student_email"})

	mock.ExpectQuery(regexp.QuoteMeta("s.teacher_id = $1")).
		WithArgs("teach-1", "sess-9").
		WillReturnRows(rows)

	_, err := repo.List(context.Background(), models.TeacherAttendance("teach-1", ""), "sess-9")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
