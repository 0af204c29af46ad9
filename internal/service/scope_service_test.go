package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/classmeet/classmeet-api/internal/models"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
)

func teacherScope(id string) models.AccessScope {
	return models.NewAccessScope(&models.JWTClaims{UserID: id, Role: models.RoleTeacher})
}

func studentScope(id string) models.AccessScope {
	return models.NewAccessScope(&models.JWTClaims{UserID: id, Role: models.RoleStudent})
}

func newScopeService(enrolled map[string][]string) *ScopeService {
	repo := &mockEnrollmentClasses{enrolled: enrolled}
	enrollment := NewEnrollmentService(repo, disabledCache(), zap.NewNop(), time.Second)
	return NewScopeService(enrollment, zap.NewNop())
}

func TestForClassesByRole(t *testing.T) {
	svc := newScopeService(nil)

	scope, err := svc.ForClasses(teacherScope("t1"))
	require.NoError(t, err)
	owner, ok := scope.OwnerTeacherID()
	require.True(t, ok)
	assert.Equal(t, "t1", owner)

	scope, err = svc.ForClasses(studentScope("s1"))
	require.NoError(t, err)
	viewer, ok := scope.ViewerStudentID()
	require.True(t, ok)
	assert.Equal(t, "s1", viewer)
}

func TestForClassesUnknownRoleFailsClosed(t *testing.T) {
	svc := newScopeService(nil)

	_, err := svc.ForClasses(models.NewAccessScope(&models.JWTClaims{UserID: "x", Role: "admin"}))
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestForRecordsTeacherOwnsRecords(t *testing.T) {
	svc := newScopeService(nil)

	scope, err := svc.ForRecords(context.Background(), teacherScope("t1"))
	require.NoError(t, err)
	owner, ok := scope.OwnerTeacherID()
	require.True(t, ok)
	assert.Equal(t, "t1", owner)
	assert.False(t, scope.IsDenied())
}

func TestForRecordsEnrolledStudentBoundToClass(t *testing.T) {
	svc := newScopeService(map[string][]string{"s1": {"c9"}})

	scope, err := svc.ForRecords(context.Background(), studentScope("s1"))
	require.NoError(t, err)
	classID, ok := scope.BoundClassID()
	require.True(t, ok)
	assert.Equal(t, "c9", classID)
}

func TestForRecordsUnenrolledStudentSeesNothing(t *testing.T) {
	svc := newScopeService(nil)

	scope, err := svc.ForRecords(context.Background(), studentScope("s1"))
	require.NoError(t, err)
	assert.True(t, scope.IsDenied())
}

func TestForAttendanceStudentAlwaysPinnedToSelf(t *testing.T) {
	svc := newScopeService(nil)

	// A student asking for someone else's records still only gets
	// their own.
	scope, err := svc.ForAttendance(studentScope("s1"), "s2")
	require.NoError(t, err)
	self, ok := scope.SelfStudentID()
	require.True(t, ok)
	assert.Equal(t, "s1", self)
	_, ok = scope.FilterStudentID()
	assert.False(t, ok)
}

func TestForAttendanceTeacherMayNarrowToStudent(t *testing.T) {
	svc := newScopeService(nil)

	scope, err := svc.ForAttendance(teacherScope("t1"), "s2")
	require.NoError(t, err)
	owner, ok := scope.OwnerTeacherID()
	require.True(t, ok)
	assert.Equal(t, "t1", owner)
	filter, ok := scope.FilterStudentID()
	require.True(t, ok)
	assert.Equal(t, "s2", filter)
}
