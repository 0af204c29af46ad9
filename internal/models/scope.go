package models

// Capability names one thing a caller is allowed to do. The set is
// computed once per request from the verified claims.
type Capability string

const (
	CapOwnClass   Capability = "own-class"
	CapOwnSession Capability = "own-session"
	CapOwnRecord  Capability = "own-record"
	CapEnrolledIn Capability = "enrolled-in"
)

// AccessScope is the resolved identity of a request: who is calling,
// in what role, and with which capabilities.
type AccessScope struct {
	UserID string
	Role   UserRole
	caps   map[Capability]struct{}
}

// NewAccessScope derives the capability set from verified claims.
func NewAccessScope(claims *JWTClaims) AccessScope {
	scope := AccessScope{UserID: claims.UserID, Role: claims.Role, caps: map[Capability]struct{}{}}
	switch claims.Role {
	case RoleTeacher:
		scope.caps[CapOwnClass] = struct{}{}
		scope.caps[CapOwnSession] = struct{}{}
	case RoleStudent:
		scope.caps[CapOwnRecord] = struct{}{}
		scope.caps[CapEnrolledIn] = struct{}{}
	}
	return scope
}

// Can reports whether the scope carries the capability.
func (s AccessScope) Can(c Capability) bool {
	_, ok := s.caps[c]
	return ok
}

// The scope types below are tagged filters built by the scoped query
// builder. Construction goes through the factory functions only, so a
// filter that mixes teacher and student restrictions cannot exist.

// ClassScope restricts class queries to the caller's sphere.
type ClassScope struct {
	teacherID string
	studentID string
}

// OwnedClasses scopes to classes owned by the teacher.
func OwnedClasses(teacherID string) ClassScope {
	return ClassScope{teacherID: teacherID}
}

// EnrolledClasses scopes to the catalog as seen by a student.
func EnrolledClasses(studentID string) ClassScope {
	return ClassScope{studentID: studentID}
}

// OwnerTeacherID returns the teacher restriction, if set.
func (s ClassScope) OwnerTeacherID() (string, bool) {
	return s.teacherID, s.teacherID != ""
}

// ViewerStudentID returns the student restriction, if set.
func (s ClassScope) ViewerStudentID() (string, bool) {
	return s.studentID, s.studentID != ""
}

// RecordScope restricts sessions, subjects and materials either to the
// records under a teacher's ownership or to a student's enrolled class.
type RecordScope struct {
	teacherID string
	classID   string
	denied    bool
}

// NoRecords is the fail-closed scope: queries under it match nothing.
// Used for students with no enrollment.
func NoRecords() RecordScope {
	return RecordScope{denied: true}
}

// IsDenied reports whether the scope matches nothing.
func (s RecordScope) IsDenied() bool {
	return s.denied
}

// TeacherRecords scopes to records owned by the teacher.
func TeacherRecords(teacherID string) RecordScope {
	return RecordScope{teacherID: teacherID}
}

// ClassRecords scopes to records under a single class.
func ClassRecords(classID string) RecordScope {
	return RecordScope{classID: classID}
}

// OwnerTeacherID returns the teacher restriction, if set.
func (s RecordScope) OwnerTeacherID() (string, bool) {
	return s.teacherID, s.teacherID != ""
}

// BoundClassID returns the class restriction, if set.
func (s RecordScope) BoundClassID() (string, bool) {
	return s.classID, s.classID != ""
}

// AttendanceScope restricts attendance queries. A student scope always
// pins the student ID to the caller; a teacher scope pins session
// ownership and may optionally narrow to one student.
type AttendanceScope struct {
	selfStudentID   string
	ownerTeacherID  string
	filterStudentID string
}

// SelfAttendance scopes a student to their own records.
func SelfAttendance(studentID string) AttendanceScope {
	return AttendanceScope{selfStudentID: studentID}
}

// TeacherAttendance scopes a teacher to sessions they own, optionally
// narrowed to one student.
func TeacherAttendance(teacherID, studentID string) AttendanceScope {
	return AttendanceScope{ownerTeacherID: teacherID, filterStudentID: studentID}
}

// SelfStudentID returns the forced student restriction, if set.
func (s AttendanceScope) SelfStudentID() (string, bool) {
	return s.selfStudentID, s.selfStudentID != ""
}

// OwnerTeacherID returns the session-ownership restriction, if set.
func (s AttendanceScope) OwnerTeacherID() (string, bool) {
	return s.ownerTeacherID, s.ownerTeacherID != ""
}

// FilterStudentID returns the optional teacher-side student filter.
func (s AttendanceScope) FilterStudentID() (string, bool) {
	return s.filterStudentID, s.filterStudentID != ""
}
