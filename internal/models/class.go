package models

import "time"

// Class groups students under one owning teacher.
type Class struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Grade       string    `db:"grade" json:"grade"`
	Section     *string   `db:"section" json:"section,omitempty"`
	Description *string   `db:"description" json:"description,omitempty"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail is a class with its roster and subjects populated.
type ClassDetail struct {
	Class
	TeacherName string     `db:"teacher_name" json:"teacher_name"`
	Students    []UserInfo `json:"students"`
	Subjects    []Subject  `json:"subjects"`
}

// ClassWithEnrollment is the student-facing catalog row. IsEnrolled is
// computed server-side so clients never have to infer membership from
// the shape of the result.
type ClassWithEnrollment struct {
	Class
	TeacherName  string `db:"teacher_name" json:"teacher_name"`
	StudentCount int    `db:"student_count" json:"student_count"`
	IsEnrolled   bool   `db:"is_enrolled" json:"is_enrolled"`
}

// EnrollmentResult is what the enrollment resolver hands back: either
// the single class the student belongs to, or the full joinable catalog.
type EnrollmentResult struct {
	Enrolled bool                  `json:"enrolled"`
	Class    *ClassWithEnrollment  `json:"class,omitempty"`
	Catalog  []ClassWithEnrollment `json:"catalog,omitempty"`
}
