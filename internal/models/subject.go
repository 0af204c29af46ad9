package models

import "time"

// Subject belongs to exactly one class; the teacher reference is
// denormalized from the class for cheap ownership checks.
type Subject struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Color       string    `db:"color" json:"color"`
	Description *string   `db:"description" json:"description,omitempty"`
	ClassID     string    `db:"class_id" json:"class_id"`
	TeacherID   string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// SubjectDetail joins the owning class name for list views.
type SubjectDetail struct {
	Subject
	ClassName string `db:"class_name" json:"class_name"`
}
