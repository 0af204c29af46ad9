package dto

// CreateClassRequest is the payload for creating a class.
type CreateClassRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Grade       string  `json:"grade" validate:"required,max=32"`
	Section     *string `json:"section,omitempty" validate:"omitempty,max=32"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}

// AddStudentRequest appends one student to a class roster.
type AddStudentRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
}
