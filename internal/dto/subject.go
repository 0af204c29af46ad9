package dto

// CreateSubjectRequest is the payload for creating a subject under a class.
type CreateSubjectRequest struct {
	Name        string  `json:"name" validate:"required,min=2,max=120"`
	Color       string  `json:"color" validate:"required,hexcolor"`
	ClassID     string  `json:"class_id" validate:"required,uuid4"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
}
