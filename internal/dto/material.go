package dto

import "github.com/classmeet/classmeet-api/internal/models"

// CreateMaterialRequest is the payload for attaching an external
// resource to a subject. File uploads go through the multipart
// endpoint instead.
type CreateMaterialRequest struct {
	Title           string              `json:"title" validate:"required,min=2,max=200"`
	Type            models.MaterialType `json:"type" validate:"required"`
	URL             string              `json:"url" validate:"required,url"`
	Thumbnail       *string             `json:"thumbnail,omitempty" validate:"omitempty,url"`
	Description     *string             `json:"description,omitempty" validate:"omitempty,max=1000"`
	SubjectID       string              `json:"subject_id" validate:"required,uuid4"`
	SessionID       *string             `json:"session_id,omitempty" validate:"omitempty,uuid4"`
	DurationSeconds *int                `json:"duration_seconds,omitempty" validate:"omitempty,min=0"`
	Tags            []string            `json:"tags,omitempty" validate:"omitempty,dive,max=48"`
}

// MaterialQuery mirrors supported listing filters.
type MaterialQuery struct {
	SubjectID string `form:"subject_id"`
	SessionID string `form:"session_id"`
	Type      string `form:"type"`
	Page      int    `form:"page"`
	PageSize  int    `form:"page_size"`
}
