package models

import (
	"time"

	"github.com/lib/pq"
)

// MaterialType classifies the stored resource.
type MaterialType string

const (
	MaterialPDF   MaterialType = "pdf"
	MaterialVideo MaterialType = "video"
	MaterialImage MaterialType = "image"
	MaterialLink  MaterialType = "link"
	MaterialOther MaterialType = "other"
)

// Valid reports whether the type is one of the known material types.
func (t MaterialType) Valid() bool {
	switch t {
	case MaterialPDF, MaterialVideo, MaterialImage, MaterialLink, MaterialOther:
		return true
	}
	return false
}

// Material is a learning resource attached to a subject, optionally
// pinned to a session.
type Material struct {
	ID              string         `db:"id" json:"id"`
	Title           string         `db:"title" json:"title"`
	Type            MaterialType   `db:"type" json:"type"`
	URL             string         `db:"url" json:"url"`
	StoragePath     *string        `db:"storage_path" json:"-"`
	Thumbnail       *string        `db:"thumbnail" json:"thumbnail,omitempty"`
	Description     *string        `db:"description" json:"description,omitempty"`
	SubjectID       string         `db:"subject_id" json:"subject_id"`
	SessionID       *string        `db:"session_id" json:"session_id,omitempty"`
	UploadedBy      string         `db:"uploaded_by" json:"uploaded_by"`
	FileSize        *int64         `db:"file_size" json:"file_size,omitempty"`
	DurationSeconds *int           `db:"duration_seconds" json:"duration_seconds,omitempty"`
	Tags            pq.StringArray `db:"tags" json:"tags"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// MaterialFilter captures optional list filters before scoping.
type MaterialFilter struct {
	SubjectID string
	SessionID string
	Type      *MaterialType
	Page      int
	PageSize  int
}
