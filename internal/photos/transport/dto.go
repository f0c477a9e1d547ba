package transport

import (
	"time"

	"github.com/google/uuid"
)

// RegisterPhotosRequest attaches uploaded files to a gallery
type RegisterPhotosRequest struct {
	FileKeys []string `json:"fileKeys" validate:"required,min=1,dive,min=1"`
}

// UploadURLRequest asks for a presigned PUT URL for an original photo
type UploadURLRequest struct {
	FileName    string `json:"fileName" validate:"required,min=1,max=255"`
	ContentType string `json:"contentType" validate:"required"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// ToggleRequest flips a photo's selection state. Expected carries the state
// the caller last observed so lost updates are detected.
type ToggleRequest struct {
	Expected bool `json:"expected"`
}

// ToggleResponse returns the confirmed selection state after a toggle
type ToggleResponse struct {
	PhotoID    uuid.UUID `json:"photoId"`
	IsSelected bool      `json:"isSelected"`
}

// UpdateCommentRequest sets the client comment on a photo
type UpdateCommentRequest struct {
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=2000"`
}

// PhotoResponse is the admin-facing photo representation
type PhotoResponse struct {
	ID                uuid.UUID `json:"id"`
	GalleryID         uuid.UUID `json:"galleryId"`
	FileKey           string    `json:"fileKey"`
	UploadOrder       int       `json:"uploadOrder"`
	IsSelected        bool      `json:"isSelected"`
	StagingRequested  bool      `json:"stagingRequested"`
	StagingStyle      *string   `json:"stagingStyle,omitempty"`
	BlueHourRequested bool      `json:"blueHourRequested"`
	ClientComment     *string   `json:"clientComment,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// PhotoListResponse wraps the photos of a gallery
type PhotoListResponse struct {
	Items []PhotoResponse `json:"items"`
	Total int             `json:"total"`
}
