package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateReopenRequest is the client request body for filing a reopen request
type CreateReopenRequest struct {
	Message *string `json:"message,omitempty" validate:"omitempty,max=2000"`
}

// ResolveReopenRequest is the admin request body for resolving a request
type ResolveReopenRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approved rejected"`
}

// ReopenRequestResponse is the response body for a reopen request
type ReopenRequestResponse struct {
	ID           uuid.UUID  `json:"id"`
	GalleryID    uuid.UUID  `json:"galleryId"`
	GallerySlug  string     `json:"gallerySlug,omitempty"`
	PropertyName string     `json:"propertyName,omitempty"`
	Status       string     `json:"status"`
	Message      *string    `json:"message,omitempty"`
	ResolvedBy   *uuid.UUID `json:"resolvedBy,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	ResolvedAt   *time.Time `json:"resolvedAt,omitempty"`
}

// ReopenRequestListResponse is the admin list response
type ReopenRequestListResponse struct {
	Items []ReopenRequestResponse `json:"items"`
	Total int                     `json:"total"`
}
