package transport

import (
	"time"

	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/domain"

	"github.com/google/uuid"
)

// CreateGalleryRequest is the request body for creating a gallery
type CreateGalleryRequest struct {
	Slug               string   `json:"slug" validate:"required,min=3,max=120"`
	PropertyName       string   `json:"propertyName" validate:"required,min=1,max=200"`
	ClientEmails       []string `json:"clientEmails" validate:"omitempty,dive,email"`
	PackageTargetCount *int     `json:"packageTargetCount,omitempty" validate:"omitempty,min=1"`
}

// UpdateGalleryRequest is the request body for updating gallery details
type UpdateGalleryRequest struct {
	PropertyName       string   `json:"propertyName" validate:"required,min=1,max=200"`
	ClientEmails       []string `json:"clientEmails" validate:"omitempty,dive,email"`
	PackageTargetCount *int     `json:"packageTargetCount,omitempty" validate:"omitempty,min=1"`
	ExpressDelivery    bool     `json:"expressDelivery"`
}

// ListGalleriesRequest is the query parameters for listing galleries
type ListGalleriesRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=Planning Open Closed Processing Delivered"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// DeliverRequest is the request body for delivering a gallery. Either an
// external download link or the key of an uploaded archive must be present.
type DeliverRequest struct {
	DeliveryLink    *string `json:"deliveryLink,omitempty" validate:"omitempty,url"`
	DeliveryFileKey *string `json:"deliveryFileKey,omitempty"`
}

// StagingSelection designates a selected photo for virtual staging
type StagingSelection struct {
	PhotoID uuid.UUID `json:"photoId" validate:"required"`
	Style   string    `json:"style" validate:"required,min=1,max=100"`
}

// FinalizeAddOns carries the paid add-on choices of the final package
type FinalizeAddOns struct {
	ExpressDelivery    bool               `json:"expressDelivery"`
	StagingSelections  []StagingSelection `json:"stagingSelections" validate:"omitempty,dive"`
	BlueHourSelections []uuid.UUID        `json:"blueHourSelections"`
}

// FinalizeRequest is the request body for finalizing a gallery. The optional
// reference file arrives as a separate multipart part and is handled by the
// handler, not this DTO.
type FinalizeRequest struct {
	SelectedPhotoIDs []uuid.UUID    `json:"selectedPhotoIds" validate:"required"`
	AddOns           FinalizeAddOns `json:"addOns"`
	Comment          *string        `json:"comment,omitempty" validate:"omitempty,max=4000"`
}

// GalleryResponse is the admin-facing response body for a gallery
type GalleryResponse struct {
	ID                       uuid.UUID     `json:"id"`
	Slug                     string        `json:"slug"`
	PropertyName             string        `json:"propertyName"`
	ClientEmails             []string      `json:"clientEmails"`
	Status                   domain.Status `json:"status"`
	PackageTargetCount       *int          `json:"packageTargetCount,omitempty"`
	IsLocked                 bool          `json:"isLocked"`
	ExpressDelivery          bool          `json:"expressDelivery"`
	ClientComment            *string       `json:"clientComment,omitempty"`
	FinalDeliveryLink        *string       `json:"finalDeliveryLink,omitempty"`
	SentAt                   *time.Time    `json:"sentAt,omitempty"`
	ReviewedAt               *time.Time    `json:"reviewedAt,omitempty"`
	DeliveredAt              *time.Time    `json:"deliveredAt,omitempty"`
	SelectedCount            int           `json:"selectedCount"`
	PhotoCount               int           `json:"photoCount"`
	HasPendingReopenRequest  bool          `json:"hasPendingReopenRequest"`
	CreatedAt                time.Time     `json:"createdAt"`
	UpdatedAt                time.Time     `json:"updatedAt"`
}

// GalleryListResponse is the paginated response for listing galleries
type GalleryListResponse struct {
	Items    []GalleryResponse `json:"items"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// ClientPhotoResponse is a photo as seen in the client gallery view
type ClientPhotoResponse struct {
	ID                uuid.UUID `json:"id"`
	UploadOrder       int       `json:"uploadOrder"`
	IsSelected        bool      `json:"isSelected"`
	StagingRequested  bool      `json:"stagingRequested"`
	StagingStyle      *string   `json:"stagingStyle,omitempty"`
	BlueHourRequested bool      `json:"blueHourRequested"`
	ClientComment     *string   `json:"clientComment,omitempty"`
	ViewURL           string    `json:"viewUrl,omitempty"`
}

// ClientGalleryResponse is the status-dependent client view of a gallery.
// Open exposes photos and selection state, Closed/Processing a waiting
// summary, Delivered the download link.
type ClientGalleryResponse struct {
	Slug               string                `json:"slug"`
	PropertyName       string                `json:"propertyName"`
	Status             domain.Status         `json:"status"`
	PackageTargetCount *int                  `json:"packageTargetCount,omitempty"`
	IsLocked           bool                  `json:"isLocked"`
	Photos             []ClientPhotoResponse `json:"photos,omitempty"`
	SelectedCount      int                   `json:"selectedCount"`
	DownloadURL        *string               `json:"downloadUrl,omitempty"`
	ReviewedAt         *time.Time            `json:"reviewedAt,omitempty"`
	DeliveredAt        *time.Time            `json:"deliveredAt,omitempty"`
}

// FinalizeResponse is returned on a successful finalize call
type FinalizeResponse struct {
	GalleryID     uuid.UUID     `json:"galleryId"`
	Status        domain.Status `json:"status"`
	SelectedCount int           `json:"selectedCount"`
	ReviewedAt    time.Time     `json:"reviewedAt"`
}
