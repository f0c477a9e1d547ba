package handler

import (
	"net/http"

	"github.com/npsfilm/proof-perfect-sub000/internal/photos/repository"
	"github.com/npsfilm/proof-perfect-sub000/internal/photos/service"
	"github.com/npsfilm/proof-perfect-sub000/internal/photos/transport"
	"github.com/npsfilm/proof-perfect-sub000/platform/httpkit"
	"github.com/npsfilm/proof-perfect-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for photos
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new photos handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterAdminRoutes registers the studio-facing photo routes under a gallery
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/photos", h.List)
	rg.POST("/:id/photos", h.Register)
	rg.POST("/:id/photos/upload-url", h.CreateUploadURL)
}

// RegisterClientRoutes registers the client-facing photo routes under a slug
func (h *Handler) RegisterClientRoutes(rg *gin.RouterGroup) {
	rg.POST("/:slug/photos/:photoId/toggle", h.Toggle)
	rg.PUT("/:slug/photos/:photoId/comment", h.UpdateComment)
}

// List handles GET /api/v1/admin/galleries/:id/photos
func (h *Handler) List(c *gin.Context) {
	galleryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	photos, err := h.svc.List(c.Request.Context(), galleryID)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.PhotoResponse, 0, len(photos))
	for _, p := range photos {
		items = append(items, toPhotoResponse(p))
	}

	httpkit.OK(c, transport.PhotoListResponse{Items: items, Total: len(items)})
}

// Register handles POST /api/v1/admin/galleries/:id/photos
func (h *Handler) Register(c *gin.Context) {
	galleryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.RegisterPhotosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	photos, err := h.svc.Register(c.Request.Context(), galleryID, req.FileKeys)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]transport.PhotoResponse, 0, len(photos))
	for _, p := range photos {
		items = append(items, toPhotoResponse(p))
	}

	httpkit.JSON(c, http.StatusCreated, transport.PhotoListResponse{Items: items, Total: len(items)})
}

// CreateUploadURL handles POST /api/v1/admin/galleries/:id/photos/upload-url
func (h *Handler) CreateUploadURL(c *gin.Context) {
	galleryID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	url, err := h.svc.CreateUploadURL(c.Request.Context(), galleryID, req.FileName, req.ContentType, req.SizeBytes)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, url)
}

// Toggle handles POST /gallery/:slug/photos/:photoId/toggle
func (h *Handler) Toggle(c *gin.Context) {
	photoID, err := uuid.Parse(c.Param("photoId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	newState, err := h.svc.Toggle(c.Request.Context(), c.Param("slug"), photoID, req.Expected)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToggleResponse{PhotoID: photoID, IsSelected: newState})
}

// UpdateComment handles PUT /gallery/:slug/photos/:photoId/comment
func (h *Handler) UpdateComment(c *gin.Context) {
	photoID, err := uuid.Parse(c.Param("photoId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	var req transport.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.UpdateComment(c.Request.Context(), c.Param("slug"), photoID, req.Comment); httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

func toPhotoResponse(p repository.Photo) transport.PhotoResponse {
	return transport.PhotoResponse{
		ID:                p.ID,
		GalleryID:         p.GalleryID,
		FileKey:           p.FileKey,
		UploadOrder:       p.UploadOrder,
		IsSelected:        p.IsSelected,
		StagingRequested:  p.StagingRequested,
		StagingStyle:      p.StagingStyle,
		BlueHourRequested: p.BlueHourRequested,
		ClientComment:     p.ClientComment,
		CreatedAt:         p.CreatedAt,
	}
}
