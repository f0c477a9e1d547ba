package handler

import (
	"net/http"

	"github.com/npsfilm/proof-perfect-sub000/internal/reopen/service"
	"github.com/npsfilm/proof-perfect-sub000/internal/reopen/transport"
	"github.com/npsfilm/proof-perfect-sub000/platform/httpkit"
	"github.com/npsfilm/proof-perfect-sub000/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for reopen requests
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new reopen handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterClientRoutes registers the client-facing route under a gallery slug
func (h *Handler) RegisterClientRoutes(rg *gin.RouterGroup) {
	rg.POST("/:slug/reopen-requests", h.Request)
}

// RegisterAdminRoutes registers the studio-facing arbitration routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("/:id/resolve", h.Resolve)
}

// Request handles POST /api/v1/gallery/:slug/reopen-requests
func (h *Handler) Request(c *gin.Context) {
	var req transport.CreateReopenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Request(c.Request.Context(), c.Param("slug"), req)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, resp)
}

// List handles GET /api/v1/admin/reopen-requests
func (h *Handler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// Resolve handles POST /api/v1/admin/reopen-requests/:id/resolve
func (h *Handler) Resolve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.ResolveReopenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	resp, err := h.svc.Resolve(c.Request.Context(), id, req, identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}
