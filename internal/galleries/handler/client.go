package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/service"
	"github.com/npsfilm/proof-perfect-sub000/internal/galleries/transport"
	"github.com/npsfilm/proof-perfect-sub000/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// referenceFileField is the multipart form field carrying the optional
// reference file on a finalize call.
const referenceFileField = "referenceFile"

// RegisterClientRoutes registers the public client-facing gallery routes
func (h *Handler) RegisterClientRoutes(rg *gin.RouterGroup) {
	rg.GET("/:slug", h.ClientView)
	rg.POST("/:slug/finalize", h.Finalize)
}

// ClientView handles GET /api/v1/gallery/:slug
func (h *Handler) ClientView(c *gin.Context) {
	resp, err := h.svc.ClientView(c.Request.Context(), c.Param("slug"))
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

// Finalize handles POST /api/v1/gallery/:slug/finalize. The body is either
// plain JSON, or multipart form data with a "payload" JSON field plus an
// optional reference file.
func (h *Handler) Finalize(c *gin.Context) {
	req, ref, ok := h.bindFinalize(c)
	if !ok {
		return
	}

	resp, err := h.svc.Finalize(c.Request.Context(), c.Param("slug"), req, ref)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, resp)
}

func (h *Handler) bindFinalize(c *gin.Context) (transport.FinalizeRequest, *service.ReferenceUpload, bool) {
	var req transport.FinalizeRequest

	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return req, nil, false
		}
		if err := h.val.Struct(req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
			return req, nil, false
		}
		return req, nil, true
	}

	payload := c.PostForm("payload")
	if payload == "" {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, nil, false
	}
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, nil, false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return req, nil, false
	}

	fileHeader, err := c.FormFile(referenceFileField)
	if err != nil {
		if err == http.ErrMissingFile {
			return req, nil, true
		}
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, nil, false
	}

	file, err := fileHeader.Open()
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return req, nil, false
	}
	// The service reads the file during upload; gin closes multipart temp
	// files when the request ends.
	ref := &service.ReferenceUpload{
		FileName:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
		Reader:      file,
	}
	return req, ref, true
}
