package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/classmeet/classmeet-api/internal/dto"
	"github.com/classmeet/classmeet-api/internal/service"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
	"github.com/classmeet/classmeet-api/pkg/response"
)

// MaterialHandler wires HTTP endpoints to the material service.
type MaterialHandler struct {
	service *service.MaterialService
	scopes  *service.ScopeService
}

// NewMaterialHandler creates a new handler.
func NewMaterialHandler(svc *service.MaterialService, scopes *service.ScopeService) *MaterialHandler {
	return &MaterialHandler{service: svc, scopes: scopes}
}

// List godoc
// @Summary List materials
// @Description Return materials visible to the caller with optional filters
// @Tags Materials
// @Produce json
// @Param subject_id query string false "Subject ID filter"
// @Param session_id query string false "Session ID filter"
// @Param type query string false "Material type filter"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /materials [get]
func (h *MaterialHandler) List(c *gin.Context) {
	access, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var query dto.MaterialQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid material filters"))
		return
	}

	scope, err := h.scopes.ForRecords(c.Request.Context(), access)
	if err != nil {
		response.Error(c, err)
		return
	}

	materials, pagination, err := h.service.List(c.Request.Context(), scope, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, materials, pagination)
}

// Create godoc
// @Summary Link an external material
// @Description Attach an external resource to a subject the caller owns
// @Tags Materials
// @Accept json
// @Produce json
// @Param payload body dto.CreateMaterialRequest true "Material payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /materials [post]
func (h *MaterialHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var req dto.CreateMaterialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid material payload"))
		return
	}

	material, err := h.service.CreateLink(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// Upload godoc
// @Summary Upload a material file
// @Description Store a file under a subject the caller owns
// @Tags Materials
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "Material title"
// @Param subject_id formData string true "Subject ID"
// @Param session_id formData string false "Session ID"
// @Param description formData string false "Description"
// @Param tags formData string false "Comma-separated tags"
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Router /materials/upload [post]
func (h *MaterialHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	in := service.UploadInput{
		Title:     c.PostForm("title"),
		SubjectID: c.PostForm("subject_id"),
		Filename:  fileHeader.Filename,
		Size:      fileHeader.Size,
		Reader:    file,
	}
	if v := c.PostForm("session_id"); v != "" {
		in.SessionID = &v
	}
	if v := c.PostForm("description"); v != "" {
		in.Description = &v
	}
	if v := c.PostForm("tags"); v != "" {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				in.Tags = append(in.Tags, tag)
			}
		}
	}

	material, err := h.service.Upload(c.Request.Context(), claims.UserID, in)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, material)
}

// Download godoc
// @Summary Request a download grant
// @Description Issue a short-lived signed URL for a stored material
// @Tags Materials
// @Produce json
// @Param id path string true "Material ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /materials/{id}/download [get]
func (h *MaterialHandler) Download(c *gin.Context) {
	access, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	scope, err := h.scopes.ForRecords(c.Request.Context(), access)
	if err != nil {
		response.Error(c, err)
		return
	}

	grant, err := h.service.GrantDownload(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grant, nil)
}

// Serve streams a stored file referenced by a signed token. The token
// itself carries the authorization, so this route sits outside the
// session middleware.
func (h *MaterialHandler) Serve(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.ErrSignatureInvalid)
		return
	}

	material, file, err := h.service.Redeem(c.Request.Context(), token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat file"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+material.Title+`"`)
	c.DataFromReader(http.StatusOK, info.Size(), "application/octet-stream", file, nil)
}
