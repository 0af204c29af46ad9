package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classmeet/classmeet-api/internal/dto"
	"github.com/classmeet/classmeet-api/internal/models"
	"github.com/classmeet/classmeet-api/internal/service"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
	"github.com/classmeet/classmeet-api/pkg/response"
)

// ClassHandler wires HTTP endpoints to the class service.
type ClassHandler struct {
	service *service.ClassService
	scopes  *service.ScopeService
}

// NewClassHandler creates a new handler.
func NewClassHandler(svc *service.ClassService, scopes *service.ScopeService) *ClassHandler {
	return &ClassHandler{service: svc, scopes: scopes}
}

// List godoc
// @Summary List classes
// @Description Teachers get their classes with rosters; students get their enrolled class or the joinable catalog
// @Tags Classes
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	access, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	scope, err := h.scopes.ForClasses(access)
	if err != nil {
		response.Error(c, err)
		return
	}

	if access.Role == models.RoleTeacher {
		classes, err := h.service.ListForTeacher(c.Request.Context(), scope)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, classes, nil)
		return
	}

	result, err := h.service.ResolveForStudent(c.Request.Context(), scope)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Get godoc
// @Summary Get one class
// @Description Return a class with roster and subjects when visible to the caller
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	access, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), access, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create a class
// @Description Create a class owned by the calling teacher
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body dto.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}

	class, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// AddStudent godoc
// @Summary Add a student to a class roster
// @Description Append a student to the roster; students may belong to one class only
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body dto.AddStudentRequest true "Student payload"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /classes/{id}/students [post]
func (h *ClassHandler) AddStudent(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var req dto.AddStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid student payload"))
		return
	}

	if err := h.service.AddStudent(c.Request.Context(), claims.UserID, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
