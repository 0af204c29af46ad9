package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/classmeet/classmeet-api/internal/dto"
	"github.com/classmeet/classmeet-api/internal/service"
	appErrors "github.com/classmeet/classmeet-api/pkg/errors"
	"github.com/classmeet/classmeet-api/pkg/response"
)

// AttendanceHandler wires HTTP endpoints to the attendance service.
type AttendanceHandler struct {
	service *service.AttendanceService
	reports *service.ReportService
	scopes  *service.ScopeService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService, reports *service.ReportService, scopes *service.ScopeService) *AttendanceHandler {
	return &AttendanceHandler{service: svc, reports: reports, scopes: scopes}
}

// List godoc
// @Summary List attendance records
// @Description Students get their own records; teachers get records for sessions they own
// @Tags Attendance
// @Produce json
// @Param session_id query string false "Session ID filter"
// @Param student_id query string false "Student ID filter (teachers only)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	access, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var query dto.AttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance filters"))
		return
	}

	scope, err := h.scopes.ForAttendance(access, query.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.service.List(c.Request.Context(), scope, query.SessionID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Mark godoc
// @Summary Mark attendance
// @Description Record or correct a student's attendance in a session the caller owns
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var req dto.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	record, err := h.service.Mark(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Report godoc
// @Summary Export attendance report
// @Description Render the caller's visible attendance as CSV or PDF
// @Tags Attendance
// @Produce text/csv
// @Produce application/pdf
// @Param session_id query string false "Session ID filter"
// @Param student_id query string false "Student ID filter (teachers only)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /attendance/report [get]
func (h *AttendanceHandler) Report(c *gin.Context) {
	access, ok := scopeFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}

	var query dto.ReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report filters"))
		return
	}

	scope, err := h.scopes.ForAttendance(access, query.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.reports.Generate(c.Request.Context(), scope, query)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
