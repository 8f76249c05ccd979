package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-compass-api/internal/middleware"
	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/internal/service"
	"github.com/noah-isme/course-compass-api/pkg/response"
)

type gradeService interface {
	ListMine(ctx context.Context, session models.Session) (*service.GradeList, error)
	Record(ctx context.Context, session models.Session, req models.CreateGradeRequest) (*models.Grade, error)
	Export(ctx context.Context, session models.Session, format models.ReportFormat) (*service.ExportFile, error)
}

type reportService interface {
	CreateTranscript(ctx context.Context, session models.Session) (*models.StoredReport, error)
	Download(ctx context.Context, session models.Session, token string) (*service.ExportFile, error)
}

// GradeHandler serves grades, exports and stored transcripts.
type GradeHandler struct {
	grades  gradeService
	reports reportService
}

// NewGradeHandler constructs the handler.
func NewGradeHandler(grades gradeService, reports reportService) *GradeHandler {
	return &GradeHandler{grades: grades, reports: reports}
}

// ListMine godoc
// @Summary My grades
// @Description meta.average carries the mean grade value, omitted when there are no grades.
// @Tags Grades
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /grades/me [get]
func (h *GradeHandler) ListMine(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	list, err := h.grades.ListMine(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	if list.Average != nil {
		middleware.SetMeta(c, "average", *list.Average)
	}
	respondOK(c, list.Items, nil)
}

// Record godoc
// @Summary Record a grade
// @Tags Grades
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateGradeRequest true "Grade"
// @Success 201 {object} response.Envelope
// @Router /grades [post]
func (h *GradeHandler) Record(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.CreateGradeRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	grade, err := h.grades.Record(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// Export godoc
// @Summary Download my grades
// @Tags Grades
// @Security BearerAuth
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} binary
// @Router /grades/me/export [get]
func (h *GradeHandler) Export(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	format := models.ReportFormat(strings.TrimSpace(c.Query("format")))
	file, err := h.grades.Export(c.Request.Context(), session, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}

// CreateTranscript godoc
// @Summary Store a transcript PDF and return a signed download link
// @Tags Reports
// @Security BearerAuth
// @Produce json
// @Success 201 {object} response.Envelope{data=models.StoredReport}
// @Router /reports/transcript [post]
func (h *GradeHandler) CreateTranscript(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	report, err := h.reports.CreateTranscript(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, report)
}

// Download godoc
// @Summary Download a stored report
// @Tags Reports
// @Security BearerAuth
// @Produce application/pdf
// @Param token query string true "Signed token"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /reports/download [get]
func (h *GradeHandler) Download(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	file, err := h.reports.Download(c.Request.Context(), session, c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, file.Filename, file.ContentType, file.Data)
}
