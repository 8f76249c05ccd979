package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/pkg/response"
)

type enrollmentService interface {
	ListMine(ctx context.Context, session models.Session) ([]models.EnrollmentDetail, error)
	Enroll(ctx context.Context, session models.Session, req models.CreateEnrollmentRequest) (*models.Enrollment, error)
	Drop(ctx context.Context, session models.Session, enrollmentID string) error
}

// EnrollmentHandler serves the caller's enrollments.
type EnrollmentHandler struct {
	service enrollmentService
}

// NewEnrollmentHandler constructs the handler.
func NewEnrollmentHandler(svc enrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{service: svc}
}

// ListMine godoc
// @Summary My enrollments
// @Tags Enrollments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments/me [get]
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	items, err := h.service.ListMine(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, items, nil)
}

// Enroll godoc
// @Summary Enroll in a course
// @Tags Enrollments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateEnrollmentRequest true "Course"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "ALREADY_ENROLLED or COURSE_FULL"
// @Router /enrollments [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.CreateEnrollmentRequest
	if !bindJSON(c, &req, "invalid enrollment payload") {
		return
	}
	enrollment, err := h.service.Enroll(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// Drop godoc
// @Summary Drop an enrollment
// @Tags Enrollments
// @Security BearerAuth
// @Param id path string true "Enrollment ID"
// @Success 204
// @Router /enrollments/{id} [delete]
func (h *EnrollmentHandler) Drop(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.service.Drop(c.Request.Context(), session, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
