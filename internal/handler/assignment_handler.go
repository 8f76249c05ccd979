package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/pkg/response"
)

type assignmentService interface {
	ListForCourse(ctx context.Context, session models.Session, courseID string) ([]models.Assignment, error)
	Create(ctx context.Context, session models.Session, courseID string, req models.CreateAssignmentRequest) (*models.Assignment, error)
	Pending(ctx context.Context, session models.Session) ([]models.PendingAssignment, error)
}

type submissionService interface {
	Submit(ctx context.Context, session models.Session, assignmentID string, req models.SubmitRequest) (*models.Submission, error)
	ListForAssignment(ctx context.Context, session models.Session, assignmentID string) ([]models.SubmissionDetail, error)
	Grade(ctx context.Context, session models.Session, submissionID string, req models.GradeSubmissionRequest) (*models.Submission, error)
}

// AssignmentHandler serves coursework and submissions.
type AssignmentHandler struct {
	assignments assignmentService
	submissions submissionService
}

// NewAssignmentHandler constructs the handler.
func NewAssignmentHandler(assignments assignmentService, submissions submissionService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments, submissions: submissions}
}

// ListForCourse godoc
// @Summary Assignments of a course
// @Description Students only see published and closed assignments.
// @Tags Assignments
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/assignments [get]
func (h *AssignmentHandler) ListForCourse(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	items, err := h.assignments.ListForCourse(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, items, nil)
}

// Create godoc
// @Summary Create an assignment
// @Tags Assignments
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.CreateAssignmentRequest true "Assignment"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.CreateAssignmentRequest
	if !bindJSON(c, &req, "invalid assignment payload") {
		return
	}
	item, err := h.assignments.Create(c.Request.Context(), session, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Pending godoc
// @Summary Unsubmitted assignments due for the caller
// @Tags Assignments
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assignments/pending [get]
func (h *AssignmentHandler) Pending(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	items, err := h.assignments.Pending(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, items, nil)
}

// Submit godoc
// @Summary Submit or resubmit work
// @Tags Submissions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Assignment ID"
// @Param payload body models.SubmitRequest true "Submission"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "ALREADY_GRADED"
// @Router /assignments/{id}/submissions [post]
func (h *AssignmentHandler) Submit(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.SubmitRequest
	if !bindJSON(c, &req, "invalid submission payload") {
		return
	}
	item, err := h.submissions.Submit(c.Request.Context(), session, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Submissions godoc
// @Summary Submissions for an assignment
// @Tags Submissions
// @Security BearerAuth
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 200 {object} response.Envelope
// @Router /assignments/{id}/submissions [get]
func (h *AssignmentHandler) Submissions(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	items, err := h.submissions.ListForAssignment(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, items, nil)
}

// Grade godoc
// @Summary Grade a submission
// @Tags Submissions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Submission ID"
// @Param payload body models.GradeSubmissionRequest true "Grade"
// @Success 200 {object} response.Envelope
// @Router /submissions/{id}/grade [post]
func (h *AssignmentHandler) Grade(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.GradeSubmissionRequest
	if !bindJSON(c, &req, "invalid grade payload") {
		return
	}
	item, err := h.submissions.Grade(c.Request.Context(), session, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, item, nil)
}
