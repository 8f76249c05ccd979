package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/pkg/response"
)

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error)
	Mine(ctx context.Context, session models.Session) ([]models.Course, error)
	Get(ctx context.Context, id string) (*models.Course, error)
	Create(ctx context.Context, session models.Session, req models.CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, session models.Session, id string, req models.UpdateCourseRequest) (*models.Course, error)
}

type rosterService interface {
	Roster(ctx context.Context, session models.Session, courseID string) ([]models.RosterEntry, error)
}

// CourseHandler serves the course catalogue.
type CourseHandler struct {
	service courseService
	roster  rosterService
}

// NewCourseHandler constructs the handler.
func NewCourseHandler(svc courseService, roster rosterService) *CourseHandler {
	return &CourseHandler{service: svc, roster: roster}
}

// List godoc
// @Summary List active courses
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param department query string false "Department"
// @Param semester query string false "Semester"
// @Param year query int false "Year"
// @Param instructor query string false "Instructor ID"
// @Param search query string false "Code or title"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Department:   strings.TrimSpace(c.Query("department")),
		Semester:     strings.TrimSpace(c.Query("semester")),
		Year:         queryInt(c, "year", 0),
		InstructorID: strings.TrimSpace(c.Query("instructor")),
		Search:       strings.TrimSpace(c.Query("search")),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 20),
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, items, pagination)
}

// Mine godoc
// @Summary Courses taught by the caller
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses/mine [get]
func (h *CourseHandler) Mine(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	items, err := h.service.Mine(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, items, nil)
}

// Get godoc
// @Summary Course detail
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, course, nil)
}

// Create godoc
// @Summary Create a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.CreateCourseRequest true "Course"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.CreateCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.service.Create(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update a course
// @Tags Courses
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body models.UpdateCourseRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.UpdateCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.service.Update(c.Request.Context(), session, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, course, nil)
}

// Students godoc
// @Summary Course roster
// @Tags Courses
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/students [get]
func (h *CourseHandler) Students(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	items, err := h.roster.Roster(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, items, nil)
}
