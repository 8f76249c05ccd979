package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-compass-api/internal/dto"
	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/pkg/response"
)

type scheduleService interface {
	ListMine(ctx context.Context, session models.Session) ([]models.ClassSession, error)
	ListForCourse(ctx context.Context, courseID string) ([]models.ClassSession, error)
	ParseDate(raw string) (time.Time, error)
	ParseMonth(raw string) (int, time.Month, error)
	DayView(ctx context.Context, session models.Session, date time.Time) (*dto.DayView, error)
	Calendar(ctx context.Context, session models.Session, year int, month time.Month) (*dto.CalendarMonth, error)
	Occurrences(ctx context.Context, session models.Session, from, to time.Time) ([]dto.OccurrenceView, error)
	ICS(ctx context.Context, session models.Session) (string, error)
	TimetablePDF(ctx context.Context, session models.Session) ([]byte, error)
	Create(ctx context.Context, session models.Session, req models.ScheduleRequest) (*models.ClassSession, error)
	Update(ctx context.Context, session models.Session, id string, req models.ScheduleRequest) (*models.ClassSession, error)
	Delete(ctx context.Context, session models.Session, id string) error
}

// ScheduleHandler serves weekly schedules and their projections onto dates.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc scheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Mine godoc
// @Summary My weekly sessions
// @Description Students see sessions of their active enrollments, faculty see sessions they teach.
// @Tags Schedules
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules/me [get]
func (h *ScheduleHandler) Mine(c *gin.Context) {
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

// Day godoc
// @Summary Sessions on a date
// @Tags Schedules
// @Security BearerAuth
// @Produce json
// @Param date query string false "YYYY-MM-DD, defaults to today"
// @Success 200 {object} response.Envelope{data=dto.DayView}
// @Failure 400 {object} response.Envelope
// @Router /schedules/me/day [get]
func (h *ScheduleHandler) Day(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	date, err := h.service.ParseDate(c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.DayView(c.Request.Context(), session, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, view, nil)
}

// Calendar godoc
// @Summary Month calendar
// @Tags Schedules
// @Security BearerAuth
// @Produce json
// @Param month query string false "YYYY-MM, defaults to the current month"
// @Success 200 {object} response.Envelope{data=dto.CalendarMonth}
// @Router /schedules/me/calendar [get]
func (h *ScheduleHandler) Calendar(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	year, month, err := h.service.ParseMonth(c.Query("month"))
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.service.Calendar(c.Request.Context(), session, year, month)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, view, nil)
}

// Occurrences godoc
// @Summary Concrete class meetings in a date range
// @Tags Schedules
// @Security BearerAuth
// @Produce json
// @Param from query string false "YYYY-MM-DD, defaults to today"
// @Param to query string false "YYYY-MM-DD, defaults to from + 6 days"
// @Success 200 {object} response.Envelope
// @Router /schedules/me/occurrences [get]
func (h *ScheduleHandler) Occurrences(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	from, err := h.service.ParseDate(c.Query("from"))
	if err != nil {
		response.Error(c, err)
		return
	}
	to := from.AddDate(0, 0, 6)
	if raw := c.Query("to"); raw != "" {
		if to, err = h.service.ParseDate(raw); err != nil {
			response.Error(c, err)
			return
		}
	}
	items, err := h.service.Occurrences(c.Request.Context(), session, from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, items, nil)
}

// ICS godoc
// @Summary Weekly schedule as iCalendar
// @Tags Schedules
// @Security BearerAuth
// @Produce text/calendar
// @Success 200 {string} string
// @Router /schedules/me.ics [get]
func (h *ScheduleHandler) ICS(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	body, err := h.service.ICS(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, "schedule.ics", "text/calendar; charset=utf-8", []byte(body))
}

// Timetable godoc
// @Summary Weekly timetable PDF
// @Tags Schedules
// @Security BearerAuth
// @Produce application/pdf
// @Success 200 {file} binary
// @Router /schedules/me/timetable.pdf [get]
func (h *ScheduleHandler) Timetable(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	body, err := h.service.TimetablePDF(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, "timetable.pdf", "application/pdf", body)
}

// ForCourse godoc
// @Summary Sessions of a course
// @Tags Schedules
// @Security BearerAuth
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/schedules [get]
func (h *ScheduleHandler) ForCourse(c *gin.Context) {
	items, err := h.service.ListForCourse(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, items, nil)
}

// Create godoc
// @Summary Add a weekly session
// @Tags Schedules
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.ScheduleRequest true "Session"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.ScheduleRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	item, err := h.service.Create(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// Update godoc
// @Summary Replace a weekly session
// @Tags Schedules
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body models.ScheduleRequest true "Session"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.ScheduleRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	item, err := h.service.Update(c.Request.Context(), session, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, item, nil)
}

// Delete godoc
// @Summary Remove a weekly session
// @Tags Schedules
// @Security BearerAuth
// @Param id path string true "Session ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), session, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
