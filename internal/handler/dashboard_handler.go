package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-compass-api/internal/dto"
	"github.com/noah-isme/course-compass-api/internal/middleware"
	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/pkg/response"
)

type dashboardService interface {
	ForSession(ctx context.Context, session models.Session) (*dto.DashboardResponse, bool, error)
}

// DashboardHandler routes the caller to the dashboard of their role.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(svc dashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Get godoc
// @Summary Role dashboard
// @Description Students get today's classes and pending work, faculty their courses and rosters, admins platform totals.
// @Tags Dashboard
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope{data=dto.DashboardResponse}
// @Failure 401 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	resp, hit, err := h.service.ForSession(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	respondOK(c, resp, nil)
}
