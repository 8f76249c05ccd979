package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
	"github.com/noah-isme/course-compass-api/pkg/response"
)

type profileService interface {
	Get(ctx context.Context, session models.Session) (*models.Profile, error)
	Update(ctx context.Context, session models.Session, req models.UpdateProfileRequest) (*models.Profile, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.Profile, *models.Pagination, error)
	UpdateRole(ctx context.Context, actor models.Session, userID string, req models.UpdateRoleRequest) (*models.Profile, error)
	Deactivate(ctx context.Context, actor models.Session, userID string) error
}

// ProfileHandler serves the caller's profile and admin user management.
type ProfileHandler struct {
	service profileService
}

// NewProfileHandler constructs the handler.
func NewProfileHandler(svc profileService) *ProfileHandler {
	return &ProfileHandler{service: svc}
}

// Get godoc
// @Summary Current profile
// @Tags Profile
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /profile [get]
func (h *ProfileHandler) Get(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	profile, err := h.service.Get(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, profile, nil)
}

// Update godoc
// @Summary Update current profile
// @Tags Profile
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param payload body models.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Router /profile [put]
func (h *ProfileHandler) Update(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	profile, err := h.service.Update(c.Request.Context(), session, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, profile, nil)
}

// List godoc
// @Summary List users
// @Tags Users
// @Security BearerAuth
// @Produce json
// @Param role query string false "student, faculty or admin"
// @Param search query string false "Name or email"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /users [get]
func (h *ProfileHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 20),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if raw := strings.TrimSpace(c.Query("role")); raw != "" {
		role := models.UserRole(strings.ToLower(raw))
		if !role.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "role must be student, faculty or admin"))
			return
		}
		filter.Role = &role
	}
	items, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, items, pagination)
}

// UpdateRole godoc
// @Summary Change a user's role
// @Tags Users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body models.UpdateRoleRequest true "New role"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/role [patch]
func (h *ProfileHandler) UpdateRole(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	var req models.UpdateRoleRequest
	if !bindJSON(c, &req, "invalid role payload") {
		return
	}
	profile, err := h.service.UpdateRole(c.Request.Context(), session, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondOK(c, profile, nil)
}

// Deactivate godoc
// @Summary Deactivate a user
// @Tags Users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Router /users/{id} [delete]
func (h *ProfileHandler) Deactivate(c *gin.Context) {
	session, ok := requireSession(c)
	if !ok {
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), session, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
