package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-compass-api/internal/middleware"
	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
	"github.com/noah-isme/course-compass-api/pkg/response"
)

// requireSession returns the caller or writes 401.
func requireSession(c *gin.Context) (models.Session, bool) {
	session := middleware.Session(c)
	if !session.Authenticated() {
		response.Error(c, appErrors.ErrUnauthorized)
		return models.Session{}, false
	}
	return session, true
}

// bindJSON decodes the body into dest or writes 400.
func bindJSON(c *gin.Context, dest interface{}, message string) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// respondOK writes a 200 envelope carrying any meta set during the request.
func respondOK(c *gin.Context, data interface{}, pagination *models.Pagination) {
	response.JSON(c, http.StatusOK, data, pagination, middleware.Meta(c))
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
