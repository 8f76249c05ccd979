package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-compass-api/internal/dto"
	"github.com/noah-isme/course-compass-api/internal/models"
)

type fakeDashboardSrv struct {
	resp    *dto.DashboardResponse
	hit     bool
	err     error
	session models.Session
}

func (f *fakeDashboardSrv) ForSession(_ context.Context, session models.Session) (*dto.DashboardResponse, bool, error) {
	f.session = session
	return f.resp, f.hit, f.err
}

func TestDashboardHandlerRoutesBySessionRole(t *testing.T) {
	fake := &fakeDashboardSrv{
		resp: &dto.DashboardResponse{Role: models.RoleStudent, Source: "fixtures", Student: &dto.StudentDashboard{}},
		hit:  true,
	}
	handler := NewDashboardHandler(fake)

	c, rec := newTestContext(http.MethodGet, "/dashboard", "", studentSession)
	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "student-1", fake.session.UserID)
	assert.Equal(t, models.RoleStudent, fake.session.Role)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	var body dto.DashboardResponse
	require.NoError(t, json.Unmarshal(envelope.Data, &body))
	assert.Equal(t, models.RoleStudent, body.Role)
	assert.NotNil(t, body.Student)
	assert.Nil(t, body.Faculty)
}

func TestDashboardHandlerUnauthenticated(t *testing.T) {
	fake := &fakeDashboardSrv{}
	handler := NewDashboardHandler(fake)

	c, rec := newTestContext(http.MethodGet, "/dashboard", "", nil)
	handler.Get(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, fake.session.UserID)
}
