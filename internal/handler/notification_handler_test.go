package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-compass-api/internal/models"
	"github.com/noah-isme/course-compass-api/internal/service"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type fakeNotificationSrv struct {
	filter models.NotificationFilter
	read   []string
}

func (f *fakeNotificationSrv) List(_ context.Context, _ models.Session, filter models.NotificationFilter) (*service.NotificationList, error) {
	f.filter = filter
	return &service.NotificationList{
		Items:       []models.Notification{{ID: "n1", Title: "Graded"}},
		Pagination:  &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1},
		UnreadCount: 3,
	}, nil
}

func (f *fakeNotificationSrv) MarkRead(_ context.Context, _ models.Session, id string) error {
	if id == "missing" {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	f.read = append(f.read, id)
	return nil
}

func (f *fakeNotificationSrv) MarkAllRead(context.Context, models.Session) (int64, error) {
	return 4, nil
}

func TestNotificationHandlerList(t *testing.T) {
	fake := &fakeNotificationSrv{}
	handler := NewNotificationHandler(fake)

	c, rec := newTestContext(http.MethodGet, "/notifications?unread=true&page=2&page_size=5", "", studentSession)
	handler.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.NotificationFilter{UnreadOnly: true, Page: 2, PageSize: 5}, fake.filter)

	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, float64(3), envelope.Meta["unread_count"])
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.TotalCount)
}

func TestNotificationHandlerMarkRead(t *testing.T) {
	fake := &fakeNotificationSrv{}
	handler := NewNotificationHandler(fake)

	c, rec := newTestContext(http.MethodPost, "/notifications/n1/read", "", studentSession)
	c.Params = gin.Params{{Key: "id", Value: "n1"}}
	handler.MarkRead(c)
	c.Writer.WriteHeaderNow()
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"n1"}, fake.read)

	c, rec = newTestContext(http.MethodPost, "/notifications/missing/read", "", studentSession)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	handler.MarkRead(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNotificationHandlerMarkAllRead(t *testing.T) {
	handler := NewNotificationHandler(&fakeNotificationSrv{})

	c, rec := newTestContext(http.MethodPost, "/notifications/read-all", "", studentSession)
	handler.MarkAllRead(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"updated":4}`, string(decodeEnvelope(t, rec).Data))
}
