package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/course-compass-api/internal/models"
	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

type fakeEnrollmentSrv struct {
	full bool
	req  models.CreateEnrollmentRequest
}

func (f *fakeEnrollmentSrv) ListMine(context.Context, models.Session) ([]models.EnrollmentDetail, error) {
	return nil, nil
}

func (f *fakeEnrollmentSrv) Enroll(_ context.Context, session models.Session, req models.CreateEnrollmentRequest) (*models.Enrollment, error) {
	f.req = req
	if f.full {
		return nil, appErrors.Clone(appErrors.ErrCourseFull, "")
	}
	return &models.Enrollment{ID: "e1", StudentID: session.UserID, CourseID: req.CourseID}, nil
}

func (f *fakeEnrollmentSrv) Drop(context.Context, models.Session, string) error {
	return nil
}

func TestEnrollmentHandlerEnroll(t *testing.T) {
	fake := &fakeEnrollmentSrv{}
	handler := NewEnrollmentHandler(fake)

	c, rec := newTestContext(http.MethodPost, "/enrollments", `{"course_id":"c1"}`, studentSession)
	handler.Enroll(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "c1", fake.req.CourseID)
}

func TestEnrollmentHandlerEnrollErrors(t *testing.T) {
	handler := NewEnrollmentHandler(&fakeEnrollmentSrv{full: true})

	c, rec := newTestContext(http.MethodPost, "/enrollments", `{"course_id":`, studentSession)
	handler.Enroll(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodPost, "/enrollments", `{"course_id":"c1"}`, studentSession)
	handler.Enroll(c)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "COURSE_FULL", decodeEnvelope(t, rec).Error.Code)
}
