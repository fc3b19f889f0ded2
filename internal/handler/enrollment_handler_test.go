package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/campushq/campus-api/internal/middleware"
	"github.com/campushq/campus-api/internal/models"
	"github.com/campushq/campus-api/internal/service"
)

type fakeSelectionRepo struct {
	exists      bool
	deletedRows int64
	created     *models.CourseSelection
}

func (f *fakeSelectionRepo) Exists(context.Context, string, string) (bool, error) {
	return f.exists, nil
}

func (f *fakeSelectionRepo) Create(_ context.Context, selection *models.CourseSelection) error {
	f.created = selection
	return nil
}

func (f *fakeSelectionRepo) Delete(context.Context, string, string) (int64, error) {
	return f.deletedRows, nil
}

func (f *fakeSelectionRepo) ListByStudent(context.Context, string) ([]models.CourseSelectionDetail, error) {
	return nil, nil
}

func (f *fakeSelectionRepo) SumCredits(context.Context, string) (int, error) {
	return 0, nil
}

func (f *fakeSelectionRepo) CountByCourse(context.Context, string) (int, error) {
	return 0, nil
}

type fakeCourseReader struct {
	course *models.Course
}

func (f *fakeCourseReader) FindByID(context.Context, string) (*models.Course, error) {
	return f.course, nil
}

type fakeScheduleReader struct{}

func (f *fakeScheduleReader) ListByCourse(context.Context, string) ([]models.Schedule, error) {
	return nil, nil
}

func (f *fakeScheduleReader) ListByStudent(context.Context, string) ([]models.Schedule, error) {
	return nil, nil
}

func newEnrollmentHandlerForTest(selections *fakeSelectionRepo) *EnrollmentHandler {
	svc := service.NewEnrollmentService(
		selections,
		&fakeCourseReader{course: &models.Course{ID: "course-1", Credit: 3}},
		&fakeScheduleReader{},
		30,
		nil,
		nil,
	)
	return NewEnrollmentHandler(svc)
}

func TestEnrollmentHandlerSelectRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandlerForTest(&fakeSelectionRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/selections", strings.NewReader(`{}`))

	handler.Select(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEnrollmentHandlerSelectSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeSelectionRepo{}
	handler := newEnrollmentHandlerForTest(repo)

	body := `{"course_id":"course-1","academic_year":"2026-2027","semester":"1"}`
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/selections", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Select(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	if assert.NotNil(t, repo.created) {
		assert.Equal(t, "student-1", repo.created.StudentID)
		assert.Equal(t, "course-1", repo.created.CourseID)
	}
}

func TestEnrollmentHandlerSelectRejectsBadPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandlerForTest(&fakeSelectionRepo{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/selections", strings.NewReader(`{not json`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Select(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEnrollmentHandlerDropNotEnrolled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandlerForTest(&fakeSelectionRepo{deletedRows: 0})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/selections/course-1", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "course-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Drop(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollmentHandlerDropSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newEnrollmentHandlerForTest(&fakeSelectionRepo{deletedRows: 1})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodDelete, "/selections/course-1", nil)
	c.Params = gin.Params{{Key: "courseId", Value: "course-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: models.RoleStudent})

	handler.Drop(c)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
