package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func newEnrollmentFixture() (*EnrollmentService, *fakeEnrollmentRepo, *fakeAuditWriter) {
	enrollments := &fakeEnrollmentRepo{}
	courses := &fakeCourseRepo{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Name: "Algorithms", Code: "CSC301", CreditUnits: 3},
	}}
	students := &fakeStudentRepo{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", UserID: "user-1", Name: "Ada"},
		"stu-2": {ID: "stu-2", UserID: "user-2", Name: "Grace"},
	}}
	audit := &fakeAuditWriter{}
	svc := NewEnrollmentService(enrollments, courses, students, audit, nil, config.CacheConfig{}, nil)
	return svc, enrollments, audit
}

func studentPrincipal(id string) authz.Principal {
	return authz.Principal{UserID: "user-" + id, Role: models.RoleStudent, StudentID: id}
}

func TestEnrollSelf(t *testing.T) {
	svc, enrollments, audit := newEnrollmentFixture()
	p := studentPrincipal("stu-1")

	err := svc.Enroll(context.Background(), p, "course-1", models.EnrollmentRequest{})
	require.NoError(t, err)
	assert.True(t, enrollments.edges[edgeKey("course-1", "stu-1")])
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionEnroll, audit.logs[0].Action)
}

func TestEnrollTwiceConflicts(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()
	p := studentPrincipal("stu-1")

	require.NoError(t, svc.Enroll(context.Background(), p, "course-1", models.EnrollmentRequest{}))
	err := svc.Enroll(context.Background(), p, "course-1", models.EnrollmentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyEnrolled.Code, appErrors.FromError(err).Code)
}

func TestUnenrollWithoutEnrollmentConflicts(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()
	p := studentPrincipal("stu-1")

	err := svc.Unenroll(context.Background(), p, "course-1", models.EnrollmentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotEnrolled.Code, appErrors.FromError(err).Code)
}

func TestEnrollThenUnenroll(t *testing.T) {
	svc, enrollments, _ := newEnrollmentFixture()
	p := studentPrincipal("stu-1")

	require.NoError(t, svc.Enroll(context.Background(), p, "course-1", models.EnrollmentRequest{}))
	require.NoError(t, svc.Unenroll(context.Background(), p, "course-1", models.EnrollmentRequest{}))
	assert.False(t, enrollments.edges[edgeKey("course-1", "stu-1")])
}

func TestEnrollUnknownCourse(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()
	p := studentPrincipal("stu-1")

	err := svc.Enroll(context.Background(), p, "course-missing", models.EnrollmentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestStudentCannotEnrollAnother(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()
	p := studentPrincipal("stu-1")

	err := svc.Enroll(context.Background(), p, "course-1", models.EnrollmentRequest{StudentID: "stu-2"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestStudentWithoutRecordCannotEnroll(t *testing.T) {
	svc, _, _ := newEnrollmentFixture()
	p := authz.Principal{UserID: "user-9", Role: models.RoleStudent}

	err := svc.Enroll(context.Background(), p, "course-1", models.EnrollmentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoStudentProfile.Code, appErrors.FromError(err).Code)
}

func TestAdminEnrollsOnBehalf(t *testing.T) {
	svc, enrollments, _ := newEnrollmentFixture()
	p := authz.Principal{UserID: "admin-1", Role: models.RoleAdmin}

	require.NoError(t, svc.Enroll(context.Background(), p, "course-1", models.EnrollmentRequest{StudentID: "stu-2"}))
	assert.True(t, enrollments.edges[edgeKey("course-1", "stu-2")])

	err := svc.Enroll(context.Background(), p, "course-1", models.EnrollmentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEnrollInvalidatesStudentDetailCache(t *testing.T) {
	enrollments := &fakeEnrollmentRepo{}
	courses := &fakeCourseRepo{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Code: "CSC301", CreditUnits: 3},
	}}
	students := &fakeStudentRepo{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", UserID: "user-1"},
	}}
	cache := &fakeCache{}
	svc := NewEnrollmentService(enrollments, courses, students, &fakeAuditWriter{}, cache, config.CacheConfig{Enabled: true}, nil)

	require.NoError(t, svc.Enroll(context.Background(), studentPrincipal("stu-1"), "course-1", models.EnrollmentRequest{}))
	assert.Contains(t, cache.invalidated, "student:detail:stu-1")
}
