package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type fakeUserReader struct {
	users map[string]*models.User
}

func (f *fakeUserReader) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		copy := *u
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func newCourseFixture() (*CourseService, *fakeCourseRepo, *fakeEnrollmentRepo) {
	courses := &fakeCourseRepo{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Name: "Algorithms", Code: "CSC301", CreditUnits: 3, LecturerID: "lect-1"},
	}}
	enrollments := &fakeEnrollmentRepo{courseStudents: map[string][]models.Student{
		"course-1": {{ID: "stu-1", Name: "Ada"}},
	}}
	users := &fakeUserReader{users: map[string]*models.User{
		"lect-1": {ID: "lect-1", Role: models.RoleLecturer, FullName: "Dr. Grace"},
		"admin-1": {ID: "admin-1", Role: models.RoleAdmin},
	}}
	return NewCourseService(courses, enrollments, users, nil, nil), courses, enrollments
}

func TestCreateCourseDuplicateCodeConflicts(t *testing.T) {
	svc, _, _ := newCourseFixture()
	p := authz.Principal{UserID: "lect-1", Role: models.RoleLecturer}

	_, err := svc.Create(context.Background(), p, models.CreateCourseRequest{
		Name:        "Algorithms II",
		Code:        "CSC301",
		CreditUnits: 3,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCreateCourseDefaultsLecturerToCaller(t *testing.T) {
	svc, repo, _ := newCourseFixture()
	p := authz.Principal{UserID: "lect-1", Role: models.RoleLecturer}

	course, err := svc.Create(context.Background(), p, models.CreateCourseRequest{
		Name:        "Compilers",
		Code:        "CSC402",
		CreditUnits: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "lect-1", course.LecturerID)
	assert.Equal(t, "lect-1", repo.courses[course.ID].LecturerID)
}

func TestCreateCourseRejectsNonLecturerReference(t *testing.T) {
	svc, _, _ := newCourseFixture()
	p := authz.Principal{UserID: "admin-1", Role: models.RoleAdmin}

	_, err := svc.Create(context.Background(), p, models.CreateCourseRequest{
		Name:        "Databases",
		Code:        "CSC305",
		CreditUnits: 3,
		LecturerID:  "admin-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateCourseRejectsZeroCreditUnits(t *testing.T) {
	svc, _, _ := newCourseFixture()
	p := authz.Principal{UserID: "lect-1", Role: models.RoleLecturer}

	_, err := svc.Create(context.Background(), p, models.CreateCourseRequest{
		Name: "Seminar",
		Code: "CSC000",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentCannotManageCourses(t *testing.T) {
	svc, _, _ := newCourseFixture()
	p := studentPrincipal("stu-1")

	_, err := svc.Create(context.Background(), p, models.CreateCourseRequest{Name: "X", Code: "X1", CreditUnits: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), p, "course-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCourseRoster(t *testing.T) {
	svc, _, _ := newCourseFixture()

	students, err := svc.Students(context.Background(), studentPrincipal("stu-1"), "course-1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Ada", students[0].Name)

	_, err = svc.Students(context.Background(), studentPrincipal("stu-1"), "course-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateCourseChecksCodeAgainstOthers(t *testing.T) {
	svc, repo, _ := newCourseFixture()
	p := authz.Principal{UserID: "admin-1", Role: models.RoleAdmin}
	repo.courses["course-2"] = &models.Course{ID: "course-2", Name: "Databases", Code: "CSC305", CreditUnits: 3}

	// Keeping its own code is fine.
	_, err := svc.Update(context.Background(), p, "course-1", models.UpdateCourseRequest{
		Name: "Algorithms", Code: "CSC301", CreditUnits: 4,
	})
	require.NoError(t, err)

	// Taking another course's code conflicts.
	_, err = svc.Update(context.Background(), p, "course-1", models.UpdateCourseRequest{
		Name: "Algorithms", Code: "CSC305", CreditUnits: 4,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}
