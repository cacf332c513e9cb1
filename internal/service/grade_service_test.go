package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/gradebook"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func newGradeFixture(grades map[string]*models.Grade) (*GradeService, *fakeGradeRepo) {
	gradeRepo := &fakeGradeRepo{grades: grades}
	students := &fakeStudentRepo{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", UserID: "user-1", Name: "Ada"},
	}}
	courses := &fakeCourseRepo{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Code: "CSC301", CreditUnits: 3, LecturerID: "lect-1"},
	}}
	svc := NewGradeService(gradeRepo, students, courses, &fakeAuditWriter{}, gradebook.DefaultScale(), nil, config.CacheConfig{}, nil, nil)
	return svc, gradeRepo
}

func lecturerPrincipal() authz.Principal {
	return authz.Principal{UserID: "lect-1", Role: models.RoleLecturer}
}

func TestCreateGradeDerivesBand(t *testing.T) {
	svc, _ := newGradeFixture(nil)

	grade, err := svc.Create(context.Background(), lecturerPrincipal(), models.CreateGradeRequest{
		StudentID: "stu-1",
		CourseID:  "course-1",
		Score:     72,
	})
	require.NoError(t, err)
	assert.Equal(t, "A", grade.Letter)
	assert.Equal(t, 5.0, grade.GradePoint)
	assert.True(t, grade.NormalProgress)
}

func TestCreateFailingGradeFlagsProgress(t *testing.T) {
	svc, _ := newGradeFixture(nil)

	grade, err := svc.Create(context.Background(), lecturerPrincipal(), models.CreateGradeRequest{
		StudentID: "stu-1",
		CourseID:  "course-1",
		Score:     30,
	})
	require.NoError(t, err)
	assert.Equal(t, "F", grade.Letter)
	assert.Equal(t, 0.0, grade.GradePoint)
	assert.False(t, grade.NormalProgress)
}

func TestCreateGradeRejectsOutOfRangeScore(t *testing.T) {
	svc, _ := newGradeFixture(nil)

	_, err := svc.Create(context.Background(), lecturerPrincipal(), models.CreateGradeRequest{
		StudentID: "stu-1",
		CourseID:  "course-1",
		Score:     101,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateDuplicateGradeConflicts(t *testing.T) {
	svc, _ := newGradeFixture(nil)
	req := models.CreateGradeRequest{StudentID: "stu-1", CourseID: "course-1", Score: 80}

	_, err := svc.Create(context.Background(), lecturerPrincipal(), req)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), lecturerPrincipal(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateGrade.Code, appErrors.FromError(err).Code)
}

func TestStudentCannotCreateGrade(t *testing.T) {
	svc, _ := newGradeFixture(nil)

	_, err := svc.Create(context.Background(), studentPrincipal("stu-1"), models.CreateGradeRequest{
		StudentID: "stu-1",
		CourseID:  "course-1",
		Score:     90,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUpdateGradeRederivesBand(t *testing.T) {
	svc, repo := newGradeFixture(map[string]*models.Grade{
		"grade-1": {ID: "grade-1", StudentID: "stu-1", CourseID: "course-1", Score: 80, Letter: "A", GradePoint: 5.0, NormalProgress: true},
	})

	grade, err := svc.Update(context.Background(), lecturerPrincipal(), "grade-1", models.UpdateGradeRequest{Score: 40})
	require.NoError(t, err)
	assert.Equal(t, "F", grade.Letter)
	assert.Equal(t, 0.0, grade.GradePoint)
	assert.False(t, grade.NormalProgress)
	assert.Equal(t, 40, repo.grades["grade-1"].Score)
}

func TestListGradesAppliesScope(t *testing.T) {
	svc, repo := newGradeFixture(map[string]*models.Grade{
		"grade-1": {ID: "grade-1", StudentID: "stu-1", CourseID: "course-1", Score: 80},
		"grade-2": {ID: "grade-2", StudentID: "stu-2", CourseID: "course-1", Score: 60},
	})

	grades, _, err := svc.List(context.Background(), studentPrincipal("stu-1"), models.GradeFilter{})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	assert.Equal(t, "stu-1", grades[0].StudentID)
	assert.Equal(t, authz.Scope{StudentID: "stu-1"}, repo.lastScope)

	_, _, err = svc.List(context.Background(), authz.Principal{UserID: "admin-1", Role: models.RoleAdmin}, models.GradeFilter{})
	require.NoError(t, err)
	assert.Equal(t, authz.Scope{All: true}, repo.lastScope)
}

func TestGetGradeHidesOutOfScopeRows(t *testing.T) {
	svc, _ := newGradeFixture(map[string]*models.Grade{
		"grade-2": {ID: "grade-2", StudentID: "stu-2", CourseID: "course-1", Score: 60},
	})

	_, err := svc.Get(context.Background(), studentPrincipal("stu-1"), "grade-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	// The teaching lecturer sees the same row.
	grade, err := svc.Get(context.Background(), lecturerPrincipal(), "grade-2")
	require.NoError(t, err)
	assert.Equal(t, "grade-2", grade.ID)
}
