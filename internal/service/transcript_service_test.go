package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func newTranscriptFixture() *TranscriptService {
	students := &fakeStudentRepo{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", UserID: "user-1", Name: "Ada"},
	}}
	grades := &fakeGradeRepo{grades: map[string]*models.Grade{
		"grade-1": {ID: "grade-1", StudentID: "stu-1", CourseID: "course-1", Score: 80, Letter: "A", GradePoint: 5.0, NormalProgress: true, CourseCode: "CSC301", CourseName: "Algorithms", CreditUnits: 3},
	}}
	return NewTranscriptService(students, grades, nil)
}

func TestTranscriptCSV(t *testing.T) {
	svc := newTranscriptFixture()

	result, err := svc.Export(context.Background(), studentPrincipal("stu-1"), "stu-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", result.ContentType)
	assert.Equal(t, "transcript-stu-1.csv", result.FileName)

	body := string(result.Content)
	assert.Contains(t, body, "CSC301")
	assert.Contains(t, body, "GPA: 5.00")
	assert.Contains(t, body, "Standing: Normal Progress")
	assert.True(t, strings.HasPrefix(body, "Course Code,Course,Credit Units,Score,Grade,Grade Point"))
}

func TestTranscriptPDF(t *testing.T) {
	svc := newTranscriptFixture()

	result, err := svc.Export(context.Background(), authz.Principal{UserID: "admin-1", Role: models.RoleAdmin}, "stu-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.NotEmpty(t, result.Content)
}

func TestTranscriptSelfOnlyForStudents(t *testing.T) {
	svc := newTranscriptFixture()

	_, err := svc.Export(context.Background(), studentPrincipal("stu-2"), "stu-1", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestTranscriptUnknownFormat(t *testing.T) {
	svc := newTranscriptFixture()

	_, err := svc.Export(context.Background(), studentPrincipal("stu-1"), "stu-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
