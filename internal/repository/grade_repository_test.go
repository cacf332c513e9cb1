package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func gradeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "course_id", "score", "letter", "grade_point", "normal_progress",
		"created_at", "updated_at", "student_name", "course_name", "course_code", "credit_units",
	}).AddRow("grade-1", "stu-1", "course-1", 80, "A", 5.0, true, time.Now(), time.Now(), "Ada", "Algorithms", "CSC301", 3)
}

func TestGradeRepositoryListStudentScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery("SELECT .+ FROM grades g[\\s\\S]+g\\.student_id = \\$1[\\s\\S]+ORDER BY").
		WithArgs("stu-1").
		WillReturnRows(gradeRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM grades g").
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	grades, total, err := repo.List(context.Background(), models.GradeFilter{}, authz.Scope{StudentID: "stu-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, grades, 1)
	assert.Equal(t, "stu-1", grades[0].StudentID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryListLecturerScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectQuery("SELECT .+ FROM grades g[\\s\\S]+c\\.lecturer_id = \\$1[\\s\\S]+ORDER BY").
		WithArgs("lect-1").
		WillReturnRows(gradeRows())
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM grades g").
		WithArgs("lect-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, total, err := repo.List(context.Background(), models.GradeFilter{}, authz.Scope{LecturerID: "lect-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryListNoneScopeShortCircuits(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	grades, total, err := repo.List(context.Background(), models.GradeFilter{}, authz.Scope{None: true})
	require.NoError(t, err)
	assert.Empty(t, grades)
	assert.Zero(t, total)
}

func TestGradeRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewGradeRepository(db)

	mock.ExpectExec("INSERT INTO grades").
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Grade{
		StudentID: "stu-1",
		CourseID:  "course-1",
		Score:     80,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateGrade.Code, appErrors.FromError(err).Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
