package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestEnrollmentRepositoryEnroll(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_students")).
		WithArgs("course-1", "stu-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.Enroll(context.Background(), "course-1", "stu-1")
	require.NoError(t, err)
	assert.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollConflict(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	// ON CONFLICT DO NOTHING reports zero rows affected for the loser.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO course_students")).
		WithArgs("course-1", "stu-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Enroll(context.Background(), "course-1", "stu-1")
	require.NoError(t, err)
	assert.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryUnenrollMissingEdge(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM course_students WHERE course_id = $1 AND student_id = $2")).
		WithArgs("course-1", "stu-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err := repo.Unenroll(context.Background(), "course-1", "stu-1")
	require.NoError(t, err)
	assert.False(t, removed)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListCourseStudentsUnion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewEnrollmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "email", "created_at", "updated_at"}).
		AddRow("stu-1", "user-1", "Ada", "ada@example.com", time.Now(), time.Now()).
		AddRow("stu-2", "user-2", "Grace", "grace@example.com", time.Now(), time.Now())

	// Roster query unions the enrollment edges with graded students.
	mock.ExpectQuery("SELECT s.id, s.user_id, s.name, s.email, s.created_at, s.updated_at\\s+FROM students s\\s+WHERE s.id IN \\(\\s+SELECT cs.student_id FROM course_students cs WHERE cs.course_id = \\$1\\s+UNION\\s+SELECT g.student_id FROM grades g WHERE g.course_id = \\$1").
		WithArgs("course-1").
		WillReturnRows(rows)

	students, err := repo.ListCourseStudents(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Ada", students[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}
