package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// EnrollmentRepository handles the student <-> course enrollment edge. The
// (course_id, student_id) pair carries a unique constraint so the toggle
// operations stay race free under concurrent requests.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// Enroll adds the enrollment edge. Returns false when the edge already
// existed; the unique constraint decides, not a prior read.
func (r *EnrollmentRepository) Enroll(ctx context.Context, courseID, studentID string) (bool, error) {
	const query = `INSERT INTO course_students (course_id, student_id, enrolled_at)
        VALUES ($1, $2, $3) ON CONFLICT (course_id, student_id) DO NOTHING`
	result, err := r.db.ExecContext(ctx, query, courseID, studentID, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("enroll student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("enroll student rows affected: %w", err)
	}
	return affected > 0, nil
}

// Unenroll removes the enrollment edge. Returns false when the edge did not
// exist.
func (r *EnrollmentRepository) Unenroll(ctx context.Context, courseID, studentID string) (bool, error) {
	const query = `DELETE FROM course_students WHERE course_id = $1 AND student_id = $2`
	result, err := r.db.ExecContext(ctx, query, courseID, studentID)
	if err != nil {
		return false, fmt.Errorf("unenroll student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unenroll student rows affected: %w", err)
	}
	return affected > 0, nil
}

// IsEnrolled reports whether the enrollment edge exists.
func (r *EnrollmentRepository) IsEnrolled(ctx context.Context, courseID, studentID string) (bool, error) {
	const query = `SELECT 1 FROM course_students WHERE course_id = $1 AND student_id = $2 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, courseID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// ListCourseStudents returns the students of a course: the union of students
// holding an enrollment edge and students with any grade recorded for the
// course, de-duplicated by student identity. Grades can exist without an
// enrollment edge, so collapsing this to the edge alone loses rows.
func (r *EnrollmentRepository) ListCourseStudents(ctx context.Context, courseID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.user_id, s.name, s.email, s.created_at, s.updated_at
        FROM students s
        WHERE s.id IN (
            SELECT cs.student_id FROM course_students cs WHERE cs.course_id = $1
            UNION
            SELECT g.student_id FROM grades g WHERE g.course_id = $1
        )
        ORDER BY s.name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list course students: %w", err)
	}
	return students, nil
}

// ListStudentCourses returns the courses a student is actively enrolled in.
func (r *EnrollmentRepository) ListStudentCourses(ctx context.Context, studentID string) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s
        FROM courses c
        LEFT JOIN users u ON u.id = c.lecturer_id
        JOIN course_students cs ON cs.course_id = c.id
        WHERE cs.student_id = $1
        ORDER BY c.code ASC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, studentID); err != nil {
		return nil, fmt.Errorf("list student courses: %w", err)
	}
	return courses, nil
}
