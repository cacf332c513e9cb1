package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// GradeRepository manages persistence for grade entries. One grade exists
// per student and course pair, enforced by a unique constraint.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

const gradeColumns = `g.id, g.student_id, g.course_id, g.score, g.letter, g.grade_point, g.normal_progress, g.created_at, g.updated_at,
        s.name AS student_name, c.name AS course_name, c.code AS course_code, c.credit_units`

const gradeBase = `FROM grades g
        JOIN students s ON s.id = g.student_id
        JOIN courses c ON c.id = g.course_id`

// List returns grades matching the filter, narrowed to the rows the given
// scope grants. The scope condition is appended to the WHERE clause before
// pagination so a narrowed principal never sees out-of-scope rows on any
// page.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter, scope authz.Scope) ([]models.Grade, int, error) {
	if scope.None {
		return []models.Grade{}, 0, nil
	}

	conditions := []string{"1=1"}
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("g.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Letter != "" {
		conditions = append(conditions, fmt.Sprintf("g.letter = $%d", len(args)+1))
		args = append(args, strings.ToUpper(filter.Letter))
	}
	if scope.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, scope.StudentID)
	}
	if scope.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("c.lecturer_id = $%d", len(args)+1))
		args = append(args, scope.LecturerID)
	}

	base := fmt.Sprintf("%s WHERE %s", gradeBase, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"score":  "g.score",
		"letter": "g.letter",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "g.created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`, gradeColumns, base, column, order, size, offset)

	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return grades, total, nil
}

// ListByStudent returns the full grade history for a student.
func (r *GradeRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE g.student_id = $1 ORDER BY c.code ASC`, gradeColumns, gradeBase)
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, studentID); err != nil {
		return nil, fmt.Errorf("list student grades: %w", err)
	}
	return grades, nil
}

// FindByID fetches a grade by ID.
func (r *GradeRepository) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE g.id = $1`, gradeColumns, gradeBase)
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id); err != nil {
		return nil, err
	}
	return &grade, nil
}

// Create inserts a new grade. A second grade for the same student and course
// pair maps to ErrDuplicateGrade via the unique constraint.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = now
	}
	grade.UpdatedAt = now
	const query = `INSERT INTO grades (id, student_id, course_id, score, letter, grade_point, normal_progress, created_at, updated_at)
        VALUES (:id, :student_id, :course_id, :score, :letter, :grade_point, :normal_progress, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		if isUniqueViolation(err) {
			return appErrors.ErrDuplicateGrade
		}
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update rewrites the score and its derived triple.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	grade.UpdatedAt = time.Now().UTC()
	const query = `UPDATE grades SET score = :score, letter = :letter, grade_point = :grade_point, normal_progress = :normal_progress, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete removes a grade entry.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM grades WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return nil
}
