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

// ReviewRepository manages persistence for course reviews. One review exists
// per student and course pair, enforced by a unique constraint.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs a ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `r.id, r.course_id, r.student_id, r.rating, r.comment, r.created_at,
        s.name AS student_name, c.name AS course_name`

const reviewBase = `FROM course_reviews r
        JOIN students s ON s.id = r.student_id
        JOIN courses c ON c.id = r.course_id`

// List returns reviews matching the filter, narrowed by the given scope.
func (r *ReviewRepository) List(ctx context.Context, filter models.ReviewFilter, scope authz.Scope) ([]models.CourseReview, int, error) {
	if scope.None {
		return []models.CourseReview{}, 0, nil
	}

	conditions := []string{"1=1"}
	var args []interface{}

	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("r.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("r.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.Rating > 0 {
		conditions = append(conditions, fmt.Sprintf("r.rating = $%d", len(args)+1))
		args = append(args, filter.Rating)
	}
	if scope.LecturerID != "" {
		conditions = append(conditions, fmt.Sprintf("c.lecturer_id = $%d", len(args)+1))
		args = append(args, scope.LecturerID)
	}

	base := fmt.Sprintf("%s WHERE %s", reviewBase, strings.Join(conditions, " AND "))

	allowedSorts := map[string]string{
		"rating":     "r.rating",
		"created_at": "r.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "r.created_at"
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

	query := fmt.Sprintf(`SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d`, reviewColumns, base, column, order, size, offset)

	var reviews []models.CourseReview
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list reviews: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count reviews: %w", err)
	}
	return reviews, total, nil
}

// FindByID fetches a review by ID.
func (r *ReviewRepository) FindByID(ctx context.Context, id string) (*models.CourseReview, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE r.id = $1`, reviewColumns, reviewBase)
	var review models.CourseReview
	if err := r.db.GetContext(ctx, &review, query, id); err != nil {
		return nil, err
	}
	return &review, nil
}

// Create inserts a new review. A second review for the same student and
// course maps to ErrDuplicateReview via the unique constraint.
func (r *ReviewRepository) Create(ctx context.Context, review *models.CourseReview) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO course_reviews (id, course_id, student_id, rating, comment, created_at)
        VALUES (:id, :course_id, :student_id, :rating, :comment, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		if isUniqueViolation(err) {
			return appErrors.ErrDuplicateReview
		}
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// Update modifies the rating and comment of a review. The creation
// timestamp is immutable.
func (r *ReviewRepository) Update(ctx context.Context, review *models.CourseReview) error {
	const query = `UPDATE course_reviews SET rating = :rating, comment = :comment WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("update review: %w", err)
	}
	return nil
}

// Delete removes a review.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM course_reviews WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	return nil
}
