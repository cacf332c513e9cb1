package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type reviewRepository interface {
	List(ctx context.Context, filter models.ReviewFilter, scope authz.Scope) ([]models.CourseReview, int, error)
	FindByID(ctx context.Context, id string) (*models.CourseReview, error)
	Create(ctx context.Context, review *models.CourseReview) error
	Update(ctx context.Context, review *models.CourseReview) error
	Delete(ctx context.Context, id string) error
}

type reviewCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// ReviewService implements course reviews. Only students write reviews, each
// student reviews a course at most once, and the review's author is always
// the authenticated principal rather than anything in the payload.
type ReviewService struct {
	reviews   reviewRepository
	courses   reviewCourseReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(reviews reviewRepository, courses reviewCourseReader, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReviewService{reviews: reviews, courses: courses, validator: validate, logger: logger}
}

// List returns the reviews visible to the principal. Lecturers see only
// reviews of courses they teach.
func (s *ReviewService) List(ctx context.Context, p authz.Principal, filter models.ReviewFilter) ([]models.CourseReview, int, error) {
	if d := authz.Authorize(p, authz.ActionList, authz.ResourceReview); !d.Allowed {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	return s.reviews.List(ctx, filter, authz.ReviewScope(p))
}

// ListForCourse returns a course's reviews after verifying the course
// exists.
func (s *ReviewService) ListForCourse(ctx context.Context, p authz.Principal, courseID string, filter models.ReviewFilter) ([]models.CourseReview, int, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	filter.CourseID = courseID
	return s.List(ctx, p, filter)
}

// Create records a review of a course by the calling student.
func (s *ReviewService) Create(ctx context.Context, p authz.Principal, courseID string, req models.CreateReviewRequest) (*models.CourseReview, error) {
	if d := authz.Authorize(p, authz.ActionCreate, authz.ResourceReview); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	if !p.HasStudent() {
		return nil, appErrors.Clone(appErrors.ErrNoStudentProfile, "no student record linked to this account")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	review := &models.CourseReview{
		CourseID:  courseID,
		StudentID: p.StudentID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, appErrors.ErrDuplicateReview) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}
	return review, nil
}

// Update edits a review. The author or an admin may edit; the creation
// timestamp never changes.
func (s *ReviewService) Update(ctx context.Context, p authz.Principal, id string, req models.UpdateReviewRequest) (*models.CourseReview, error) {
	if d := authz.Authorize(p, authz.ActionUpdate, authz.ResourceReview); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}

	if d := authz.AuthorizeObject(p, authz.ActionUpdate, authz.Ownership{StudentID: review.StudentID}); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	review.Rating = req.Rating
	review.Comment = req.Comment
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update review")
	}
	return review, nil
}

// Delete removes a review. The author or an admin may delete.
func (s *ReviewService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if d := authz.Authorize(p, authz.ActionDelete, authz.ResourceReview); !d.Allowed {
		return appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "review not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load review")
	}

	if d := authz.AuthorizeObject(p, authz.ActionDelete, authz.Ownership{StudentID: review.StudentID}); !d.Allowed {
		return appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete review")
	}
	return nil
}
