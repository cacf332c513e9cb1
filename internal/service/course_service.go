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

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code, excludeID string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

type courseRosterReader interface {
	ListCourseStudents(ctx context.Context, courseID string) ([]models.Student, error)
}

type lecturerReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CourseService implements course management and the course roster view.
type CourseService struct {
	courses     courseRepository
	enrollments courseRosterReader
	users       lecturerReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(courses courseRepository, enrollments courseRosterReader, users lecturerReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CourseService{courses: courses, enrollments: enrollments, users: users, validator: validate, logger: logger}
}

// List returns a page of courses. Open to any authenticated principal.
func (s *CourseService) List(ctx context.Context, p authz.Principal, filter models.CourseFilter) ([]models.Course, int, error) {
	if d := authz.Authorize(p, authz.ActionList, authz.ResourceCourse); !d.Allowed {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	return s.courses.List(ctx, filter)
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, p authz.Principal, id string) (*models.Course, error) {
	if d := authz.Authorize(p, authz.ActionRetrieve, authz.ResourceCourse); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// Students returns the roster of a course: every student enrolled or already
// graded in it.
func (s *CourseService) Students(ctx context.Context, p authz.Principal, courseID string) ([]models.Student, error) {
	if d := authz.Authorize(p, authz.ActionRetrieve, authz.ResourceCourse); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return s.enrollments.ListCourseStudents(ctx, courseID)
}

// Create adds a course. Restricted to lecturers and admins.
func (s *CourseService) Create(ctx context.Context, p authz.Principal, req models.CreateCourseRequest) (*models.Course, error) {
	if d := authz.Authorize(p, authz.ActionCreate, authz.ResourceCourse); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	lecturerID := req.LecturerID
	if lecturerID == "" && p.Role == models.RoleLecturer {
		lecturerID = p.UserID
	}
	if err := s.checkLecturer(ctx, lecturerID); err != nil {
		return nil, err
	}

	taken, err := s.courses.ExistsByCode(ctx, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already in use")
	}

	course := &models.Course{
		Name:        req.Name,
		Code:        req.Code,
		CreditUnits: req.CreditUnits,
		LecturerID:  lecturerID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	return course, nil
}

// Update modifies a course. Restricted to lecturers and admins.
func (s *CourseService) Update(ctx context.Context, p authz.Principal, id string, req models.UpdateCourseRequest) (*models.Course, error) {
	if d := authz.Authorize(p, authz.ActionUpdate, authz.ResourceCourse); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.courses.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if req.LecturerID != "" && req.LecturerID != course.LecturerID {
		if err := s.checkLecturer(ctx, req.LecturerID); err != nil {
			return nil, err
		}
		course.LecturerID = req.LecturerID
	}

	taken, err := s.courses.ExistsByCode(ctx, req.Code, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check course code")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already in use")
	}

	course.Name = req.Name
	course.Code = req.Code
	course.CreditUnits = req.CreditUnits
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// Delete removes a course. Restricted to lecturers and admins.
func (s *CourseService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if d := authz.Authorize(p, authz.ActionDelete, authz.ResourceCourse); !d.Allowed {
		return appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	if _, err := s.courses.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if err := s.courses.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	return nil
}

// checkLecturer verifies the referenced account exists and carries the
// lecturer role. An empty ID is allowed; the course is simply unassigned.
func (s *CourseService) checkLecturer(ctx context.Context, lecturerID string) error {
	if lecturerID == "" {
		return nil
	}
	user, err := s.users.FindByID(ctx, lecturerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "lecturer account not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lecturer")
	}
	if user.Role != models.RoleLecturer {
		return appErrors.Clone(appErrors.ErrValidation, "referenced account is not a lecturer")
	}
	return nil
}
