package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/gradebook"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const cacheStudentDetail = "student:detail"

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

type studentCoursesReader interface {
	ListStudentCourses(ctx context.Context, studentID string) ([]models.Course, error)
}

type studentGradesReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error)
}

// StudentService implements the student read models and record management.
type StudentService struct {
	students    studentRepository
	enrollments studentCoursesReader
	grades      studentGradesReader
	cache       cacheRepository
	cacheCfg    config.CacheConfig
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     cacheMetrics
}

// NewStudentService constructs a StudentService. cache and metrics may be
// nil.
func NewStudentService(students studentRepository, enrollments studentCoursesReader, grades studentGradesReader, cache cacheRepository, cacheCfg config.CacheConfig, validate *validator.Validate, logger *zap.Logger, metrics cacheMetrics) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cache == nil {
		cacheCfg.Enabled = false
	}
	return &StudentService{
		students:    students,
		enrollments: enrollments,
		grades:      grades,
		cache:       cache,
		cacheCfg:    cacheCfg,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
	}
}

// List returns a page of students. Restricted to lecturers and admins.
func (s *StudentService) List(ctx context.Context, p authz.Principal, filter models.StudentFilter) ([]models.Student, int, error) {
	if d := authz.Authorize(p, authz.ActionList, authz.ResourceStudent); !d.Allowed {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	return s.students.List(ctx, filter)
}

// Get returns the detail view of a student: the record itself, enrolled
// courses, grade history and the derived GPA, CGPA and standing remark.
func (s *StudentService) Get(ctx context.Context, p authz.Principal, id string) (*models.StudentDetail, error) {
	if d := authz.Authorize(p, authz.ActionRetrieve, authz.ResourceStudent); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	return s.buildDetail(ctx, id)
}

// Me returns the caller's own student detail, or ErrNoStudentProfile when
// the account has no linked student record.
func (s *StudentService) Me(ctx context.Context, p authz.Principal) (*models.StudentDetail, error) {
	if !p.HasStudent() {
		return nil, appErrors.Clone(appErrors.ErrNoStudentProfile, "no student record linked to this account")
	}
	return s.buildDetail(ctx, p.StudentID)
}

// GPA returns the grade point metrics for a student. Students may only query
// their own; lecturers and admins may query anyone.
func (s *StudentService) GPA(ctx context.Context, p authz.Principal, id string) (*models.StudentGPA, error) {
	if p.Role == models.RoleStudent && p.StudentID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students may only view their own grade point average")
	}

	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	grades, err := s.grades.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	return &models.StudentGPA{
		StudentID:   student.ID,
		StudentName: student.Name,
		GPA:         gradebook.GPA(grades),
		CGPA:        gradebook.CGPA(grades),
	}, nil
}

// Create registers a new student record. Restricted to lecturers and admins.
func (s *StudentService) Create(ctx context.Context, p authz.Principal, req models.CreateStudentRequest) (*models.Student, error) {
	if d := authz.Authorize(p, authz.ActionCreate, authz.ResourceStudent); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student := &models.Student{
		UserID: req.UserID,
		Name:   req.Name,
		Email:  req.Email,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies a student record. Restricted to lecturers and admins.
func (s *StudentService) Update(ctx context.Context, p authz.Principal, id string, req models.UpdateStudentRequest) (*models.Student, error) {
	if d := authz.Authorize(p, authz.ActionUpdate, authz.ResourceStudent); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	student.Name = req.Name
	student.Email = req.Email
	if err := s.students.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}

	s.invalidateDetail(ctx, id)
	return student, nil
}

// Delete removes a student record. Restricted to lecturers and admins.
func (s *StudentService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if d := authz.Authorize(p, authz.ActionDelete, authz.ResourceStudent); !d.Allowed {
		return appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	if _, err := s.students.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	if err := s.students.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student")
	}

	s.invalidateDetail(ctx, id)
	return nil
}

func (s *StudentService) buildDetail(ctx context.Context, id string) (*models.StudentDetail, error) {
	key := fmt.Sprintf("%s:%s", cacheStudentDetail, id)
	if s.cacheCfg.Enabled {
		var cached models.StudentDetail
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.CacheHit(cacheStudentDetail)
			}
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("student detail cache read failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.CacheMiss(cacheStudentDetail)
		}
	}

	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	courses, err := s.enrollments.ListStudentCourses(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}

	grades, err := s.grades.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}

	detail := &models.StudentDetail{
		Student:         *student,
		EnrolledCourses: courses,
		Grades:          grades,
		GPA:             gradebook.GPA(grades),
		CGPA:            gradebook.CGPA(grades),
		SemesterRemark:  string(gradebook.Classify(grades)),
	}

	if s.cacheCfg.Enabled {
		if err := s.cache.Set(ctx, key, detail, s.cacheCfg.StudentDetailTTL); err != nil {
			s.logger.Warn("student detail cache write failed", zap.Error(err))
		}
	}

	return detail, nil
}

func (s *StudentService) invalidateDetail(ctx context.Context, studentID string) {
	if !s.cacheCfg.Enabled {
		return
	}
	s.cache.Invalidate(ctx, fmt.Sprintf("%s:%s", cacheStudentDetail, studentID))
}
