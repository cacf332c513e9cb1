package service

import (
	"context"
	"database/sql"
	"encoding/json"
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

type gradeRepository interface {
	List(ctx context.Context, filter models.GradeFilter, scope authz.Scope) ([]models.Grade, int, error)
	FindByID(ctx context.Context, id string) (*models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
}

type gradeStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type gradeCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// GradeService implements grade recording. Scores are validated against the
// band table bounds and the letter, grade point and progress flag are always
// derived server side from the configured scale.
type GradeService struct {
	grades    gradeRepository
	students  gradeStudentReader
	courses   gradeCourseReader
	audit     auditWriter
	scale     *gradebook.Scale
	cache     cacheRepository
	cacheCfg  config.CacheConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradeService constructs a GradeService. cache may be nil.
func NewGradeService(grades gradeRepository, students gradeStudentReader, courses gradeCourseReader, audit auditWriter, scale *gradebook.Scale, cache cacheRepository, cacheCfg config.CacheConfig, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cache == nil {
		cacheCfg.Enabled = false
	}
	return &GradeService{
		grades:    grades,
		students:  students,
		courses:   courses,
		audit:     audit,
		scale:     scale,
		cache:     cache,
		cacheCfg:  cacheCfg,
		validator: validate,
		logger:    logger,
	}
}

// List returns the grades visible to the principal: their own for students,
// their courses' for lecturers, everything for admins.
func (s *GradeService) List(ctx context.Context, p authz.Principal, filter models.GradeFilter) ([]models.Grade, int, error) {
	if d := authz.Authorize(p, authz.ActionList, authz.ResourceGrade); !d.Allowed {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	return s.grades.List(ctx, filter, authz.GradeScope(p))
}

// Get returns one grade, subject to the same row visibility as List.
func (s *GradeService) Get(ctx context.Context, p authz.Principal, id string) (*models.Grade, error) {
	if d := authz.Authorize(p, authz.ActionRetrieve, authz.ResourceGrade); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	// Out-of-scope rows read as absent, not forbidden, so the endpoint
	// does not leak their existence.
	if !s.visible(ctx, p, grade) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
	}
	return grade, nil
}

// Create records a grade for a student in a course. Restricted to lecturers
// and admins; a duplicate pair is a conflict.
func (s *GradeService) Create(ctx context.Context, p authz.Principal, req models.CreateGradeRequest) (*models.Grade, error) {
	if d := authz.Authorize(p, authz.ActionCreate, authz.ResourceGrade); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	band, err := s.scale.Resolve(req.Score)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "score outside the grading scale")
	}

	grade := &models.Grade{
		StudentID:      req.StudentID,
		CourseID:       req.CourseID,
		Score:          req.Score,
		Letter:         band.Letter,
		GradePoint:     band.GradePoint,
		NormalProgress: band.NormalProgress,
	}
	if err := s.grades.Create(ctx, grade); err != nil {
		if errors.Is(err, appErrors.ErrDuplicateGrade) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}

	s.invalidateDetail(ctx, grade.StudentID)
	s.writeAudit(ctx, p, models.AuditActionGradeCreate, grade.ID, nil, grade)
	return grade, nil
}

// Update rescores an existing grade, re-deriving the letter, grade point and
// progress flag. Restricted to lecturers and admins.
func (s *GradeService) Update(ctx context.Context, p authz.Principal, id string, req models.UpdateGradeRequest) (*models.Grade, error) {
	if d := authz.Authorize(p, authz.ActionUpdate, authz.ResourceGrade); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}
	previous := *grade

	band, err := s.scale.Resolve(req.Score)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "score outside the grading scale")
	}

	grade.Score = req.Score
	grade.Letter = band.Letter
	grade.GradePoint = band.GradePoint
	grade.NormalProgress = band.NormalProgress
	if err := s.grades.Update(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grade")
	}

	s.invalidateDetail(ctx, grade.StudentID)
	s.writeAudit(ctx, p, models.AuditActionGradeUpdate, grade.ID, &previous, grade)
	return grade, nil
}

// Delete removes a grade. Restricted to lecturers and admins.
func (s *GradeService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if d := authz.Authorize(p, authz.ActionDelete, authz.ResourceGrade); !d.Allowed {
		return appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	grade, err := s.grades.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade")
	}

	if err := s.grades.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}

	s.invalidateDetail(ctx, grade.StudentID)
	s.writeAudit(ctx, p, models.AuditActionGradeDelete, grade.ID, grade, nil)
	return nil
}

func (s *GradeService) visible(ctx context.Context, p authz.Principal, grade *models.Grade) bool {
	scope := authz.GradeScope(p)
	switch {
	case scope.All:
		return true
	case scope.None:
		return false
	case scope.StudentID != "":
		return grade.StudentID == scope.StudentID
	case scope.LecturerID != "":
		course, err := s.courses.FindByID(ctx, grade.CourseID)
		if err != nil {
			return false
		}
		return course.LecturerID == scope.LecturerID
	default:
		return false
	}
}

func (s *GradeService) invalidateDetail(ctx context.Context, studentID string) {
	if !s.cacheCfg.Enabled {
		return
	}
	s.cache.Invalidate(ctx, fmt.Sprintf("%s:%s", cacheStudentDetail, studentID))
}

func (s *GradeService) writeAudit(ctx context.Context, p authz.Principal, action, gradeID string, oldGrade, newGrade *models.Grade) {
	userID := p.UserID
	log := &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "grade",
		ResourceID: &gradeID,
	}
	if oldGrade != nil {
		if payload, err := json.Marshal(oldGrade); err == nil {
			log.OldValues = payload
		}
	}
	if newGrade != nil {
		if payload, err := json.Marshal(newGrade); err == nil {
			log.NewValues = payload
		}
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record grade audit log", zap.Error(err))
	}
}
