package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type enrollmentRepository interface {
	Enroll(ctx context.Context, courseID, studentID string) (bool, error)
	Unenroll(ctx context.Context, courseID, studentID string) (bool, error)
}

type enrollmentCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type enrollmentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// EnrollmentService implements the enroll and unenroll toggles. Conflict
// detection is delegated to the storage layer's uniqueness guarantee, so two
// racing requests for the same pair resolve to exactly one success.
type EnrollmentService struct {
	enrollments enrollmentRepository
	courses     enrollmentCourseReader
	students    enrollmentStudentReader
	audit       auditWriter
	cache       cacheRepository
	cacheCfg    config.CacheConfig
	logger      *zap.Logger
}

// NewEnrollmentService constructs an EnrollmentService. cache may be nil.
func NewEnrollmentService(enrollments enrollmentRepository, courses enrollmentCourseReader, students enrollmentStudentReader, audit auditWriter, cache cacheRepository, cacheCfg config.CacheConfig, logger *zap.Logger) *EnrollmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cacheCfg.Enabled = false
	}
	return &EnrollmentService{
		enrollments: enrollments,
		courses:     courses,
		students:    students,
		audit:       audit,
		cache:       cache,
		cacheCfg:    cacheCfg,
		logger:      logger,
	}
}

// Enroll adds the caller (or, for privileged callers, the named student) to
// a course. Enrolling an already enrolled student is a conflict.
func (s *EnrollmentService) Enroll(ctx context.Context, p authz.Principal, courseID string, req models.EnrollmentRequest) error {
	studentID, err := s.resolveTarget(ctx, p, authz.ActionEnroll, courseID, req.StudentID)
	if err != nil {
		return err
	}

	inserted, err := s.enrollments.Enroll(ctx, courseID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enroll student")
	}
	if !inserted {
		return appErrors.Clone(appErrors.ErrAlreadyEnrolled, "")
	}

	s.invalidateDetail(ctx, studentID)
	s.writeAudit(ctx, p, models.AuditActionEnroll, courseID, studentID)
	return nil
}

// Unenroll removes the enrollment edge. Removing an absent edge is a
// conflict so callers can distinguish the no-op.
func (s *EnrollmentService) Unenroll(ctx context.Context, p authz.Principal, courseID string, req models.EnrollmentRequest) error {
	studentID, err := s.resolveTarget(ctx, p, authz.ActionUnenroll, courseID, req.StudentID)
	if err != nil {
		return err
	}

	removed, err := s.enrollments.Unenroll(ctx, courseID, studentID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to unenroll student")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotEnrolled, "")
	}

	s.invalidateDetail(ctx, studentID)
	s.writeAudit(ctx, p, models.AuditActionUnenroll, courseID, studentID)
	return nil
}

// resolveTarget applies the capability check, verifies the course exists and
// decides which student the toggle acts on. Students always act on
// themselves; lecturers and admins must name a student.
func (s *EnrollmentService) resolveTarget(ctx context.Context, p authz.Principal, action authz.Action, courseID, requested string) (string, error) {
	if d := authz.Authorize(p, action, authz.ResourceCourse); !d.Allowed {
		return "", appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if p.Role == models.RoleStudent {
		if !p.HasStudent() {
			return "", appErrors.Clone(appErrors.ErrNoStudentProfile, "no student record linked to this account")
		}
		if d := authz.AuthorizeObject(p, action, authz.Ownership{StudentID: firstNonEmpty(requested, p.StudentID)}); !d.Allowed {
			return "", appErrors.Clone(appErrors.ErrForbidden, "students may only change their own enrollment")
		}
		return p.StudentID, nil
	}

	if requested == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "student_id is required")
	}
	if _, err := s.students.FindByID(ctx, requested); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return requested, nil
}

func (s *EnrollmentService) invalidateDetail(ctx context.Context, studentID string) {
	if !s.cacheCfg.Enabled {
		return
	}
	s.cache.Invalidate(ctx, fmt.Sprintf("%s:%s", cacheStudentDetail, studentID))
}

func (s *EnrollmentService) writeAudit(ctx context.Context, p authz.Principal, action, courseID, studentID string) {
	userID := p.UserID
	payload := []byte(fmt.Sprintf(`{"course_id":%q,"student_id":%q}`, courseID, studentID))
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     action,
		Resource:   "enrollment",
		ResourceID: &courseID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record enrollment audit log", zap.Error(err))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
