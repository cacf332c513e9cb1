package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/config"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

const cachePrincipal = "principal"

// cacheMetrics is the slice of the metrics service the caching read paths
// need. Nil disables recording.
type cacheMetrics interface {
	CacheHit(cache string)
	CacheMiss(cache string)
}

type principalStudentRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.Student, error)
}

type cacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string)
}

// PrincipalService turns verified token claims into the principal the access
// control resolver rules on. The student link lookup is cached because it
// runs on every authenticated request.
type PrincipalService struct {
	students principalStudentRepository
	cache    cacheRepository
	cfg      config.CacheConfig
	logger   *zap.Logger
	metrics  cacheMetrics
}

// NewPrincipalService constructs a PrincipalService. cache and metrics may be
// nil.
func NewPrincipalService(students principalStudentRepository, cache cacheRepository, cfg config.CacheConfig, logger *zap.Logger, metrics cacheMetrics) *PrincipalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cfg.Enabled = false
	}
	return &PrincipalService{students: students, cache: cache, cfg: cfg, logger: logger, metrics: metrics}
}

type cachedPrincipal struct {
	StudentID string `json:"student_id"`
}

// Resolve builds the principal for the authenticated claims. For student
// accounts the linked student record is looked up; a student account with no
// linked record resolves to a principal with an empty StudentID rather than
// an error, so capability checks still run and self-scoped operations can
// surface the missing link themselves.
func (s *PrincipalService) Resolve(ctx context.Context, claims *models.JWTClaims) (authz.Principal, error) {
	if claims == nil {
		return authz.Principal{}, appErrors.Clone(appErrors.ErrUnauthorized, "missing token claims")
	}

	principal := authz.Principal{UserID: claims.UserID, Role: claims.Role}
	if claims.Role != models.RoleStudent {
		return principal, nil
	}

	key := fmt.Sprintf("%s:%s", cachePrincipal, claims.UserID)
	if s.cfg.Enabled {
		var cached cachedPrincipal
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			if s.metrics != nil {
				s.metrics.CacheHit(cachePrincipal)
			}
			principal.StudentID = cached.StudentID
			return principal, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("principal cache read failed", zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.CacheMiss(cachePrincipal)
		}
	}

	student, err := s.students.FindByUserID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return authz.Principal{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve student link")
		}
	} else {
		principal.StudentID = student.ID
	}

	if s.cfg.Enabled {
		if err := s.cache.Set(ctx, key, cachedPrincipal{StudentID: principal.StudentID}, s.cfg.PrincipalTTL); err != nil {
			s.logger.Warn("principal cache write failed", zap.Error(err))
		}
	}

	return principal, nil
}

// InvalidateUser drops the cached principal for a user, called when the
// student link changes.
func (s *PrincipalService) InvalidateUser(ctx context.Context, userID string) {
	if !s.cfg.Enabled {
		return
	}
	s.cache.Invalidate(ctx, fmt.Sprintf("%s:%s", cachePrincipal, userID))
}
