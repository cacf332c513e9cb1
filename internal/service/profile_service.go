package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type profileRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListProfiles(ctx context.Context, filter models.UserFilter) ([]models.Profile, int, error)
}

// ProfileService exposes the account profile read models.
type ProfileService struct {
	users  profileRepository
	logger *zap.Logger
}

// NewProfileService constructs a ProfileService.
func NewProfileService(users profileRepository, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{users: users, logger: logger}
}

// List returns a page of account profiles. Admin only.
func (s *ProfileService) List(ctx context.Context, p authz.Principal, filter models.UserFilter) ([]models.Profile, int, error) {
	if d := authz.Authorize(p, authz.ActionList, authz.ResourceProfile); !d.Allowed {
		return nil, 0, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}
	return s.users.ListProfiles(ctx, filter)
}

// Me returns the caller's own profile.
func (s *ProfileService) Me(ctx context.Context, p authz.Principal) (*models.Profile, error) {
	if d := authz.Authorize(p, authz.ActionRetrieve, authz.ResourceProfile); !d.Allowed {
		return nil, appErrors.Clone(appErrors.ErrForbidden, d.Reason)
	}

	user, err := s.users.FindByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	return &models.Profile{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		Active:   user.Active,
	}, nil
}
