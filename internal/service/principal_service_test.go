package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/models"
	"github.com/noah-isme/academic-records-api/pkg/config"
)

func claimsFor(userID string, role models.UserRole) *models.JWTClaims {
	return &models.JWTClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func TestResolveLinksStudentRecord(t *testing.T) {
	students := &fakeStudentRepo{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", UserID: "user-1"},
	}}
	svc := NewPrincipalService(students, nil, config.CacheConfig{}, nil, nil)

	p, err := svc.Resolve(context.Background(), claimsFor("user-1", models.RoleStudent))
	require.NoError(t, err)
	assert.Equal(t, "user-1", p.UserID)
	assert.Equal(t, models.RoleStudent, p.Role)
	assert.Equal(t, "stu-1", p.StudentID)
}

func TestResolveUnlinkedStudentHasEmptyStudentID(t *testing.T) {
	svc := NewPrincipalService(&fakeStudentRepo{}, nil, config.CacheConfig{}, nil, nil)

	p, err := svc.Resolve(context.Background(), claimsFor("user-9", models.RoleStudent))
	require.NoError(t, err)
	assert.False(t, p.HasStudent())
}

func TestResolveSkipsLookupForStaffRoles(t *testing.T) {
	svc := NewPrincipalService(&fakeStudentRepo{}, nil, config.CacheConfig{}, nil, nil)

	for _, role := range []models.UserRole{models.RoleLecturer, models.RoleAdmin} {
		p, err := svc.Resolve(context.Background(), claimsFor("user-1", role))
		require.NoError(t, err)
		assert.Empty(t, p.StudentID)
		assert.Equal(t, role, p.Role)
	}
}

func TestResolveNilClaims(t *testing.T) {
	svc := NewPrincipalService(&fakeStudentRepo{}, nil, config.CacheConfig{}, nil, nil)

	_, err := svc.Resolve(context.Background(), nil)
	assert.Error(t, err)
}

func TestResolveCachesStudentLink(t *testing.T) {
	students := &fakeStudentRepo{students: map[string]*models.Student{
		"stu-1": {ID: "stu-1", UserID: "user-1"},
	}}
	cache := &fakeCache{}
	svc := NewPrincipalService(students, cache, config.CacheConfig{Enabled: true, PrincipalTTL: time.Minute}, nil, nil)

	p, err := svc.Resolve(context.Background(), claimsFor("user-1", models.RoleStudent))
	require.NoError(t, err)
	assert.Equal(t, "stu-1", p.StudentID)
	assert.Contains(t, cache.values, "principal:user-1")

	// Second resolve is served from cache even after the record disappears.
	delete(students.students, "stu-1")
	p, err = svc.Resolve(context.Background(), claimsFor("user-1", models.RoleStudent))
	require.NoError(t, err)
	assert.Equal(t, "stu-1", p.StudentID)

	svc.InvalidateUser(context.Background(), "user-1")
	p, err = svc.Resolve(context.Background(), claimsFor("user-1", models.RoleStudent))
	require.NoError(t, err)
	assert.False(t, p.HasStudent())
}
