package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

func newReviewFixture(reviews map[string]*models.CourseReview) (*ReviewService, *fakeReviewRepo) {
	reviewRepo := &fakeReviewRepo{reviews: reviews}
	courses := &fakeCourseRepo{courses: map[string]*models.Course{
		"course-1": {ID: "course-1", Code: "CSC301", LecturerID: "lect-1"},
	}}
	svc := NewReviewService(reviewRepo, courses, nil, nil)
	return svc, reviewRepo
}

func TestCreateReviewAssignsAuthorFromPrincipal(t *testing.T) {
	svc, repo := newReviewFixture(nil)

	review, err := svc.Create(context.Background(), studentPrincipal("stu-1"), "course-1", models.CreateReviewRequest{
		Rating:  4,
		Comment: "solid course",
	})
	require.NoError(t, err)
	assert.Equal(t, "stu-1", review.StudentID)
	assert.Equal(t, "course-1", review.CourseID)
	assert.Equal(t, "stu-1", repo.reviews[review.ID].StudentID)
}

func TestCreateReviewRejectsNonStudents(t *testing.T) {
	svc, _ := newReviewFixture(nil)

	for _, p := range []authz.Principal{
		{UserID: "lect-1", Role: models.RoleLecturer},
		{UserID: "admin-1", Role: models.RoleAdmin},
	} {
		_, err := svc.Create(context.Background(), p, "course-1", models.CreateReviewRequest{Rating: 4})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestCreateReviewRatingBounds(t *testing.T) {
	svc, _ := newReviewFixture(nil)
	p := studentPrincipal("stu-1")

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), p, "course-1", models.CreateReviewRequest{Rating: rating})
		require.Error(t, err, "rating %d", rating)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}

	review, err := svc.Create(context.Background(), p, "course-1", models.CreateReviewRequest{Rating: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, review.Rating)
}

func TestCreateReviewTwiceConflicts(t *testing.T) {
	svc, _ := newReviewFixture(nil)
	p := studentPrincipal("stu-1")

	_, err := svc.Create(context.Background(), p, "course-1", models.CreateReviewRequest{Rating: 5})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), p, "course-1", models.CreateReviewRequest{Rating: 3})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateReview.Code, appErrors.FromError(err).Code)
}

func TestCreateReviewUnknownCourse(t *testing.T) {
	svc, _ := newReviewFixture(nil)

	_, err := svc.Create(context.Background(), studentPrincipal("stu-1"), "course-missing", models.CreateReviewRequest{Rating: 4})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdateReviewOwnership(t *testing.T) {
	svc, repo := newReviewFixture(map[string]*models.CourseReview{
		"review-1": {ID: "review-1", CourseID: "course-1", StudentID: "stu-1", Rating: 3},
	})

	// Another student cannot edit.
	_, err := svc.Update(context.Background(), studentPrincipal("stu-2"), "review-1", models.UpdateReviewRequest{Rating: 1})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	// The author can.
	review, err := svc.Update(context.Background(), studentPrincipal("stu-1"), "review-1", models.UpdateReviewRequest{Rating: 5, Comment: "better on reread"})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, 5, repo.reviews["review-1"].Rating)

	// An admin can as well.
	_, err = svc.Update(context.Background(), authz.Principal{UserID: "admin-1", Role: models.RoleAdmin}, "review-1", models.UpdateReviewRequest{Rating: 2})
	require.NoError(t, err)
}

func TestDeleteReviewOwnership(t *testing.T) {
	svc, repo := newReviewFixture(map[string]*models.CourseReview{
		"review-1": {ID: "review-1", CourseID: "course-1", StudentID: "stu-1", Rating: 3},
	})

	err := svc.Delete(context.Background(), studentPrincipal("stu-2"), "review-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.Delete(context.Background(), studentPrincipal("stu-1"), "review-1"))
	assert.NotContains(t, repo.reviews, "review-1")
}

func TestReviewListScopesLecturerToOwnCourses(t *testing.T) {
	svc, repo := newReviewFixture(map[string]*models.CourseReview{
		"review-1": {ID: "review-1", CourseID: "course-1", StudentID: "stu-1", Rating: 3},
	})

	_, _, err := svc.List(context.Background(), authz.Principal{UserID: "lect-1", Role: models.RoleLecturer}, models.ReviewFilter{})
	require.NoError(t, err)
	assert.Equal(t, authz.Scope{LecturerID: "lect-1"}, repo.lastScope)

	_, _, err = svc.List(context.Background(), studentPrincipal("stu-1"), models.ReviewFilter{})
	require.NoError(t, err)
	assert.Equal(t, authz.Scope{All: true}, repo.lastScope)
}
