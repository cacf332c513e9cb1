package models

import "time"

// CourseReview is a student's rating of a course. The student reference is
// always assigned server side from the authenticated principal. Creation
// timestamp is immutable.
type CourseReview struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	StudentName string `db:"student_name" json:"student_name,omitempty"`
	CourseName  string `db:"course_name" json:"course_name,omitempty"`
}

// CreateReviewRequest is the payload for reviewing a course. The student is
// never part of the payload; it is taken from the authenticated principal.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// UpdateReviewRequest is the payload for editing a review.
type UpdateReviewRequest struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewFilter provides filters for listing course reviews.
type ReviewFilter struct {
	CourseID  string
	StudentID string
	Rating    int
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
