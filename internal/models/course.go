package models

import "time"

// Course represents a taught course. The lecturer is referenced by account
// ID rather than display name so that renames cannot break grade and review
// scoping.
type Course struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	CreditUnits  int       `db:"credit_units" json:"credit_units"`
	LecturerID   string    `db:"lecturer_id" json:"lecturer_id"`
	LecturerName string    `db:"lecturer_name" json:"lecturer_name"`
	StudentCount int       `db:"student_count" json:"student_count"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// CreateCourseRequest is the payload for creating a course.
type CreateCourseRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Code        string `json:"code" validate:"required,min=2,max=20"`
	CreditUnits int    `json:"credit_units" validate:"required,gt=0"`
	LecturerID  string `json:"lecturer_id" validate:"omitempty,uuid4"`
}

// UpdateCourseRequest is the payload for updating a course.
type UpdateCourseRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Code        string `json:"code" validate:"required,min=2,max=20"`
	CreditUnits int    `json:"credit_units" validate:"required,gt=0"`
	LecturerID  string `json:"lecturer_id" validate:"omitempty,uuid4"`
}

// EnrollmentRequest optionally names the student a privileged caller acts
// for. Students always act for themselves and leave it empty.
type EnrollmentRequest struct {
	StudentID string `json:"student_id" validate:"omitempty,uuid4"`
}

// CourseFilter provides filters for listing courses.
type CourseFilter struct {
	LecturerID string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
