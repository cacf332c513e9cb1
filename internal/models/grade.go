package models

import "time"

// Grade records a student's score in a course together with the derived
// letter, grade point and normal progress flag. One grade exists per
// student and course pair. The derived triple is written whenever the score
// changes so reads never re-resolve the band table.
type Grade struct {
	ID             string    `db:"id" json:"id"`
	StudentID      string    `db:"student_id" json:"student_id"`
	CourseID       string    `db:"course_id" json:"course_id"`
	Score          int       `db:"score" json:"score"`
	Letter         string    `db:"letter" json:"letter"`
	GradePoint     float64   `db:"grade_point" json:"grade_point"`
	NormalProgress bool      `db:"normal_progress" json:"normal_progress"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`

	StudentName string `db:"student_name" json:"student_name,omitempty"`
	CourseName  string `db:"course_name" json:"course_name,omitempty"`
	CourseCode  string `db:"course_code" json:"course_code,omitempty"`
	CreditUnits int    `db:"credit_units" json:"credit_units,omitempty"`
}

// CreateGradeRequest is the payload for recording a grade. Only the raw
// score is accepted; the letter, grade point and progress flag are derived.
type CreateGradeRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
	CourseID  string `json:"course_id" validate:"required,uuid4"`
	Score     int    `json:"score" validate:"min=0,max=100"`
}

// UpdateGradeRequest is the payload for rescoring a grade.
type UpdateGradeRequest struct {
	Score int `json:"score" validate:"min=0,max=100"`
}

// GradeFilter allows querying of grade entries. Scope narrowing applied by
// the access control resolver is carried separately.
type GradeFilter struct {
	StudentID string
	CourseID  string
	Letter    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
