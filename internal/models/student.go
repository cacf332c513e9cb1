package models

import "time"

// Student represents a learner registered in the institution. Every student
// is backed by exactly one user account.
type Student struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Email     string    `db:"email" json:"email"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail enriches a student with enrollments, grades and the derived
// grade point metrics. GPA, CGPA and standing are computed, never stored.
type StudentDetail struct {
	Student
	EnrolledCourses []Course `json:"enrolled_courses"`
	Grades          []Grade  `json:"grades"`
	GPA             float64  `json:"gpa"`
	CGPA            float64  `json:"cgpa"`
	SemesterRemark  string   `json:"semester_remark"`
}

// CreateStudentRequest is the payload for registering a student record.
type CreateStudentRequest struct {
	UserID string `json:"user_id" validate:"required,uuid4"`
	Name   string `json:"name" validate:"required,min=2,max=150"`
	Email  string `json:"email" validate:"required,email"`
}

// UpdateStudentRequest is the payload for updating a student record.
type UpdateStudentRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=150"`
	Email string `json:"email" validate:"required,email"`
}

// StudentGPA is the payload of the GPA endpoint.
type StudentGPA struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	GPA         float64 `json:"gpa"`
	CGPA        float64 `json:"cgpa"`
}
