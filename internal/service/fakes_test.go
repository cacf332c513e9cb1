package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/noah-isme/academic-records-api/internal/authz"
	"github.com/noah-isme/academic-records-api/internal/models"
	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

type fakeStudentRepo struct {
	students map[string]*models.Student
	deleted  []string
}

func (f *fakeStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range f.students {
		out = append(out, *s)
	}
	return out, len(out), nil
}

func (f *fakeStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := f.students[id]; ok {
		copy := *s
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	for _, s := range f.students {
		if s.UserID == userID {
			copy := *s
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if f.students == nil {
		f.students = make(map[string]*models.Student)
	}
	if student.ID == "" {
		student.ID = "stu-new"
	}
	copy := *student
	f.students[student.ID] = &copy
	return nil
}

func (f *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	copy := *student
	f.students[student.ID] = &copy
	return nil
}

func (f *fakeStudentRepo) Delete(ctx context.Context, id string) error {
	delete(f.students, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCourseRepo struct {
	courses map[string]*models.Course
}

func (f *fakeCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range f.courses {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (f *fakeCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := f.courses[id]; ok {
		copy := *c
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCourseRepo) ExistsByCode(ctx context.Context, code, excludeID string) (bool, error) {
	for _, c := range f.courses {
		if c.Code == code && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if f.courses == nil {
		f.courses = make(map[string]*models.Course)
	}
	if course.ID == "" {
		course.ID = "course-new"
	}
	copy := *course
	f.courses[course.ID] = &copy
	return nil
}

func (f *fakeCourseRepo) Update(ctx context.Context, course *models.Course) error {
	copy := *course
	f.courses[course.ID] = &copy
	return nil
}

func (f *fakeCourseRepo) Delete(ctx context.Context, id string) error {
	delete(f.courses, id)
	return nil
}

type fakeEnrollmentRepo struct {
	edges          map[string]bool
	studentCourses map[string][]models.Course
	courseStudents map[string][]models.Student
}

func edgeKey(courseID, studentID string) string {
	return courseID + "/" + studentID
}

func (f *fakeEnrollmentRepo) Enroll(ctx context.Context, courseID, studentID string) (bool, error) {
	if f.edges == nil {
		f.edges = make(map[string]bool)
	}
	key := edgeKey(courseID, studentID)
	if f.edges[key] {
		return false, nil
	}
	f.edges[key] = true
	return true, nil
}

func (f *fakeEnrollmentRepo) Unenroll(ctx context.Context, courseID, studentID string) (bool, error) {
	key := edgeKey(courseID, studentID)
	if !f.edges[key] {
		return false, nil
	}
	delete(f.edges, key)
	return true, nil
}

func (f *fakeEnrollmentRepo) ListStudentCourses(ctx context.Context, studentID string) ([]models.Course, error) {
	return f.studentCourses[studentID], nil
}

func (f *fakeEnrollmentRepo) ListCourseStudents(ctx context.Context, courseID string) ([]models.Student, error) {
	return f.courseStudents[courseID], nil
}

type fakeGradeRepo struct {
	grades    map[string]*models.Grade
	lastScope authz.Scope
}

func (f *fakeGradeRepo) List(ctx context.Context, filter models.GradeFilter, scope authz.Scope) ([]models.Grade, int, error) {
	f.lastScope = scope
	if scope.None {
		return []models.Grade{}, 0, nil
	}
	var out []models.Grade
	for _, g := range f.grades {
		if scope.StudentID != "" && g.StudentID != scope.StudentID {
			continue
		}
		out = append(out, *g)
	}
	return out, len(out), nil
}

func (f *fakeGradeRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Grade, error) {
	var out []models.Grade
	for _, g := range f.grades {
		if g.StudentID == studentID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGradeRepo) FindByID(ctx context.Context, id string) (*models.Grade, error) {
	if g, ok := f.grades[id]; ok {
		copy := *g
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGradeRepo) Create(ctx context.Context, grade *models.Grade) error {
	if f.grades == nil {
		f.grades = make(map[string]*models.Grade)
	}
	for _, g := range f.grades {
		if g.StudentID == grade.StudentID && g.CourseID == grade.CourseID {
			return appErrors.ErrDuplicateGrade
		}
	}
	if grade.ID == "" {
		grade.ID = "grade-new"
	}
	copy := *grade
	f.grades[grade.ID] = &copy
	return nil
}

func (f *fakeGradeRepo) Update(ctx context.Context, grade *models.Grade) error {
	copy := *grade
	f.grades[grade.ID] = &copy
	return nil
}

func (f *fakeGradeRepo) Delete(ctx context.Context, id string) error {
	delete(f.grades, id)
	return nil
}

type fakeReviewRepo struct {
	reviews   map[string]*models.CourseReview
	lastScope authz.Scope
}

func (f *fakeReviewRepo) List(ctx context.Context, filter models.ReviewFilter, scope authz.Scope) ([]models.CourseReview, int, error) {
	f.lastScope = scope
	if scope.None {
		return []models.CourseReview{}, 0, nil
	}
	var out []models.CourseReview
	for _, r := range f.reviews {
		if filter.CourseID != "" && r.CourseID != filter.CourseID {
			continue
		}
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (f *fakeReviewRepo) FindByID(ctx context.Context, id string) (*models.CourseReview, error) {
	if r, ok := f.reviews[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeReviewRepo) Create(ctx context.Context, review *models.CourseReview) error {
	if f.reviews == nil {
		f.reviews = make(map[string]*models.CourseReview)
	}
	for _, r := range f.reviews {
		if r.StudentID == review.StudentID && r.CourseID == review.CourseID {
			return appErrors.ErrDuplicateReview
		}
	}
	if review.ID == "" {
		review.ID = "review-new"
	}
	copy := *review
	f.reviews[review.ID] = &copy
	return nil
}

func (f *fakeReviewRepo) Update(ctx context.Context, review *models.CourseReview) error {
	copy := *review
	f.reviews[review.ID] = &copy
	return nil
}

func (f *fakeReviewRepo) Delete(ctx context.Context, id string) error {
	delete(f.reviews, id)
	return nil
}

type fakeAuditWriter struct {
	logs []models.AuditLog
}

func (f *fakeAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, *log)
	return nil
}

type fakeCache struct {
	values      map[string][]byte
	invalidated []string
}

func (f *fakeCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if f.values == nil {
		f.values = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = raw
	return nil
}

func (f *fakeCache) Invalidate(ctx context.Context, keys ...string) {
	f.invalidated = append(f.invalidated, keys...)
	for _, key := range keys {
		delete(f.values, key)
	}
}
