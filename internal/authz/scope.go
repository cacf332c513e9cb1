package authz

import "github.com/noah-isme/academic-records-api/internal/models"

// Scope narrows a collection read to the rows the principal may see. It is a
// query predicate, not a permission rejection: an over-broad request silently
// returns fewer rows. Exactly one of the fields is meaningful: All grants
// everything, None grants nothing, StudentID restricts to one student's rows
// and LecturerID restricts to courses taught by that account.
type Scope struct {
	All        bool
	None       bool
	StudentID  string
	LecturerID string
}

// GradeScope returns the row filter for grade listings: students see only
// their own grades (or nothing when no student record is linked), lecturers
// see grades of courses they teach, admins see all.
func GradeScope(p Principal) Scope {
	switch p.Role {
	case models.RoleStudent:
		if !p.HasStudent() {
			return Scope{None: true}
		}
		return Scope{StudentID: p.StudentID}
	case models.RoleLecturer:
		return Scope{LecturerID: p.UserID}
	case models.RoleAdmin:
		return Scope{All: true}
	default:
		return Scope{None: true}
	}
}

// ReviewScope returns the row filter for review listings: lecturers see only
// reviews of courses they teach, students and admins see all reviews.
func ReviewScope(p Principal) Scope {
	switch p.Role {
	case models.RoleStudent, models.RoleAdmin:
		return Scope{All: true}
	case models.RoleLecturer:
		return Scope{LecturerID: p.UserID}
	default:
		return Scope{None: true}
	}
}
