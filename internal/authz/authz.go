package authz

import (
	"fmt"

	"github.com/noah-isme/academic-records-api/internal/models"
)

// Action enumerates the operations the resolver can rule on.
type Action int

const (
	ActionList Action = iota
	ActionRetrieve
	ActionCreate
	ActionUpdate
	ActionDelete
	ActionEnroll
	ActionUnenroll
)

// Resource enumerates the protected resource classes.
type Resource int

const (
	ResourceStudent Resource = iota
	ResourceCourse
	ResourceGrade
	ResourceReview
	ResourceProfile
)

// Principal is the authenticated actor a request acts as. StudentID is empty
// when the account has no linked student record.
type Principal struct {
	UserID    string
	Role      models.UserRole
	StudentID string
}

// HasStudent reports whether the principal is linked to a student record.
func (p Principal) HasStudent() bool {
	return p.StudentID != ""
}

// Decision is the typed outcome of an authorization check. Deny is never an
// error value; the boundary layer maps it to a forbidden response.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns a permitting decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a rejecting decision with a reason.
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Ownership identifies the owning student and backing account of an object
// for object-level checks.
type Ownership struct {
	StudentID string
	UserID    string
}

func isSafe(action Action) bool {
	return action == ActionList || action == ActionRetrieve
}

func (p Principal) unauthenticated() bool {
	return p.UserID == "" || !p.Role.Valid()
}

// Authorize decides whether the principal may perform the action on the
// resource class. Pure function of role and identity; row-level narrowing of
// collection reads is handled separately by the scope functions.
func Authorize(p Principal, action Action, resource Resource) Decision {
	if p.unauthenticated() {
		return Deny("authentication required")
	}

	switch resource {
	case ResourceStudent:
		if action == ActionRetrieve {
			return Allow()
		}
		if action == ActionList {
			return requireRole(p, "only lecturers and admins may list students", models.RoleLecturer, models.RoleAdmin)
		}
		return requireRole(p, "only lecturers and admins may manage students", models.RoleLecturer, models.RoleAdmin)

	case ResourceCourse:
		if isSafe(action) {
			return Allow()
		}
		if action == ActionEnroll || action == ActionUnenroll {
			// Any role may initiate; the object check restricts students
			// to toggling their own enrollment.
			return Allow()
		}
		return requireRole(p, "only lecturers and admins may manage courses", models.RoleLecturer, models.RoleAdmin)

	case ResourceGrade:
		if isSafe(action) {
			return Allow()
		}
		return requireRole(p, "only lecturers and admins may manage grades", models.RoleLecturer, models.RoleAdmin)

	case ResourceReview:
		if isSafe(action) {
			return Allow()
		}
		if action == ActionCreate {
			return requireRole(p, "only students may create reviews", models.RoleStudent)
		}
		// Update and delete pass the role gate for everyone; the ownership
		// check decides.
		return Allow()

	case ResourceProfile:
		if action == ActionList {
			return requireRole(p, "only admins may list profiles", models.RoleAdmin)
		}
		if action == ActionRetrieve {
			return Allow()
		}
		return Deny("profiles are read only")

	default:
		return Deny(fmt.Sprintf("unknown resource %d", resource))
	}
}

// AuthorizeObject applies the ownership rule after a role check has passed
// for write or delete on a fetched object: safe actions always pass, admins
// may act on any object, otherwise the principal must be the owning student
// or the owning account.
func AuthorizeObject(p Principal, action Action, owner Ownership) Decision {
	if p.unauthenticated() {
		return Deny("authentication required")
	}
	if isSafe(action) {
		return Allow()
	}
	if p.Role == models.RoleAdmin {
		return Allow()
	}
	if owner.StudentID != "" && owner.StudentID == p.StudentID {
		return Allow()
	}
	if owner.UserID != "" && owner.UserID == p.UserID {
		return Allow()
	}
	return Deny("not the owner of this resource")
}

func requireRole(p Principal, reason string, roles ...models.UserRole) Decision {
	for _, role := range roles {
		if p.Role == role {
			return Allow()
		}
	}
	return Deny(reason)
}
