// Package policy decides who may author and modify catalog content.
package policy

import "github.com/trezcool/pal/core/account"

// Owned is any catalog entity that resolves to the instructor owning it.
type Owned interface {
	OwnerID() string
}

// CanModify reports whether actor may edit or delete content governed by owned:
// admins may modify anything, instructors only what they own.
func CanModify(actor account.Account, owned Owned) bool {
	return actor.IsAdmin() || (actor.ID != "" && owned.OwnerID() == actor.ID)
}

// IsInstructorOrAdmin gates the creation of new content.
// It does not grant edit rights over content owned by someone else.
func IsInstructorOrAdmin(actor account.Account) bool {
	return actor.IsAdmin() || actor.IsInstructor()
}

// CanEnroll reports whether actor may enroll in or drop courses.
func CanEnroll(actor account.Account) bool {
	return actor.IsStudent()
}
