// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"strings"

	"github.com/google/uuid"
)

// ═══════════════════════════════════════════════════════════════════════════
// ID Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// NewID returns a fresh entity identifier (UUID v4 in string form).
func NewID() string {
	return uuid.NewString()
}

// IsValidID reports whether id is a non-empty identifier.
// Seeded catalog rows use readable IDs ("ms-cw1"), so UUID format is not required.
func IsValidID(id string) bool {
	return strings.TrimSpace(id) != ""
}

// ═══════════════════════════════════════════════════════════════════════════
// Role & Actor
// ═══════════════════════════════════════════════════════════════════════════

// Role is the caller's role as supplied by the identity provider.
type Role string

const (
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
	RoleAdmin   Role = "ADMIN"
)

// IsValid checks if the role is one of the known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	default:
		return false
	}
}

// IsStaff returns true for roles that may approve and administer.
func (r Role) IsStaff() bool {
	return r == RoleTeacher || r == RoleAdmin
}

// ParseRole parses a role string case-insensitively.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.IsValid()
}

// Actor identifies who performs a mutating operation.
type Actor struct {
	UserID string
	Role   Role
}

// NewActor creates an actor.
func NewActor(userID string, role Role) Actor {
	return Actor{UserID: userID, Role: role}
}

// IsStaff returns true if the actor is a teacher or an admin.
func (a Actor) IsStaff() bool {
	return a.Role.IsStaff()
}

// IsAdmin returns true if the actor is an admin.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}
