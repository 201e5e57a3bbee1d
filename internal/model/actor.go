package model

import "github.com/google/uuid"

// Role is the single role tag the identity provider resolves per request.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleClinician, RolePatient:
		return true
	}
	return false
}

// Actor is the authenticated identity attached to a request. The portal never
// owns actors; they arrive from the external identity provider and are
// validated once at the boundary.
type Actor struct {
	ID   uuid.UUID `json:"id"`
	Role Role      `json:"role"`
}

// Authenticated reports whether the actor carries a usable identity.
func (a Actor) Authenticated() bool {
	return a.ID != uuid.Nil && a.Role.Valid()
}
