package types

import (
	"github.com/google/uuid"

	"github.com/freshfoldhq/freshfold-backend/pkg/enums"
)

// Actor identifies who is performing a mutation. Identity arrives from the
// upstream auth layer; the core only cares about id and role.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// SystemActor attributes mutations made by the reconciliation machinery
// rather than a person.
func SystemActor() Actor {
	return Actor{ID: uuid.Nil, Role: enums.ActorRoleSystem}
}

// IsAdmin reports whether the actor holds the admin role.
func (a Actor) IsAdmin() bool {
	return a.Role == enums.ActorRoleAdmin
}

// IsSystem reports whether the actor is the internal system identity.
func (a Actor) IsSystem() bool {
	return a.Role == enums.ActorRoleSystem
}
