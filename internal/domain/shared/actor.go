package shared

import "github.com/google/uuid"

// Actor is the identity a ledger operation runs as
type Actor struct {
	TenantID     uuid.UUID
	StoreID      uuid.UUID
	UserID       uuid.UUID
	Capabilities Capabilities
}

// NewActor creates an actor with capabilities resolved from permissions
func NewActor(tenantID, storeID, userID uuid.UUID, permissions []string) Actor {
	return Actor{
		TenantID:     tenantID,
		StoreID:      storeID,
		UserID:       userID,
		Capabilities: ResolveCapabilities(permissions),
	}
}

// SystemActor is used by scheduled jobs acting on behalf of a tenant
func SystemActor(tenantID uuid.UUID) Actor {
	return Actor{
		TenantID:     tenantID,
		Capabilities: AllCapabilities(),
	}
}

// Validate checks the identity fields every ledger call needs
func (a Actor) Validate() error {
	if a.TenantID == uuid.Nil {
		return NewDomainError(CodeUnauthorized, "tenant is required")
	}
	return nil
}

// Require checks a capability on the actor
func (a Actor) Require(capability Capability) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return a.Capabilities.Require(capability)
}
