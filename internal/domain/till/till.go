// Package till models cash drawers, the cashier sessions opened on them and
// the cash movements that let a session be reconciled against a count.
package till

import (
	"strings"

	"github.com/erp/posledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Till is a physical cash drawer in a store
type Till struct {
	shared.TenantAggregateRoot
	StoreID uuid.UUID
	Name    string
}

// NewTill creates a till
func NewTill(tenantID, storeID uuid.UUID, name string) (*Till, error) {
	name = strings.TrimSpace(name)
	if tenantID == uuid.Nil || storeID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Tenant and store are required")
	}
	if name == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Till name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Till name cannot exceed 100 characters")
	}
	return &Till{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		StoreID:             storeID,
		Name:                name,
	}, nil
}
