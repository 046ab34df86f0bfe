package shared

import "strings"

// Capability is a named permission the ledger checks before acting.
// Capabilities are resolved once per request from the caller's permission
// strings and passed down explicitly.
type Capability string

const (
	CapInventoryAdjust  Capability = "inventory:adjust"
	CapInventoryReceive Capability = "inventory:receive"
	CapInventoryView    Capability = "inventory:view"
	CapSaleCreate       Capability = "sales:create"
	CapSaleView         Capability = "sales:view"
	CapSaleVoid         Capability = "sales:void"
	CapReturnCreate     Capability = "returns:create"
	CapTillOperate      Capability = "till:operate"
	CapTillSupervise    Capability = "till:supervise"
	CapReportView       Capability = "report:view"
	CapReportAllStores  Capability = "report:all_stores"
	CapAuditRun         Capability = "audit:run"
	CapCatalogManage    Capability = "catalog:manage"
)

// wildcardPermission grants every capability
const wildcardPermission = "*"

// Capabilities is an immutable capability set
type Capabilities struct {
	all bool
	set map[Capability]struct{}
}

// ResolveCapabilities builds a capability set from permission strings.
// "*" grants everything; "<resource>:*" grants every action on a resource.
func ResolveCapabilities(permissions []string) Capabilities {
	caps := Capabilities{set: make(map[Capability]struct{}, len(permissions))}
	for _, p := range permissions {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if p == wildcardPermission {
			caps.all = true
			continue
		}
		caps.set[Capability(p)] = struct{}{}
	}
	return caps
}

// AllCapabilities returns a set that grants every capability (system jobs)
func AllCapabilities() Capabilities {
	return Capabilities{all: true}
}

// Has reports whether the set grants c
func (c Capabilities) Has(capability Capability) bool {
	if c.all {
		return true
	}
	if _, ok := c.set[capability]; ok {
		return true
	}
	resource, _, found := strings.Cut(string(capability), ":")
	if !found {
		return false
	}
	_, ok := c.set[Capability(resource+":*")]
	return ok
}

// Require returns ErrForbidden-coded error when c is missing
func (c Capabilities) Require(capability Capability) error {
	if c.Has(capability) {
		return nil
	}
	return NewDomainError(CodeForbidden, "missing capability "+string(capability))
}

// List returns the explicit capabilities in the set
func (c Capabilities) List() []Capability {
	if c.all {
		return []Capability{wildcardPermission}
	}
	out := make([]Capability, 0, len(c.set))
	for k := range c.set {
		out = append(out, k)
	}
	return out
}
