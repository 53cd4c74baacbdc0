package models

import (
	"fmt"
	"time"
)

// Module names a functional area of the application. It is the unit of
// permission granularity.
type Module string

const (
	ModuleClients       Module = "clients"
	ModuleQuotes        Module = "quotes"
	ModuleServiceOrders Module = "serviceOrders"
	ModuleVisits        Module = "visits"
	ModuleUsers         Module = "users"
	ModulePermissions   Module = "permissions"
	ModuleChat          Module = "chat"
	ModuleLogs          Module = "logs"
)

// AllModules is the closed module enumeration in display order.
var AllModules = []Module{
	ModuleClients,
	ModuleQuotes,
	ModuleServiceOrders,
	ModuleVisits,
	ModuleUsers,
	ModulePermissions,
	ModuleChat,
	ModuleLogs,
}

// ParseModule validates raw against AllModules.
func ParseModule(raw string) (Module, error) {
	for _, m := range AllModules {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown module %q", raw)
}

func (m Module) String() string { return string(m) }

// Capability is an action class checked independently per module.
type Capability string

const (
	CapabilityRead   Capability = "read"
	CapabilityWrite  Capability = "write"
	CapabilityDelete Capability = "delete"
)

// Capabilities lists every capability.
var Capabilities = []Capability{CapabilityRead, CapabilityWrite, CapabilityDelete}

// ParseCapability validates raw.
func ParseCapability(raw string) (Capability, error) {
	switch Capability(raw) {
	case CapabilityRead, CapabilityWrite, CapabilityDelete:
		return Capability(raw), nil
	}
	return "", fmt.Errorf("unknown capability %q", raw)
}

func (c Capability) String() string { return string(c) }

// Permission is the per user and module grant.
type Permission struct {
	UserID    int64     `json:"user_id"`
	Module    Module    `json:"module"`
	CanRead   bool      `json:"can_read"`
	CanWrite  bool      `json:"can_write"`
	CanDelete bool      `json:"can_delete"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Allows returns the flag matching c. Unknown capabilities are never allowed.
func (p Permission) Allows(c Capability) bool {
	switch c {
	case CapabilityRead:
		return p.CanRead
	case CapabilityWrite:
		return p.CanWrite
	case CapabilityDelete:
		return p.CanDelete
	}
	return false
}

// DefaultPermission returns the fail-closed row used when no grant exists.
func DefaultPermission(userID int64, module Module) Permission {
	return Permission{UserID: userID, Module: module}
}
