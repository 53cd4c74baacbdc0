// Package access decides whether a verified caller may use a module
// capability. Administrators bypass the permission table; standard users are
// checked against their stored per-module row on every request.
package access

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// PermissionLookup is the slice of the permission store the gate reads and provisions.
type PermissionLookup interface {
	FindPermission(ctx context.Context, userID int64, module models.Module) (models.Permission, error)
	ListPermissions(ctx context.Context, userID int64) ([]models.Permission, error)
	EnsureDefaultPermissions(ctx context.Context, userID int64, modules []models.Module) error
}

// Config is the explicit gate configuration.
type Config struct {
	// Modules is the closed module set. Empty means models.AllModules.
	Modules []models.Module
}

// Subject is the caller as seen by the gate. It is either Admin or Standard.
type Subject interface {
	subjectID() int64
}

// Admin may use every capability of every module.
type Admin struct{ UserID int64 }

// Standard is authorized through the permission table.
type Standard struct{ UserID int64 }

func (a Admin) subjectID() int64    { return a.UserID }
func (s Standard) subjectID() int64 { return s.UserID }

// SubjectFor maps a verified identity to its subject variant.
func SubjectFor(id auth.Identity) Subject {
	if id.Role == models.RoleAdmin {
		return Admin{UserID: id.UserID}
	}
	return Standard{UserID: id.UserID}
}

// Gate authorizes module capabilities.
type Gate struct {
	modules []models.Module
	known   map[models.Module]struct{}
	store   PermissionLookup
	log     logrus.FieldLogger
}

// New builds a gate over store.
func New(cfg Config, store PermissionLookup, log logrus.FieldLogger) *Gate {
	modules := cfg.Modules
	if len(modules) == 0 {
		modules = models.AllModules
	}
	known := make(map[models.Module]struct{}, len(modules))
	ordered := make([]models.Module, 0, len(modules))
	for _, m := range modules {
		if _, dup := known[m]; dup {
			continue
		}
		known[m] = struct{}{}
		ordered = append(ordered, m)
	}
	return &Gate{modules: ordered, known: known, store: store, log: log}
}

// Modules returns the configured module set.
func (g *Gate) Modules() []models.Module {
	out := make([]models.Module, len(g.modules))
	copy(out, g.modules)
	return out
}

// Authorize reports whether subject may use capability on module. Lookup
// failures resolve to deny.
func (g *Gate) Authorize(ctx context.Context, subject Subject, module models.Module, capability models.Capability) bool {
	allowed, err := g.authorize(ctx, subject, module, capability)
	switch {
	case err != nil:
		observe(module, capability, decisionError)
		g.log.WithFields(logrus.Fields{
			"user_id":    subject.subjectID(),
			"module":     module,
			"capability": capability,
		}).WithError(err).Error("permission lookup failed")
	case allowed:
		observe(module, capability, decisionAllow)
	default:
		observe(module, capability, decisionDeny)
	}
	return allowed
}

func (g *Gate) authorize(ctx context.Context, subject Subject, module models.Module, capability models.Capability) (bool, error) {
	switch s := subject.(type) {
	case Admin:
		return true, nil
	case Standard:
		if _, ok := g.known[module]; !ok {
			return false, nil
		}
		if _, err := models.ParseCapability(string(capability)); err != nil {
			return false, nil
		}
		perm, err := g.store.FindPermission(ctx, s.UserID, module)
		if errors.Is(err, storage.ErrNotFound) {
			perm = models.DefaultPermission(s.UserID, module)
		} else if err != nil {
			return false, err
		}
		return perm.Allows(capability), nil
	default:
		return false, nil
	}
}

// EffectivePermissions returns one row per configured module. Standard users
// with no rows at all get all-false defaults persisted first; admins get
// synthetic all-true rows that are never stored.
func (g *Gate) EffectivePermissions(ctx context.Context, subject Subject) ([]models.Permission, error) {
	switch s := subject.(type) {
	case Admin:
		out := make([]models.Permission, 0, len(g.modules))
		for _, m := range g.modules {
			out = append(out, models.Permission{UserID: s.UserID, Module: m, CanRead: true, CanWrite: true, CanDelete: true})
		}
		return out, nil
	case Standard:
		perms, err := g.store.ListPermissions(ctx, s.UserID)
		if err != nil {
			return nil, fmt.Errorf("list permissions: %w", err)
		}
		if len(perms) > 0 {
			return g.complete(s.UserID, perms), nil
		}
		if err := g.store.EnsureDefaultPermissions(ctx, s.UserID, g.modules); err != nil {
			return nil, fmt.Errorf("provision default permissions: %w", err)
		}
		g.log.WithField("user_id", s.UserID).Info("provisioned default permissions")
		perms, err = g.store.ListPermissions(ctx, s.UserID)
		if err != nil {
			return nil, fmt.Errorf("list permissions: %w", err)
		}
		return g.complete(s.UserID, perms), nil
	default:
		return nil, errors.New("unknown subject")
	}
}

// complete orders rows by module and fills gaps left by modules added after
// the user's rows were provisioned.
func (g *Gate) complete(userID int64, perms []models.Permission) []models.Permission {
	byModule := make(map[models.Module]models.Permission, len(perms))
	for _, p := range perms {
		byModule[p.Module] = p
	}
	out := make([]models.Permission, 0, len(g.modules))
	for _, m := range g.modules {
		if p, ok := byModule[m]; ok {
			out = append(out, p)
			continue
		}
		out = append(out, models.DefaultPermission(userID, m))
	}
	return out
}

// Known reports whether module belongs to the configured set.
func (g *Gate) Known(module models.Module) bool {
	_, ok := g.known[module]
	return ok
}
