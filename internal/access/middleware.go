package access

import (
	"net/http"

	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/http/respond"
	"github.com/hongminglow/servicedesk-be/internal/models"
)

// Require guards a route with a statically declared module capability.
func (g *Gate) Require(module models.Module, capability models.Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !g.Authorize(r.Context(), SubjectFor(id), module, capability) {
				respond.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin guards administrator-only routes by role, outside the permission table.
func (g *Gate) RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := auth.IdentityFromContext(r.Context())
			if !ok {
				respond.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if _, admin := SubjectFor(id).(Admin); !admin {
				respond.Error(w, http.StatusForbidden, "forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
