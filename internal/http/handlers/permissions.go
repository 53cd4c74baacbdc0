package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/access"
	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/http/respond"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/models/dto"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// PermissionHandler exposes permission administration.
type PermissionHandler struct {
	perms storage.PermissionStore
	users storage.UserStore
	gate  *access.Gate
	rec   *Recorder
	log   logrus.FieldLogger
}

// NewPermissionHandler constructs the handler.
func NewPermissionHandler(perms storage.PermissionStore, users storage.UserStore, gate *access.Gate, rec *Recorder, log logrus.FieldLogger) *PermissionHandler {
	return &PermissionHandler{perms: perms, users: users, gate: gate, rec: rec, log: log}
}

// Register attaches permission routes.
func (h *PermissionHandler) Register(r *mux.Router) {
	route(r, http.MethodGet, "/permissions", h.gate.RequireAdmin(), h.handleListAll)
	route(r, http.MethodGet, "/users/{id:[0-9]+}/permissions", h.selfOrRead, h.handleEffective)
	route(r, http.MethodPut, "/users/{id:[0-9]+}/permissions/{module}",
		h.gate.Require(models.ModulePermissions, models.CapabilityWrite), h.handleUpdate)
}

// selfOrRead lets callers view their own permissions and otherwise requires
// permissions read.
func (h *PermissionHandler) selfOrRead(next http.Handler) http.Handler {
	guarded := h.gate.Require(models.ModulePermissions, models.CapabilityRead)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.IdentityFromContext(r.Context())
		if !ok {
			respond.Error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if target, valid := pathID(r, "id"); valid && target == id.UserID {
			next.ServeHTTP(w, r)
			return
		}
		guarded.ServeHTTP(w, r)
	})
}

func (h *PermissionHandler) handleListAll(w http.ResponseWriter, r *http.Request) {
	perms, err := h.perms.ListAllPermissions(r.Context())
	if err != nil {
		storeError(w, h.log, err, "permission")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", perms)
}

func (h *PermissionHandler) handleEffective(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	subject := access.SubjectFor(auth.Identity{UserID: user.ID, Username: user.Username, Role: user.Role})
	perms, err := h.gate.EffectivePermissions(r.Context(), subject)
	if err != nil {
		h.log.WithError(err).WithField("user_id", id).Error("effective permissions")
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", perms)
}

func (h *PermissionHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	module, err := models.ParseModule(mux.Vars(r)["module"])
	if err != nil || !h.gate.Known(module) {
		respond.Error(w, http.StatusBadRequest, "unknown module")
		return
	}
	var req dto.UpdatePermissionRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	if user.IsAdmin() {
		respond.Error(w, http.StatusBadRequest, "admin permissions are implicit")
		return
	}
	saved, err := h.perms.UpsertPermission(r.Context(), models.Permission{
		UserID:    id,
		Module:    module,
		CanRead:   req.CanRead,
		CanWrite:  req.CanWrite,
		CanDelete: req.CanDelete,
	})
	if err != nil {
		storeError(w, h.log, err, "permission")
		return
	}
	h.log.WithFields(logrus.Fields{
		"user_id":    id,
		"module":     module,
		"can_read":   saved.CanRead,
		"can_write":  saved.CanWrite,
		"can_delete": saved.CanDelete,
	}).Info("permission updated")
	h.rec.record(r.Context(), "update", models.ModulePermissions, id, string(module))
	respond.JSON(w, http.StatusOK, "permission updated", saved)
}
