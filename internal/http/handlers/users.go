package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/access"
	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/http/respond"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/models/dto"
	"github.com/hongminglow/servicedesk-be/internal/notify"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// UserHandler administers user accounts.
type UserHandler struct {
	store       storage.UserStore
	notifier    notify.Notifier
	activateTTL time.Duration
	rec         *Recorder
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewUserHandler constructs the handler. activateTTL bounds activation tokens
// issued to accounts created without a password.
func NewUserHandler(store storage.UserStore, notifier notify.Notifier, activateTTL time.Duration, rec *Recorder, log logrus.FieldLogger) *UserHandler {
	if activateTTL <= 0 {
		activateTTL = time.Hour
	}
	return &UserHandler{store: store, notifier: notifier, activateTTL: activateTTL, rec: rec, log: log, now: time.Now}
}

// Register attaches user routes.
func (h *UserHandler) Register(r *mux.Router, gate *access.Gate) {
	route(r, http.MethodGet, "/users", gate.Require(models.ModuleUsers, models.CapabilityRead), h.handleList)
	route(r, http.MethodGet, "/users/{id:[0-9]+}", gate.Require(models.ModuleUsers, models.CapabilityRead), h.handleGet)
	route(r, http.MethodPost, "/users", gate.RequireAdmin(), h.handleCreate)
	route(r, http.MethodPut, "/users/{id:[0-9]+}", gate.RequireAdmin(), h.handleUpdate)
	route(r, http.MethodDelete, "/users/{id:[0-9]+}", gate.RequireAdmin(), h.handleDelete)
}

func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	users, err := h.store.ListUsers(r.Context(), page)
	if err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.ListResponse[models.User]{Items: users, Limit: page.Limit, Offset: page.Offset})
}

func (h *UserHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}

func (h *UserHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateUserRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := required(map[string]string{"username": req.Username, "email": req.Email}); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(req.Email)
	if !validEmail(email) {
		respond.Error(w, http.StatusBadRequest, "invalid email")
		return
	}
	role := models.RoleStandard
	if strings.TrimSpace(req.Role) != "" {
		role = models.Role(strings.ToLower(strings.TrimSpace(req.Role)))
		if !role.Valid() {
			respond.Error(w, http.StatusBadRequest, "role must be admin or standard")
			return
		}
	}
	user := models.User{
		Username:    strings.TrimSpace(req.Username),
		Email:       email,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        role,
	}
	if req.Password != "" {
		if err := auth.ValidatePassword(req.Password); err != nil {
			respond.Error(w, http.StatusBadRequest, err.Error())
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respond.Error(w, http.StatusInternalServerError, "failed to hash password")
			return
		}
		user.PasswordHash = hash
		user.Active = true
	}

	created, err := h.store.CreateUser(r.Context(), user)
	if err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	if !created.Active {
		if err := sendResetToken(r, h.store, h.notifier, created, h.now().Add(h.activateTTL)); err != nil {
			h.log.WithError(err).WithField("user_id", created.ID).Error("issue activation token")
		}
	}
	h.rec.record(r.Context(), "create", models.ModuleUsers, created.ID, created.Username)
	respond.JSON(w, http.StatusCreated, "user created", created)
}

func (h *UserHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	var req dto.UpdateUserRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.store.GetUser(r.Context(), id)
	if err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	if req.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*req.DisplayName)
	}
	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !validEmail(email) {
			respond.Error(w, http.StatusBadRequest, "invalid email")
			return
		}
		user.Email = email
	}
	if req.Role != nil {
		role := models.Role(strings.ToLower(strings.TrimSpace(*req.Role)))
		if !role.Valid() {
			respond.Error(w, http.StatusBadRequest, "role must be admin or standard")
			return
		}
		user.Role = role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	updated, err := h.store.UpdateUser(r.Context(), user)
	if err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	h.rec.record(r.Context(), "update", models.ModuleUsers, updated.ID)
	respond.JSON(w, http.StatusOK, "user updated", updated)
}

func (h *UserHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if id == identity(r).UserID {
		respond.Error(w, http.StatusConflict, "cannot delete your own account")
		return
	}
	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	h.rec.record(r.Context(), "delete", models.ModuleUsers, id)
	respond.JSON(w, http.StatusOK, "user deleted", nil)
}
