package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/http/respond"
	"github.com/hongminglow/servicedesk-be/internal/middleware"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/models/dto"
	"github.com/hongminglow/servicedesk-be/internal/notify"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// AuthHandler owns login, profile and password reset endpoints.
type AuthHandler struct {
	store    storage.UserStore
	tokens   *auth.TokenManager
	notifier notify.Notifier
	limiter  *middleware.RateLimiter
	resetTTL time.Duration
	rec      *Recorder
	log      logrus.FieldLogger
	now      func() time.Time
}

// AuthOptions groups the collaborators of AuthHandler.
type AuthOptions struct {
	Store    storage.UserStore
	Tokens   *auth.TokenManager
	Notifier notify.Notifier
	Limiter  *middleware.RateLimiter
	ResetTTL time.Duration
	Recorder *Recorder
	Log      logrus.FieldLogger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(opts AuthOptions) *AuthHandler {
	ttl := opts.ResetTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthHandler{
		store:    opts.Store,
		tokens:   opts.Tokens,
		notifier: opts.Notifier,
		limiter:  opts.Limiter,
		resetTTL: ttl,
		rec:      opts.Recorder,
		log:      opts.Log,
		now:      time.Now,
	}
}

// Register attaches auth routes. Login and password reset live on the public
// router, profile routes on the authenticated one.
func (h *AuthHandler) Register(public, protected *mux.Router) {
	var limit Guard
	if h.limiter != nil {
		limit = h.limiter.Middleware
	}
	route(public, http.MethodPost, "/auth/login", limit, h.handleLogin)
	route(public, http.MethodPost, "/auth/password/forgot", limit, h.handleForgot)
	route(public, http.MethodPost, "/auth/password/reset", limit, h.handleReset)
	route(protected, http.MethodGet, "/auth/me", nil, h.handleMe)
	route(protected, http.MethodPut, "/auth/me", nil, h.handleUpdateMe)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || strings.TrimSpace(req.Password) == "" {
		respond.Error(w, http.StatusBadRequest, "identifier and password are required")
		return
	}
	user, err := h.store.FindByUsernameOrEmail(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			h.log.WithField("identifier", identifier).Info("login failed: unknown user")
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		h.log.WithError(err).Error("login failed: fetch user")
		respond.Error(w, http.StatusInternalServerError, "failed to fetch user")
		return
	}
	if !user.Active || auth.CheckPassword(user.PasswordHash, req.Password) != nil {
		h.log.WithField("user_id", user.ID).Info("login failed: bad credentials or inactive")
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	token, expiresAt, err := h.tokens.Generate(user)
	if err != nil {
		h.log.WithError(err).Error("generate token")
		respond.Error(w, http.StatusInternalServerError, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, "login successful", dto.LoginResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), identity(r).UserID)
	if err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", user)
}

func (h *AuthHandler) handleUpdateMe(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.store.GetUser(r.Context(), identity(r).UserID)
	if err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		user.DisplayName = name
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		if !validEmail(email) {
			respond.Error(w, http.StatusBadRequest, "invalid email")
			return
		}
		user.Email = email
	}
	updated, err := h.store.UpdateUser(r.Context(), user)
	if err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	h.rec.record(r.Context(), "update", models.ModuleUsers, updated.ID, "profile")
	respond.JSON(w, http.StatusOK, "profile updated", updated)
}

// handleForgot answers 202 whether or not the email is known.
func (h *AuthHandler) handleForgot(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		respond.Error(w, http.StatusBadRequest, "email is required")
		return
	}
	if err := h.issueResetToken(r, email); err != nil {
		h.log.WithError(err).Error("issue reset token")
	}
	respond.JSON(w, http.StatusAccepted, "if the account exists a reset link has been sent", nil)
}

func (h *AuthHandler) issueResetToken(r *http.Request, email string) error {
	user, err := h.store.FindByEmail(r.Context(), email)
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return sendResetToken(r, h.store, h.notifier, user, h.now().Add(h.resetTTL))
}

func (h *AuthHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Token) == "" {
		respond.Error(w, http.StatusBadRequest, "token is required")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	user, err := h.store.FindByResetToken(r.Context(), strings.TrimSpace(req.Token))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusBadRequest, "invalid or expired token")
			return
		}
		storeError(w, h.log, err, "user")
		return
	}
	if user.ResetTokenExpiry == nil || h.now().After(*user.ResetTokenExpiry) {
		respond.Error(w, http.StatusBadRequest, "invalid or expired token")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}
	if err := h.store.SetPassword(r.Context(), user.ID, hash); err != nil {
		storeError(w, h.log, err, "user")
		return
	}
	h.log.WithField("user_id", user.ID).Info("password reset")
	respond.JSON(w, http.StatusOK, "password updated", nil)
}

// sendResetToken stores a fresh reset token for user and hands it to the notifier.
func sendResetToken(r *http.Request, store storage.UserStore, notifier notify.Notifier, user models.User, expiresAt time.Time) error {
	token, err := auth.NewResetToken()
	if err != nil {
		return err
	}
	if err := store.SetResetToken(r.Context(), user.ID, token, expiresAt); err != nil {
		return err
	}
	if notifier == nil {
		return nil
	}
	return notifier.PasswordReset(r.Context(), user, token, expiresAt)
}

func validEmail(email string) bool {
	at := strings.Index(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t")
}
