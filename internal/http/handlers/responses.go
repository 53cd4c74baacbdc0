package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/auth"
	"github.com/hongminglow/servicedesk-be/internal/http/respond"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// Guard wraps a handler with an authorization check.
type Guard func(http.Handler) http.Handler

// route registers fn under method and path behind guard.
func route(r *mux.Router, method, path string, guard Guard, fn http.HandlerFunc) {
	var h http.Handler = fn
	if guard != nil {
		h = guard(h)
	}
	r.Handle(path, h).Methods(method)
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func queryID(r *http.Request, name string) int64 {
	id, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

func pageFromQuery(r *http.Request) models.Page {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return models.Page{Limit: limit, Offset: offset}
}

func identity(r *http.Request) auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

// storeError maps storage sentinels onto HTTP statuses.
func storeError(w http.ResponseWriter, log logrus.FieldLogger, err error, what string) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respond.Error(w, http.StatusNotFound, what+" not found")
	case errors.Is(err, storage.ErrAlreadyExists):
		respond.Error(w, http.StatusConflict, what+" already exists")
	case errors.Is(err, storage.ErrReferenced):
		respond.Error(w, http.StatusConflict, what+" is still referenced")
	case errors.Is(err, storage.ErrInvalidReference):
		respond.Error(w, http.StatusBadRequest, "referenced record does not exist")
	default:
		log.WithError(err).WithField("resource", what).Error("store operation failed")
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}

// Recorder appends activity log entries. Failures are logged only.
type Recorder struct {
	store storage.ActivityStore
	log   logrus.FieldLogger
}

// NewRecorder builds a Recorder.
func NewRecorder(store storage.ActivityStore, log logrus.FieldLogger) *Recorder {
	return &Recorder{store: store, log: log}
}

func (rec *Recorder) record(ctx context.Context, action string, entity models.Module, entityID int64, details ...string) {
	id, ok := auth.IdentityFromContext(ctx)
	if !ok || rec == nil || rec.store == nil {
		return
	}
	entry := models.ActivityEntry{
		UserID:   id.UserID,
		Action:   action,
		Entity:   string(entity),
		EntityID: entityID,
		Details:  strings.Join(details, "; "),
	}
	if err := rec.store.RecordActivity(ctx, entry); err != nil {
		rec.log.WithError(err).WithFields(logrus.Fields{
			"action": action,
			"entity": entity,
		}).Warn("record activity")
	}
}

func required(fields map[string]string) error {
	var missing []string
	for name, v := range fields {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return errors.New(strings.Join(missing, ", ") + " required")
}
