package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/access"
	"github.com/hongminglow/servicedesk-be/internal/http/respond"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/models/dto"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

var visitStatuses = map[string]bool{
	models.VisitScheduled: true,
	models.VisitDone:      true,
	models.VisitCancelled: true,
}

// VisitHandler serves /visits.
type VisitHandler struct {
	store storage.VisitStore
	rec   *Recorder
	log   logrus.FieldLogger
}

// NewVisitHandler constructs the handler.
func NewVisitHandler(store storage.VisitStore, rec *Recorder, log logrus.FieldLogger) *VisitHandler {
	return &VisitHandler{store: store, rec: rec, log: log}
}

// Register attaches visit routes.
func (h *VisitHandler) Register(r *mux.Router, gate *access.Gate) {
	read := gate.Require(models.ModuleVisits, models.CapabilityRead)
	write := gate.Require(models.ModuleVisits, models.CapabilityWrite)
	del := gate.Require(models.ModuleVisits, models.CapabilityDelete)
	route(r, http.MethodGet, "/visits", read, h.handleList)
	route(r, http.MethodGet, "/visits/{id:[0-9]+}", read, h.handleGet)
	route(r, http.MethodPost, "/visits", write, h.handleCreate)
	route(r, http.MethodPut, "/visits/{id:[0-9]+}", write, h.handleUpdate)
	route(r, http.MethodDelete, "/visits/{id:[0-9]+}", del, h.handleDelete)
}

func parseTimeParam(r *http.Request, name string) (*time.Time, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, true
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, false
	}
	return &ts, true
}

func (h *VisitHandler) handleList(w http.ResponseWriter, r *http.Request) {
	from, ok := parseTimeParam(r, "from")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "from must be RFC3339")
		return
	}
	to, ok := parseTimeParam(r, "to")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "to must be RFC3339")
		return
	}
	if from != nil && to != nil && to.Before(*from) {
		respond.Error(w, http.StatusBadRequest, "to must not be before from")
		return
	}
	page := pageFromQuery(r)
	visits, err := h.store.ListVisits(r.Context(), storage.VisitFilter{From: from, To: to, Page: page})
	if err != nil {
		storeError(w, h.log, err, "visit")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.ListResponse[models.Visit]{Items: visits, Limit: page.Limit, Offset: page.Offset})
}

func (h *VisitHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	visit, err := h.store.GetVisit(r.Context(), id)
	if err != nil {
		storeError(w, h.log, err, "visit")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", visit)
}

func (h *VisitHandler) decode(w http.ResponseWriter, r *http.Request) (models.Visit, bool) {
	var req dto.VisitRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return models.Visit{}, false
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = models.VisitScheduled
	}
	switch {
	case req.ClientID <= 0:
		respond.Error(w, http.StatusBadRequest, "client_id required")
	case req.ScheduledAt.IsZero():
		respond.Error(w, http.StatusBadRequest, "scheduled_at required")
	case !visitStatuses[status]:
		respond.Error(w, http.StatusBadRequest, "status must be scheduled, done or cancelled")
	default:
		return models.Visit{
			ClientID:       req.ClientID,
			ServiceOrderID: req.ServiceOrderID,
			ScheduledAt:    req.ScheduledAt.UTC(),
			Address:        strings.TrimSpace(req.Address),
			Notes:          req.Notes,
			Status:         status,
			AssignedTo:     req.AssignedTo,
		}, true
	}
	return models.Visit{}, false
}

func (h *VisitHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	visit, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.store.CreateVisit(r.Context(), visit)
	if err != nil {
		storeError(w, h.log, err, "visit")
		return
	}
	h.rec.record(r.Context(), "create", models.ModuleVisits, created.ID, created.ScheduledAt.Format(time.RFC3339))
	respond.JSON(w, http.StatusCreated, "visit created", created)
}

func (h *VisitHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	visit, ok := h.decode(w, r)
	if !ok {
		return
	}
	visit.ID = id
	updated, err := h.store.UpdateVisit(r.Context(), visit)
	if err != nil {
		storeError(w, h.log, err, "visit")
		return
	}
	h.rec.record(r.Context(), "update", models.ModuleVisits, id, "status="+updated.Status)
	respond.JSON(w, http.StatusOK, "visit updated", updated)
}

func (h *VisitHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store.DeleteVisit(r.Context(), id); err != nil {
		storeError(w, h.log, err, "visit")
		return
	}
	h.rec.record(r.Context(), "delete", models.ModuleVisits, id)
	respond.JSON(w, http.StatusOK, "visit deleted", nil)
}
