package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/access"
	"github.com/hongminglow/servicedesk-be/internal/http/respond"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/models/dto"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// ClientHandler serves /clients.
type ClientHandler struct {
	store storage.ClientStore
	rec   *Recorder
	log   logrus.FieldLogger
}

// NewClientHandler constructs the handler.
func NewClientHandler(store storage.ClientStore, rec *Recorder, log logrus.FieldLogger) *ClientHandler {
	return &ClientHandler{store: store, rec: rec, log: log}
}

// Register attaches client routes.
func (h *ClientHandler) Register(r *mux.Router, gate *access.Gate) {
	read := gate.Require(models.ModuleClients, models.CapabilityRead)
	write := gate.Require(models.ModuleClients, models.CapabilityWrite)
	del := gate.Require(models.ModuleClients, models.CapabilityDelete)
	route(r, http.MethodGet, "/clients", read, h.handleList)
	route(r, http.MethodGet, "/clients/{id:[0-9]+}", read, h.handleGet)
	route(r, http.MethodPost, "/clients", write, h.handleCreate)
	route(r, http.MethodPut, "/clients/{id:[0-9]+}", write, h.handleUpdate)
	route(r, http.MethodDelete, "/clients/{id:[0-9]+}", del, h.handleDelete)
}

func (h *ClientHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	clients, err := h.store.ListClients(r.Context(), storage.ClientFilter{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
		Page:  page,
	})
	if err != nil {
		storeError(w, h.log, err, "client")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.ListResponse[models.Client]{Items: clients, Limit: page.Limit, Offset: page.Offset})
}

func (h *ClientHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	client, err := h.store.GetClient(r.Context(), id)
	if err != nil {
		storeError(w, h.log, err, "client")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", client)
}

func (h *ClientHandler) decode(w http.ResponseWriter, r *http.Request) (models.Client, bool) {
	var req dto.ClientRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return models.Client{}, false
	}
	if strings.TrimSpace(req.Name) == "" {
		respond.Error(w, http.StatusBadRequest, "name required")
		return models.Client{}, false
	}
	email := strings.TrimSpace(req.Email)
	if email != "" && !validEmail(email) {
		respond.Error(w, http.StatusBadRequest, "invalid email")
		return models.Client{}, false
	}
	return models.Client{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Phone:    strings.TrimSpace(req.Phone),
		Document: strings.TrimSpace(req.Document),
		Address:  strings.TrimSpace(req.Address),
		Notes:    req.Notes,
	}, true
}

func (h *ClientHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	client, ok := h.decode(w, r)
	if !ok {
		return
	}
	created, err := h.store.CreateClient(r.Context(), client)
	if err != nil {
		storeError(w, h.log, err, "client")
		return
	}
	h.rec.record(r.Context(), "create", models.ModuleClients, created.ID, created.Name)
	respond.JSON(w, http.StatusCreated, "client created", created)
}

func (h *ClientHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	client, ok := h.decode(w, r)
	if !ok {
		return
	}
	client.ID = id
	updated, err := h.store.UpdateClient(r.Context(), client)
	if err != nil {
		storeError(w, h.log, err, "client")
		return
	}
	h.rec.record(r.Context(), "update", models.ModuleClients, id)
	respond.JSON(w, http.StatusOK, "client updated", updated)
}

func (h *ClientHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store.DeleteClient(r.Context(), id); err != nil {
		storeError(w, h.log, err, "client")
		return
	}
	h.rec.record(r.Context(), "delete", models.ModuleClients, id)
	respond.JSON(w, http.StatusOK, "client deleted", nil)
}
