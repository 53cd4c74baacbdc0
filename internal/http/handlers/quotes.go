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

var quoteStatuses = map[string]bool{
	models.QuoteDraft:    true,
	models.QuoteSent:     true,
	models.QuoteApproved: true,
	models.QuoteRejected: true,
}

// QuoteHandler serves /quotes.
type QuoteHandler struct {
	store storage.QuoteStore
	rec   *Recorder
	log   logrus.FieldLogger
}

// NewQuoteHandler constructs the handler.
func NewQuoteHandler(store storage.QuoteStore, rec *Recorder, log logrus.FieldLogger) *QuoteHandler {
	return &QuoteHandler{store: store, rec: rec, log: log}
}

// Register attaches quote routes.
func (h *QuoteHandler) Register(r *mux.Router, gate *access.Gate) {
	read := gate.Require(models.ModuleQuotes, models.CapabilityRead)
	write := gate.Require(models.ModuleQuotes, models.CapabilityWrite)
	del := gate.Require(models.ModuleQuotes, models.CapabilityDelete)
	route(r, http.MethodGet, "/quotes", read, h.handleList)
	route(r, http.MethodGet, "/quotes/{id:[0-9]+}", read, h.handleGet)
	route(r, http.MethodPost, "/quotes", write, h.handleCreate)
	route(r, http.MethodPut, "/quotes/{id:[0-9]+}", write, h.handleUpdate)
	route(r, http.MethodDelete, "/quotes/{id:[0-9]+}", del, h.handleDelete)
}

func (h *QuoteHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	quotes, err := h.store.ListQuotes(r.Context(), storage.QuoteFilter{ClientID: queryID(r, "client_id"), Page: page})
	if err != nil {
		storeError(w, h.log, err, "quote")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.ListResponse[models.Quote]{Items: quotes, Limit: page.Limit, Offset: page.Offset})
}

func (h *QuoteHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	quote, err := h.store.GetQuote(r.Context(), id)
	if err != nil {
		storeError(w, h.log, err, "quote")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", quote)
}

func (h *QuoteHandler) decode(w http.ResponseWriter, r *http.Request) (models.Quote, bool) {
	var req dto.QuoteRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return models.Quote{}, false
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = models.QuoteDraft
	}
	switch {
	case req.ClientID <= 0:
		respond.Error(w, http.StatusBadRequest, "client_id required")
	case strings.TrimSpace(req.Title) == "":
		respond.Error(w, http.StatusBadRequest, "title required")
	case req.AmountCents < 0:
		respond.Error(w, http.StatusBadRequest, "amount_cents must not be negative")
	case !quoteStatuses[status]:
		respond.Error(w, http.StatusBadRequest, "status must be draft, sent, approved or rejected")
	default:
		return models.Quote{
			ClientID:    req.ClientID,
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
			AmountCents: req.AmountCents,
			Status:      status,
			ValidUntil:  req.ValidUntil,
		}, true
	}
	return models.Quote{}, false
}

func (h *QuoteHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	quote, ok := h.decode(w, r)
	if !ok {
		return
	}
	quote.CreatedBy = identity(r).UserID
	created, err := h.store.CreateQuote(r.Context(), quote)
	if err != nil {
		storeError(w, h.log, err, "quote")
		return
	}
	h.rec.record(r.Context(), "create", models.ModuleQuotes, created.ID, created.Title)
	respond.JSON(w, http.StatusCreated, "quote created", created)
}

func (h *QuoteHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	quote, ok := h.decode(w, r)
	if !ok {
		return
	}
	quote.ID = id
	updated, err := h.store.UpdateQuote(r.Context(), quote)
	if err != nil {
		storeError(w, h.log, err, "quote")
		return
	}
	h.rec.record(r.Context(), "update", models.ModuleQuotes, id, "status="+updated.Status)
	respond.JSON(w, http.StatusOK, "quote updated", updated)
}

func (h *QuoteHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store.DeleteQuote(r.Context(), id); err != nil {
		storeError(w, h.log, err, "quote")
		return
	}
	h.rec.record(r.Context(), "delete", models.ModuleQuotes, id)
	respond.JSON(w, http.StatusOK, "quote deleted", nil)
}
