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

var orderStatuses = map[string]bool{
	models.OrderOpen:       true,
	models.OrderInProgress: true,
	models.OrderCompleted:  true,
	models.OrderCancelled:  true,
}

// ServiceOrderHandler serves /service-orders.
type ServiceOrderHandler struct {
	store storage.ServiceOrderStore
	rec   *Recorder
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewServiceOrderHandler constructs the handler.
func NewServiceOrderHandler(store storage.ServiceOrderStore, rec *Recorder, log logrus.FieldLogger) *ServiceOrderHandler {
	return &ServiceOrderHandler{store: store, rec: rec, log: log, now: time.Now}
}

// Register attaches service order routes.
func (h *ServiceOrderHandler) Register(r *mux.Router, gate *access.Gate) {
	read := gate.Require(models.ModuleServiceOrders, models.CapabilityRead)
	write := gate.Require(models.ModuleServiceOrders, models.CapabilityWrite)
	del := gate.Require(models.ModuleServiceOrders, models.CapabilityDelete)
	route(r, http.MethodGet, "/service-orders", read, h.handleList)
	route(r, http.MethodGet, "/service-orders/{id:[0-9]+}", read, h.handleGet)
	route(r, http.MethodPost, "/service-orders", write, h.handleCreate)
	route(r, http.MethodPut, "/service-orders/{id:[0-9]+}", write, h.handleUpdate)
	route(r, http.MethodDelete, "/service-orders/{id:[0-9]+}", del, h.handleDelete)
}

func (h *ServiceOrderHandler) handleList(w http.ResponseWriter, r *http.Request) {
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" && !orderStatuses[status] {
		respond.Error(w, http.StatusBadRequest, "unknown status")
		return
	}
	page := pageFromQuery(r)
	orders, err := h.store.ListServiceOrders(r.Context(), storage.ServiceOrderFilter{
		ClientID: queryID(r, "client_id"),
		Status:   status,
		Page:     page,
	})
	if err != nil {
		storeError(w, h.log, err, "service order")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.ListResponse[models.ServiceOrder]{Items: orders, Limit: page.Limit, Offset: page.Offset})
}

func (h *ServiceOrderHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	order, err := h.store.GetServiceOrder(r.Context(), id)
	if err != nil {
		storeError(w, h.log, err, "service order")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", order)
}

func (h *ServiceOrderHandler) decode(w http.ResponseWriter, r *http.Request) (models.ServiceOrder, bool) {
	var req dto.ServiceOrderRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return models.ServiceOrder{}, false
	}
	status := strings.TrimSpace(req.Status)
	if status == "" {
		status = models.OrderOpen
	}
	switch {
	case req.ClientID <= 0:
		respond.Error(w, http.StatusBadRequest, "client_id required")
	case strings.TrimSpace(req.Description) == "":
		respond.Error(w, http.StatusBadRequest, "description required")
	case !orderStatuses[status]:
		respond.Error(w, http.StatusBadRequest, "status must be open, in_progress, completed or cancelled")
	default:
		return models.ServiceOrder{
			ClientID:    req.ClientID,
			QuoteID:     req.QuoteID,
			Description: strings.TrimSpace(req.Description),
			Status:      status,
			AssignedTo:  req.AssignedTo,
		}, true
	}
	return models.ServiceOrder{}, false
}

func (h *ServiceOrderHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	order, ok := h.decode(w, r)
	if !ok {
		return
	}
	order.CreatedBy = identity(r).UserID
	if order.Status == models.OrderCompleted {
		now := h.now().UTC()
		order.CompletedAt = &now
	}
	created, err := h.store.CreateServiceOrder(r.Context(), order)
	if err != nil {
		storeError(w, h.log, err, "service order")
		return
	}
	h.rec.record(r.Context(), "create", models.ModuleServiceOrders, created.ID)
	respond.JSON(w, http.StatusCreated, "service order created", created)
}

func (h *ServiceOrderHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	order, ok := h.decode(w, r)
	if !ok {
		return
	}
	current, err := h.store.GetServiceOrder(r.Context(), id)
	if err != nil {
		storeError(w, h.log, err, "service order")
		return
	}
	order.ID = id
	order.CompletedAt = completedAt(current, order.Status, h.now())
	updated, err := h.store.UpdateServiceOrder(r.Context(), order)
	if err != nil {
		storeError(w, h.log, err, "service order")
		return
	}
	h.rec.record(r.Context(), "update", models.ModuleServiceOrders, id, "status="+updated.Status)
	respond.JSON(w, http.StatusOK, "service order updated", updated)
}

// completedAt stamps the first transition into completed and clears the
// stamp when an order leaves that status.
func completedAt(current models.ServiceOrder, status string, now time.Time) *time.Time {
	if status != models.OrderCompleted {
		return nil
	}
	if current.Status == models.OrderCompleted && current.CompletedAt != nil {
		return current.CompletedAt
	}
	ts := now.UTC()
	return &ts
}

func (h *ServiceOrderHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store.DeleteServiceOrder(r.Context(), id); err != nil {
		storeError(w, h.log, err, "service order")
		return
	}
	h.rec.record(r.Context(), "delete", models.ModuleServiceOrders, id)
	respond.JSON(w, http.StatusOK, "service order deleted", nil)
}
