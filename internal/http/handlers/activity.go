package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/access"
	"github.com/hongminglow/servicedesk-be/internal/http/respond"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/models/dto"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// ActivityHandler serves the activity log.
type ActivityHandler struct {
	store storage.ActivityStore
	log   logrus.FieldLogger
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(store storage.ActivityStore, log logrus.FieldLogger) *ActivityHandler {
	return &ActivityHandler{store: store, log: log}
}

// Register attaches the log route.
func (h *ActivityHandler) Register(r *mux.Router, gate *access.Gate) {
	route(r, http.MethodGet, "/logs", gate.Require(models.ModuleLogs, models.CapabilityRead), h.handleList)
}

func (h *ActivityHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	entries, err := h.store.ListActivity(r.Context(), storage.ActivityFilter{UserID: queryID(r, "user_id"), Page: page})
	if err != nil {
		storeError(w, h.log, err, "activity")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.ListResponse[models.ActivityEntry]{Items: entries, Limit: page.Limit, Offset: page.Offset})
}
