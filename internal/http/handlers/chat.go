package handlers

import (
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/hongminglow/servicedesk-be/internal/access"
	"github.com/hongminglow/servicedesk-be/internal/http/respond"
	"github.com/hongminglow/servicedesk-be/internal/models"
	"github.com/hongminglow/servicedesk-be/internal/models/dto"
	"github.com/hongminglow/servicedesk-be/internal/storage"
)

// MaxChatMessageLength bounds message bodies in characters.
const MaxChatMessageLength = 4000

// ChatHandler serves persisted chat messages.
type ChatHandler struct {
	store storage.ChatStore
	rec   *Recorder
	log   logrus.FieldLogger
}

// NewChatHandler constructs the handler.
func NewChatHandler(store storage.ChatStore, rec *Recorder, log logrus.FieldLogger) *ChatHandler {
	return &ChatHandler{store: store, rec: rec, log: log}
}

// Register attaches chat routes.
func (h *ChatHandler) Register(r *mux.Router, gate *access.Gate) {
	route(r, http.MethodGet, "/chat/messages", gate.Require(models.ModuleChat, models.CapabilityRead), h.handleList)
	route(r, http.MethodPost, "/chat/messages", gate.Require(models.ModuleChat, models.CapabilityWrite), h.handlePost)
	route(r, http.MethodDelete, "/chat/messages/{id:[0-9]+}", gate.Require(models.ModuleChat, models.CapabilityDelete), h.handleDelete)
}

func (h *ChatHandler) handleList(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)
	msgs, err := h.store.ListMessages(r.Context(), page)
	if err != nil {
		storeError(w, h.log, err, "message")
		return
	}
	respond.JSON(w, http.StatusOK, "ok", dto.ListResponse[models.ChatMessage]{Items: msgs, Limit: page.Limit, Offset: page.Offset})
}

func (h *ChatHandler) handlePost(w http.ResponseWriter, r *http.Request) {
	var req dto.ChatMessageRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		respond.Error(w, http.StatusBadRequest, "body required")
		return
	}
	if utf8.RuneCountInString(body) > MaxChatMessageLength {
		respond.Error(w, http.StatusBadRequest, "message too long")
		return
	}
	msg, err := h.store.CreateMessage(r.Context(), models.ChatMessage{SenderID: identity(r).UserID, Body: body})
	if err != nil {
		storeError(w, h.log, err, "message")
		return
	}
	h.rec.record(r.Context(), "create", models.ModuleChat, msg.ID)
	respond.JSON(w, http.StatusCreated, "message sent", msg)
}

func (h *ChatHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respond.Error(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store.DeleteMessage(r.Context(), id); err != nil {
		storeError(w, h.log, err, "message")
		return
	}
	h.rec.record(r.Context(), "delete", models.ModuleChat, id)
	respond.JSON(w, http.StatusOK, "message deleted", nil)
}
