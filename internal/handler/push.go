package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mkendall/tandem/internal/auth"
	"github.com/mkendall/tandem/internal/push"
	"github.com/mkendall/tandem/internal/store"
)

type PushHandler struct {
	subs    *store.PushStore
	service *push.Service
	logger  *slog.Logger
}

func NewPushHandler(subs *store.PushStore, service *push.Service, logger *slog.Logger) *PushHandler {
	return &PushHandler{subs: subs, service: service, logger: logger}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint"`
	P256dh   string `json:"p256dh"`
	Auth     string `json:"auth"`
}

// Subscribe handles POST /api/push/subscribe.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())
	coupleID := auth.CoupleID(r.Context())

	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Endpoint == "" || req.P256dh == "" || req.Auth == "" {
		respondError(w, http.StatusBadRequest, "endpoint, p256dh, and auth are required")
		return
	}

	sub, err := h.subs.Create(coupleID, userID, req.Endpoint, req.P256dh, req.Auth)
	if err != nil {
		h.logger.Error("create push subscription", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save subscription")
		return
	}
	respond(w, http.StatusCreated, sub)
}

// Unsubscribe handles DELETE /api/push/subscriptions/{id}. Only the owning
// user can remove a subscription.
func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	id, err := parseIDParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	subs, err := h.subs.ListByUser(userID)
	if err != nil {
		h.logger.Error("list push subscriptions", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load subscriptions")
		return
	}
	for _, sub := range subs {
		if sub.ID != id {
			continue
		}
		if err := h.subs.Delete(id); err != nil {
			h.logger.Error("delete push subscription", "error", err)
			respondError(w, http.StatusInternalServerError, "failed to delete subscription")
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondError(w, http.StatusNotFound, "subscription not found")
}

// VAPIDKey handles GET /api/push/vapid-key.
func (h *PushHandler) VAPIDKey(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{"public_key": h.service.VAPIDPublicKey()})
}
