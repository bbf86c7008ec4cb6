package handler

import (
	"log/slog"
	"net/http"

	"github.com/mkendall/tandem/internal/auth"
	"github.com/mkendall/tandem/internal/quest"
	"github.com/mkendall/tandem/internal/store"
)

type QuestHandler struct {
	manager *quest.Manager
	couples *store.CoupleStore
	watcher *quest.Watcher
	logger  *slog.Logger
}

func NewQuestHandler(manager *quest.Manager, couples *store.CoupleStore, watcher *quest.Watcher, logger *slog.Logger) *QuestHandler {
	return &QuestHandler{manager: manager, couples: couples, watcher: watcher, logger: logger}
}

type dailyQuestsResponse struct {
	Quests    any    `json:"quests"`
	Source    string `json:"source"`
	Synced    bool   `json:"synced"`
	Generated bool   `json:"generated"`
	SyncError string `json:"sync_error,omitempty"`
}

// Today handles GET /api/quests/today. It reconciles against the remote
// source and generates a fresh set when the day is empty on both sides. A
// remote outage degrades to cached data with synced=false instead of
// failing the request.
func (h *QuestHandler) Today(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	dateKey, ok := dateKeyParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	couple, err := h.couples.GetByID(coupleID)
	if err != nil {
		h.logger.Error("get couple", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load couple")
		return
	}
	if couple == nil {
		respondError(w, http.StatusForbidden, "pairing required")
		return
	}

	// First request after startup also opens the couple's realtime channel.
	if h.watcher != nil {
		h.watcher.Watch(coupleID)
	}

	res, err := h.manager.EnsureDailyQuests(r.Context(), *couple, dateKey)
	if err != nil {
		h.logger.Error("ensure daily quests", "couple_id", coupleID, "date", dateKey, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load daily quests")
		return
	}

	resp := dailyQuestsResponse{
		Quests:    res.Quests,
		Source:    string(res.Source),
		Synced:    res.Synced,
		Generated: res.Generated,
	}
	if res.SyncErr != nil {
		resp.SyncError = res.SyncErr.Error()
	}
	respond(w, http.StatusOK, resp)
}

// Complete handles POST /api/quests/{id}/complete.
func (h *QuestHandler) Complete(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())
	userID := auth.UserID(r.Context())

	questID := r.PathValue("id")
	if questID == "" {
		respondError(w, http.StatusBadRequest, "quest id required")
		return
	}

	q, err := h.manager.CompleteQuest(coupleID, questID, userID)
	if err != nil {
		h.logger.Error("complete quest", "quest_id", questID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to complete quest")
		return
	}
	if q == nil {
		respondError(w, http.StatusNotFound, "quest not found")
		return
	}
	respond(w, http.StatusOK, q)
}
