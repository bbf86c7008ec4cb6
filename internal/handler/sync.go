package handler

import (
	"log/slog"
	"net/http"

	"github.com/mkendall/tandem/internal/auth"
	"github.com/mkendall/tandem/internal/store"
)

// SyncHandler serves the couple's local state in the same envelope and
// payload shapes the remote sync API uses, so a device can read either side
// with one codec and the validation report can diff them.
type SyncHandler struct {
	quests   *store.QuestStore
	ledger   *store.LedgerStore
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewSyncHandler(quests *store.QuestStore, ledger *store.LedgerStore,
	sessions *store.SessionStore, logger *slog.Logger) *SyncHandler {
	return &SyncHandler{quests: quests, ledger: ledger, sessions: sessions, logger: logger}
}

// DailyQuests handles GET /api/sync/daily-quests. This is a raw cache read;
// it never triggers reconciliation or generation.
func (h *SyncHandler) DailyQuests(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	dateKey, ok := dateKeyParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	quests, err := h.quests.GetForDate(coupleID, dateKey)
	if err != nil {
		h.logger.Error("list quests", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load quests")
		return
	}
	respond(w, http.StatusOK, map[string]any{"quests": quests})
}

// LovePoints handles GET /api/sync/love-points.
func (h *SyncHandler) LovePoints(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	total, err := h.ledger.Total(coupleID)
	if err != nil {
		h.logger.Error("ledger total", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute total")
		return
	}
	transactions, err := h.ledger.ListByCouple(coupleID, 0)
	if err != nil {
		h.logger.Error("ledger list", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load transactions")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"total":        total,
		"transactions": transactions,
	})
}

// QuizSessions handles GET /api/sync/quiz-sessions, newest first.
func (h *SyncHandler) QuizSessions(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	sessions, err := h.sessions.ListRecent(coupleID, 50)
	if err != nil {
		h.logger.Error("list sessions", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	respond(w, http.StatusOK, map[string]any{"sessions": sessions})
}
