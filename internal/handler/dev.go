package handler

import (
	"log/slog"
	"net/http"

	"github.com/mkendall/tandem/internal/auth"
	"github.com/mkendall/tandem/internal/backup"
	"github.com/mkendall/tandem/internal/store"
)

// DevHandler groups the destructive helpers that only exist in dev mode.
// The server does not register these routes in production.
type DevHandler struct {
	quests  *store.QuestStore
	ledger  *store.LedgerStore
	backups *backup.Manager
	logger  *slog.Logger
}

func NewDevHandler(quests *store.QuestStore, ledger *store.LedgerStore,
	backups *backup.Manager, logger *slog.Logger) *DevHandler {
	return &DevHandler{quests: quests, ledger: ledger, backups: backups, logger: logger}
}

// ResetTestData handles POST /api/dev/reset-test-data. It wipes the caller's
// quest set for the given date and the whole ledger, so a tester can walk
// the generate-complete-award flow again from zero.
func (h *DevHandler) ResetTestData(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	dateKey, ok := dateKeyParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	if err := h.quests.DeleteForDate(coupleID, dateKey); err != nil {
		h.logger.Error("reset quests", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to reset quests")
		return
	}
	if err := h.ledger.DeleteAll(coupleID); err != nil {
		h.logger.Error("reset ledger", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to reset ledger")
		return
	}

	h.logger.Warn("test data reset", "couple_id", coupleID, "date", dateKey)
	respond(w, http.StatusOK, map[string]string{"status": "reset", "date": dateKey})
}

// SnapshotNow handles POST /api/dev/snapshot.
func (h *DevHandler) SnapshotNow(w http.ResponseWriter, r *http.Request) {
	key, err := h.backups.RunNow(r.Context())
	if err != nil {
		h.logger.Error("snapshot", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	respond(w, http.StatusOK, map[string]string{"key": key})
}

// SnapshotStatus handles GET /api/dev/snapshot.
func (h *DevHandler) SnapshotStatus(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, h.backups.Status())
}
