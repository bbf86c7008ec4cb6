package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mkendall/tandem/internal/auth"
	"github.com/mkendall/tandem/internal/ledger"
	"github.com/mkendall/tandem/internal/model"
)

type LedgerHandler struct {
	service *ledger.Service
	logger  *slog.Logger
}

func NewLedgerHandler(service *ledger.Service, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{service: service, logger: logger}
}

type pointsResponse struct {
	Total   int                 `json:"total"`
	Entries []model.LedgerEntry `json:"entries"`
}

// Points handles GET /api/points. The total is always the sum of the
// returned history's source entries, never an independently stored counter.
func (h *LedgerHandler) Points(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	total, err := h.service.Total(coupleID)
	if err != nil {
		h.logger.Error("ledger total", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to compute total")
		return
	}
	entries, err := h.service.History(coupleID, limit)
	if err != nil {
		h.logger.Error("ledger history", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	respond(w, http.StatusOK, pointsResponse{Total: total, Entries: entries})
}

type awardRequest struct {
	Amount int    `json:"amount"`
	Note   string `json:"note"`
}

// Award handles POST /api/points/award. API awards are always recorded as
// manual; quest and quiz completions award through their own flows.
func (h *LedgerHandler) Award(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())
	userID := auth.UserID(r.Context())

	var req awardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Amount == 0 {
		respondError(w, http.StatusBadRequest, "amount must be non-zero")
		return
	}

	entry, err := h.service.Award(coupleID, userID, req.Amount, model.SourceManualAward, req.Note)
	if err != nil {
		h.logger.Error("award points", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to award points")
		return
	}
	respond(w, http.StatusCreated, entry)
}
