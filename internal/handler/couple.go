package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mkendall/tandem/internal/auth"
	"github.com/mkendall/tandem/internal/store"
)

type CoupleHandler struct {
	couples *store.CoupleStore
	tokens  *auth.TokenManager
	logger  *slog.Logger
}

func NewCoupleHandler(couples *store.CoupleStore, tokens *auth.TokenManager, logger *slog.Logger) *CoupleHandler {
	return &CoupleHandler{couples: couples, tokens: tokens, logger: logger}
}

// Get handles GET /api/couple.
func (h *CoupleHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	couple, err := h.couples.GetByUser(userID)
	if err != nil {
		h.logger.Error("get couple", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load couple")
		return
	}
	if couple == nil {
		respondError(w, http.StatusNotFound, "not paired")
		return
	}
	respond(w, http.StatusOK, couple)
}

type pairRequest struct {
	PartnerUserID int64 `json:"partner_user_id"`
}

type pairResponse struct {
	Couple any    `json:"couple"`
	Token  string `json:"token"`
}

// Pair handles POST /api/pair. On success the caller gets a fresh token
// carrying the new couple id; the old unpaired token keeps working until it
// expires but stays gated off the couple routes.
func (h *CoupleHandler) Pair(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var req pairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.PartnerUserID <= 0 || req.PartnerUserID == userID {
		respondError(w, http.StatusBadRequest, "partner_user_id must name another user")
		return
	}

	if existing, err := h.couples.GetByUser(userID); err != nil {
		h.logger.Error("get couple", "user_id", userID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to check pairing")
		return
	} else if existing != nil {
		respondError(w, http.StatusConflict, "already paired")
		return
	}
	if partnerCouple, err := h.couples.GetByUser(req.PartnerUserID); err != nil {
		h.logger.Error("get partner couple", "user_id", req.PartnerUserID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to check pairing")
		return
	} else if partnerCouple != nil {
		respondError(w, http.StatusConflict, "partner is already paired")
		return
	}

	// The store re-checks atomically; the lookups above only exist for the
	// distinct conflict messages.
	couple, err := h.couples.Create(userID, req.PartnerUserID)
	if errors.Is(err, store.ErrAlreadyPaired) {
		respondError(w, http.StatusConflict, "already paired")
		return
	}
	if err != nil {
		h.logger.Error("create couple", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to pair")
		return
	}

	token, err := h.tokens.Issue(userID, couple.ID)
	if err != nil {
		h.logger.Error("issue token", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	h.logger.Info("couple paired", "couple_id", couple.ID, "user_a", couple.UserAID, "user_b", couple.UserBID)
	respond(w, http.StatusCreated, pairResponse{Couple: couple, Token: token})
}
