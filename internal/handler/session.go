package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/mkendall/tandem/internal/auth"
	"github.com/mkendall/tandem/internal/ledger"
	"github.com/mkendall/tandem/internal/model"
	"github.com/mkendall/tandem/internal/store"
)

var sessionKinds = map[string]bool{
	"quiz":        true,
	"you_or_me":   true,
	"memory_flip": true,
}

type SessionHandler struct {
	sessions *store.SessionStore
	points   *ledger.Service
	logger   *slog.Logger
}

func NewSessionHandler(sessions *store.SessionStore, points *ledger.Service, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, points: points, logger: logger}
}

type createSessionRequest struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`

	// AwardPoints is the quiz reward the client computed for this round.
	// Zero means the round pays nothing.
	AwardPoints int `json:"award_points"`
}

// Create handles POST /api/sessions. The client supplies the session id so
// both devices record the same one; a missing id gets generated here.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())
	userID := auth.UserID(r.Context())

	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !sessionKinds[req.Kind] {
		respondError(w, http.StatusBadRequest, "kind must be quiz, you_or_me, or memory_flip")
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	// A retried request with the same id is a no-op, not a second session.
	if existing, err := h.sessions.GetByID(req.ID); err != nil {
		h.logger.Error("get session", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to check session")
		return
	} else if existing != nil {
		respond(w, http.StatusOK, existing)
		return
	}

	sess, err := h.sessions.Create(req.ID, coupleID, req.Kind, userID)
	if err != nil {
		h.logger.Error("create session", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to record session")
		return
	}

	if req.AwardPoints != 0 {
		if _, err := h.points.Award(coupleID, userID, req.AwardPoints, model.SourceQuizCompletion, req.Kind); err != nil {
			h.logger.Error("award quiz points", "session_id", sess.ID, "error", err)
			respondError(w, http.StatusInternalServerError, "failed to award points")
			return
		}
	}
	respond(w, http.StatusCreated, sess)
}

// List handles GET /api/sessions, newest first.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	sessions, err := h.sessions.ListRecent(coupleID, 50)
	if err != nil {
		h.logger.Error("list sessions", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load sessions")
		return
	}
	respond(w, http.StatusOK, sessions)
}
