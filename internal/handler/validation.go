package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/mkendall/tandem/internal/auth"
	"github.com/mkendall/tandem/internal/remote"
	"github.com/mkendall/tandem/internal/validation"
)

type ValidationHandler struct {
	reporter *validation.Reporter
	client   *remote.Client
	logger   *slog.Logger
}

func NewValidationHandler(reporter *validation.Reporter, client *remote.Client, logger *slog.Logger) *ValidationHandler {
	return &ValidationHandler{reporter: reporter, client: client, logger: logger}
}

// Report handles GET /api/validation/report. The report is read-only: it
// compares local and remote state per category without correcting either
// side.
func (h *ValidationHandler) Report(w http.ResponseWriter, r *http.Request) {
	coupleID := auth.CoupleID(r.Context())

	dateKey, ok := dateKeyParam(r)
	if !ok {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	report, err := h.reporter.Run(r.Context(), coupleID, dateKey)
	if err != nil {
		// Local faults only; remote failures are carried per category.
		h.logger.Error("validation report", "couple_id", coupleID, "error", err)
		respondError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	respond(w, http.StatusOK, report)
}

type simulateRequest struct {
	Enabled bool `json:"enabled"`
}

// SimulateFailure handles PUT /api/validation/simulate-network-error. While
// enabled, every remote call fails deterministically without touching the
// wire, which exercises the offline fallback paths end to end.
func (h *ValidationHandler) SimulateFailure(w http.ResponseWriter, r *http.Request) {
	var req simulateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	h.client.SetSimulateFailure(req.Enabled)
	respond(w, http.StatusOK, map[string]bool{"enabled": h.client.SimulatingFailure()})
}

// SimulateStatus handles GET /api/validation/simulate-network-error.
func (h *ValidationHandler) SimulateStatus(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]bool{"enabled": h.client.SimulatingFailure()})
}
