package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/mkendall/tandem/internal/model"
)

// envelope is the uniform response shape every API route answers with, for
// successes and failures alike. Clients branch on Success, never on shape.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseIDParam(r *http.Request) (int64, error) {
	idStr := r.PathValue("id")
	return strconv.ParseInt(idStr, 10, 64)
}

// dateKeyParam returns the validated ?date= query value, defaulting to today.
func dateKeyParam(r *http.Request) (string, bool) {
	dateKey := r.URL.Query().Get("date")
	if dateKey == "" {
		return model.DateKey(time.Now()), true
	}
	if !model.ValidDateKey(dateKey) {
		return "", false
	}
	return dateKey, true
}
