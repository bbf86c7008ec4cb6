package model

import "time"

// QuizSession records one shared game session (quiz, you-or-me, memory
// flip) for a couple. The validation report compares the most recent
// session id between stores as a cheap proxy for full equality.
type QuizSession struct {
	ID        string    `json:"id"`
	CoupleID  int64     `json:"couple_id"`
	Kind      string    `json:"kind"`
	StartedBy int64     `json:"started_by"`
	StartedAt time.Time `json:"started_at"`
}
