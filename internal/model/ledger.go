package model

import "time"

// LedgerSource identifies the subsystem that reported a point-worthy event.
type LedgerSource string

const (
	SourceQuizCompletion  LedgerSource = "quiz_completion"
	SourceQuestCompletion LedgerSource = "quest_completion"
	SourceStepsGoal       LedgerSource = "steps_goal"
	SourceManualAward     LedgerSource = "manual_award"
)

// LedgerEntry is one append-only love-point delta for a couple. The running
// total is always the sum of entries; there is no stored counter to
// overwrite, so every balance change stays auditable.
type LedgerEntry struct {
	ID        int64        `json:"id"`
	CoupleID  int64        `json:"couple_id"`
	UserID    int64        `json:"user_id"`
	Amount    int          `json:"amount"`
	Source    LedgerSource `json:"source"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
