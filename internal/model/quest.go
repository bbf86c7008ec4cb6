package model

import "time"

// QuestKind identifies which catalog entry a quest was generated from.
type QuestKind string

const (
	KindConversation QuestKind = "conversation"
	KindActivity     QuestKind = "activity"
	KindMemory       QuestKind = "memory"
	KindQuiz         QuestKind = "quiz"
	KindSteps        QuestKind = "steps"
	KindSurprise     QuestKind = "surprise"
)

// AssignedBoth marks a quest assigned to both partners rather than one user.
const AssignedBoth = "both"

// Quest is a daily task record for a couple. IDs are UUID strings so that
// sets generated on different devices merge by identity rather than by
// local autoincrement position. Once completed, a quest is immutable
// except for dev-mode deletion.
type Quest struct {
	ID          string     `json:"id"`
	CoupleID    int64      `json:"couple_id"`
	DateKey     string     `json:"date_key"`
	Kind        QuestKind  `json:"kind"`
	Title       string     `json:"title"`
	AssignedTo  string     `json:"assigned_to"` // decimal user id, or AssignedBoth
	Reward      int        `json:"reward"`
	Completed   bool       `json:"completed"`
	CompletedBy *int64     `json:"completed_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
