package quest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkendall/tandem/internal/model"
	"github.com/mkendall/tandem/internal/reconcile"
	"github.com/mkendall/tandem/internal/store"
)

// Pusher writes a generated quest set to the remote source so the partner's
// device converges on it.
type Pusher interface {
	PushQuests(ctx context.Context, coupleID int64, dateKey string, quests []model.Quest) error
}

// Rewarder appends a ledger entry for a point-worthy event.
type Rewarder interface {
	Award(coupleID, userID int64, amount int, source model.LedgerSource, note string) (*model.LedgerEntry, error)
}

// Events receives notifications after quest state changes. Implementations
// fan out to websocket clients and web push; all methods are fire-and-forget.
type Events interface {
	QuestsGenerated(coupleID int64, dateKey string, quests []model.Quest)
	QuestsRefreshed(coupleID int64, dateKey string, quests []model.Quest)
	QuestCompleted(quest model.Quest, completedBy int64)
}

// Manager owns the daily quest lifecycle: reconcile on demand, generate when
// the day is empty everywhere, record completions and their rewards.
type Manager struct {
	reconciler *reconcile.Reconciler
	generator  *Generator
	quests     *store.QuestStore
	pusher     Pusher
	rewards    Rewarder
	events     Events
	logger     *slog.Logger
}

func NewManager(reconciler *reconcile.Reconciler, generator *Generator, quests *store.QuestStore,
	pusher Pusher, rewards Rewarder, events Events, logger *slog.Logger) *Manager {
	return &Manager{
		reconciler: reconciler,
		generator:  generator,
		quests:     quests,
		pusher:     pusher,
		rewards:    rewards,
		events:     events,
		logger:     logger,
	}
}

// DailyResult is what a device gets when it asks for today's quests.
type DailyResult struct {
	Quests    []model.Quest    `json:"quests"`
	Source    reconcile.Source `json:"source"`
	Synced    bool             `json:"synced"`
	Generated bool             `json:"generated"`

	// SyncErr carries a soft remote failure. The quest set is still usable;
	// the device is just running on cache until the next reconcile.
	SyncErr error `json:"-"`
}

// EnsureDailyQuests reconciles the quest set for a couple and date, then
// generates a fresh set when neither store has one. Generation runs only
// after the reconciler confirmed the remote is reachable and empty, which
// keeps a racing pair from ending up with two competing sets.
func (m *Manager) EnsureDailyQuests(ctx context.Context, couple model.Couple, dateKey string) (DailyResult, error) {
	outcome, err := m.reconciler.SyncTodayQuests(ctx, couple.ID, dateKey)
	if err != nil {
		return DailyResult{}, err
	}

	res := DailyResult{
		Quests:  outcome.Quests,
		Source:  outcome.Source,
		Synced:  outcome.Synced,
		SyncErr: outcome.Err,
	}
	if !outcome.NeedsGeneration() {
		return res, nil
	}

	quests := m.generator.Generate(couple.ID, couple.UserAID, couple.UserBID, dateKey)
	if err := m.quests.ReplaceForDate(couple.ID, dateKey, quests); err != nil {
		return DailyResult{}, fmt.Errorf("persist generated quests: %w", err)
	}
	m.logger.Info("daily quests generated",
		"couple_id", couple.ID, "date", dateKey, "count", len(quests))

	res.Quests = quests
	res.Source = reconcile.SourceLocal
	res.Generated = true
	res.Synced = true

	if err := m.pusher.PushQuests(ctx, couple.ID, dateKey, quests); err != nil {
		// The local set stands; the partner converges on the next reconcile.
		m.logger.Warn("push of generated quests failed",
			"couple_id", couple.ID, "date", dateKey, "error", err)
		res.Synced = false
		res.SyncErr = err
	}

	if m.events != nil {
		m.events.QuestsGenerated(couple.ID, dateKey, quests)
	}
	return res, nil
}

// CompleteQuest marks a quest done by userID and awards its reward on the
// ledger. Completion is idempotent: a quest already completed is returned
// unchanged and no second reward is appended. A nil quest means the id is
// unknown within the given couple.
func (m *Manager) CompleteQuest(coupleID int64, questID string, userID int64) (*model.Quest, error) {
	q, err := m.quests.GetByID(questID)
	if err != nil {
		return nil, err
	}
	if q == nil || q.CoupleID != coupleID {
		return nil, nil
	}
	if q.Completed {
		return q, nil
	}

	q, err = m.quests.MarkCompleted(questID, userID)
	if err != nil {
		return nil, err
	}
	if q == nil {
		return nil, nil
	}

	if _, err := m.rewards.Award(q.CoupleID, userID, q.Reward, model.SourceQuestCompletion, q.Title); err != nil {
		return nil, fmt.Errorf("award quest reward: %w", err)
	}
	m.logger.Info("quest completed",
		"quest_id", q.ID, "couple_id", q.CoupleID, "user_id", userID, "reward", q.Reward)

	if m.events != nil {
		m.events.QuestCompleted(*q, userID)
	}
	return q, nil
}
