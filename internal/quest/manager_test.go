package quest

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/mkendall/tandem/internal/database"
	"github.com/mkendall/tandem/internal/model"
	"github.com/mkendall/tandem/internal/reconcile"
	"github.com/mkendall/tandem/internal/store"
)

type fakeRemote struct {
	quests  []model.Quest
	fetches int
	pushes  int
	pushErr error
	pushed  []model.Quest
}

func (f *fakeRemote) FetchQuests(ctx context.Context, coupleID int64, dateKey string) ([]model.Quest, error) {
	f.fetches++
	if f.quests == nil {
		return []model.Quest{}, nil
	}
	return f.quests, nil
}

func (f *fakeRemote) PushQuests(ctx context.Context, coupleID int64, dateKey string, quests []model.Quest) error {
	f.pushes++
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushed = quests
	return nil
}

type fakeRewarder struct {
	awards []model.LedgerEntry
}

func (f *fakeRewarder) Award(coupleID, userID int64, amount int, source model.LedgerSource, note string) (*model.LedgerEntry, error) {
	e := model.LedgerEntry{CoupleID: coupleID, UserID: userID, Amount: amount, Source: source, Note: note}
	f.awards = append(f.awards, e)
	return &e, nil
}

type fakeEvents struct {
	generated int
	refreshed int
	completed int
}

func (f *fakeEvents) QuestsGenerated(coupleID int64, dateKey string, quests []model.Quest) {
	f.generated++
}

func (f *fakeEvents) QuestsRefreshed(coupleID int64, dateKey string, quests []model.Quest) {
	f.refreshed++
}

func (f *fakeEvents) QuestCompleted(quest model.Quest, completedBy int64) {
	f.completed++
}

func setupManagerTest(t *testing.T, remote *fakeRemote) (*Manager, *store.QuestStore, *fakeRewarder, *fakeEvents, model.Couple) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	couple, err := store.NewCoupleStore(db).Create(1, 2)
	if err != nil {
		t.Fatalf("create couple: %v", err)
	}

	quests := store.NewQuestStore(db)
	logger := slog.New(slog.DiscardHandler)
	rewards := &fakeRewarder{}
	events := &fakeEvents{}
	m := NewManager(
		reconcile.New(remote, quests, logger),
		NewGenerator(nil, 3),
		quests, remote, rewards, events, logger,
	)
	return m, quests, rewards, events, *couple
}

func TestEnsureDailyQuestsGeneratesWhenBothEmpty(t *testing.T) {
	remote := &fakeRemote{}
	m, cache, _, events, couple := setupManagerTest(t, remote)

	res, err := m.EnsureDailyQuests(context.Background(), couple, "2025-06-01")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if !res.Generated || !res.Synced {
		t.Errorf("result = %+v, want generated and synced", res)
	}
	if len(res.Quests) != 3 {
		t.Fatalf("got %d quests, want 3", len(res.Quests))
	}
	if remote.pushes != 1 {
		t.Errorf("pushes = %d, want 1", remote.pushes)
	}
	if events.generated != 1 {
		t.Errorf("generated events = %d, want 1", events.generated)
	}

	cached, _ := cache.GetForDate(couple.ID, "2025-06-01")
	if len(cached) != 3 {
		t.Errorf("cache holds %d quests, want 3", len(cached))
	}
}

func TestEnsureDailyQuestsDoesNotRegenerate(t *testing.T) {
	remote := &fakeRemote{}
	m, _, _, _, couple := setupManagerTest(t, remote)

	first, err := m.EnsureDailyQuests(context.Background(), couple, "2025-06-01")
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}

	// Remote now holds the pushed set, as it would after a real round trip.
	remote.quests = remote.pushed

	second, err := m.EnsureDailyQuests(context.Background(), couple, "2025-06-01")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second.Generated {
		t.Error("second call regenerated an existing day")
	}
	if remote.pushes != 1 {
		t.Errorf("pushes = %d, want 1", remote.pushes)
	}
	if len(second.Quests) != len(first.Quests) {
		t.Errorf("quest count changed between calls: %d vs %d", len(first.Quests), len(second.Quests))
	}
}

func TestEnsureDailyQuestsSurvivesPushFailure(t *testing.T) {
	remote := &fakeRemote{pushErr: errors.New("network unreachable")}
	m, cache, _, _, couple := setupManagerTest(t, remote)

	res, err := m.EnsureDailyQuests(context.Background(), couple, "2025-06-01")
	if err != nil {
		t.Fatalf("ensure must not raise on push failure: %v", err)
	}
	if !res.Generated {
		t.Error("expected generation despite push failure")
	}
	if res.Synced {
		t.Error("expected synced=false when the push failed")
	}
	if res.SyncErr == nil {
		t.Error("expected soft failure carried in result")
	}

	// The local set stands even though the partner has not seen it.
	cached, _ := cache.GetForDate(couple.ID, "2025-06-01")
	if len(cached) != 3 {
		t.Errorf("cache holds %d quests, want 3", len(cached))
	}
}

func TestCompleteQuestAwardsOnce(t *testing.T) {
	remote := &fakeRemote{}
	m, _, rewards, events, couple := setupManagerTest(t, remote)

	res, err := m.EnsureDailyQuests(context.Background(), couple, "2025-06-01")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	target := res.Quests[0]

	q, err := m.CompleteQuest(couple.ID, target.ID, couple.UserAID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if q == nil || !q.Completed {
		t.Fatalf("quest = %+v, want completed", q)
	}
	if q.CompletedBy == nil || *q.CompletedBy != couple.UserAID {
		t.Errorf("completed_by = %v, want %d", q.CompletedBy, couple.UserAID)
	}

	// The partner taps the same quest moments later; the first completion wins
	// and no second reward lands on the ledger.
	again, err := m.CompleteQuest(couple.ID, target.ID, couple.UserBID)
	if err != nil {
		t.Fatalf("repeat complete: %v", err)
	}
	if *again.CompletedBy != couple.UserAID {
		t.Errorf("completion reassigned to %d", *again.CompletedBy)
	}

	if len(rewards.awards) != 1 {
		t.Fatalf("awards = %d, want 1", len(rewards.awards))
	}
	if rewards.awards[0].Amount != target.Reward || rewards.awards[0].Source != model.SourceQuestCompletion {
		t.Errorf("award = %+v, want reward %d from quest completion", rewards.awards[0], target.Reward)
	}
	if events.completed != 1 {
		t.Errorf("completed events = %d, want 1", events.completed)
	}
}

func TestCompleteQuestScopedToCouple(t *testing.T) {
	remote := &fakeRemote{}
	m, _, rewards, _, couple := setupManagerTest(t, remote)

	res, err := m.EnsureDailyQuests(context.Background(), couple, "2025-06-01")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	// A caller from a different couple sees the quest as unknown.
	q, err := m.CompleteQuest(couple.ID+1, res.Quests[0].ID, 99)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if q != nil {
		t.Errorf("expected nil quest for foreign couple, got %+v", q)
	}
	if len(rewards.awards) != 0 {
		t.Errorf("awards = %d, want 0", len(rewards.awards))
	}
}

func TestCompleteQuestUnknownID(t *testing.T) {
	remote := &fakeRemote{}
	m, _, rewards, _, _ := setupManagerTest(t, remote)

	q, err := m.CompleteQuest(1, "no-such-quest", 1)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if q != nil {
		t.Errorf("expected nil quest, got %+v", q)
	}
	if len(rewards.awards) != 0 {
		t.Errorf("awards = %d, want 0", len(rewards.awards))
	}
}
