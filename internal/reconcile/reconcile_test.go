package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/mkendall/tandem/internal/database"
	"github.com/mkendall/tandem/internal/model"
	"github.com/mkendall/tandem/internal/store"
)

type fakeSource struct {
	quests []model.Quest
	err    error
	calls  int
}

func (f *fakeSource) FetchQuests(ctx context.Context, coupleID int64, dateKey string) ([]model.Quest, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.quests, nil
}

func setupReconcilerTest(t *testing.T, source *fakeSource) (*Reconciler, *store.QuestStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	couples := store.NewCoupleStore(db)
	couple, err := couples.Create(1, 2)
	if err != nil {
		t.Fatalf("create couple: %v", err)
	}

	quests := store.NewQuestStore(db)
	logger := slog.New(slog.DiscardHandler)
	return New(source, quests, logger), quests, couple.ID
}

func remoteQuest(coupleID int64, dateKey string, title string) model.Quest {
	return model.Quest{
		ID:         uuid.NewString(),
		CoupleID:   coupleID,
		DateKey:    dateKey,
		Kind:       model.KindConversation,
		Title:      title,
		AssignedTo: model.AssignedBoth,
		Reward:     10,
	}
}

func TestRemoteNonEmptyOverwritesCache(t *testing.T) {
	source := &fakeSource{}
	r, cache, coupleID := setupReconcilerTest(t, source)

	stale := remoteQuest(coupleID, "2025-06-01", "Stale local quest")
	if err := cache.Save(&stale); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	source.quests = []model.Quest{
		remoteQuest(coupleID, "2025-06-01", "Remote quest A"),
		remoteQuest(coupleID, "2025-06-01", "Remote quest B"),
	}

	outcome, err := r.SyncTodayQuests(context.Background(), coupleID, "2025-06-01")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !outcome.Synced || outcome.Source != SourceRemote {
		t.Errorf("outcome = %+v, want synced from remote", outcome)
	}

	cached, _ := cache.GetForDate(coupleID, "2025-06-01")
	if len(cached) != 2 {
		t.Fatalf("expected cache to equal remote set (2 quests), got %d", len(cached))
	}
	ids := map[string]bool{}
	for _, q := range cached {
		ids[q.ID] = true
	}
	for _, q := range source.quests {
		if !ids[q.ID] {
			t.Errorf("remote quest %s missing from cache", q.ID)
		}
	}
	if ids[stale.ID] {
		t.Error("stale local quest survived the overwrite")
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	source := &fakeSource{}
	r, cache, coupleID := setupReconcilerTest(t, source)

	source.quests = []model.Quest{remoteQuest(coupleID, "2025-06-01", "Only quest")}

	for i := 0; i < 2; i++ {
		if _, err := r.SyncTodayQuests(context.Background(), coupleID, "2025-06-01"); err != nil {
			t.Fatalf("sync %d: %v", i+1, err)
		}
	}

	cached, _ := cache.GetForDate(coupleID, "2025-06-01")
	if len(cached) != 1 {
		t.Errorf("expected 1 quest after double sync, got %d", len(cached))
	}
}

func TestRemoteFailureFallsBackToCache(t *testing.T) {
	source := &fakeSource{}
	r, cache, coupleID := setupReconcilerTest(t, source)

	prior := remoteQuest(coupleID, "2025-06-01", "Cached quest")
	if err := cache.Save(&prior); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	source.err = errors.New("network unreachable")

	outcome, err := r.SyncTodayQuests(context.Background(), coupleID, "2025-06-01")
	if err != nil {
		t.Fatalf("sync must not raise on remote failure: %v", err)
	}
	if outcome.Synced {
		t.Error("expected synced=false on remote failure")
	}
	if outcome.Err == nil {
		t.Error("expected soft failure carried in outcome")
	}
	if outcome.Source != SourceLocal {
		t.Errorf("source = %q, want %q", outcome.Source, SourceLocal)
	}
	if len(outcome.Quests) != 1 || outcome.Quests[0].ID != prior.ID {
		t.Errorf("expected prior cached quest, got %+v", outcome.Quests)
	}

	// Cache untouched
	cached, _ := cache.GetForDate(coupleID, "2025-06-01")
	if len(cached) != 1 || cached[0].ID != prior.ID {
		t.Errorf("cache changed on failed sync: %+v", cached)
	}
}

func TestRemoteEmptyLocalPresentKeepsLocal(t *testing.T) {
	source := &fakeSource{}
	r, cache, coupleID := setupReconcilerTest(t, source)

	local := remoteQuest(coupleID, "2025-06-01", "Generated before remote caught up")
	if err := cache.Save(&local); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	outcome, err := r.SyncTodayQuests(context.Background(), coupleID, "2025-06-01")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if !outcome.Synced || outcome.Source != SourceLocal {
		t.Errorf("outcome = %+v, want synced from local", outcome)
	}
	if outcome.NeedsGeneration() {
		t.Error("must not regenerate when local set exists")
	}
}

func TestBothEmptySignalsGeneration(t *testing.T) {
	source := &fakeSource{}
	r, cache, coupleID := setupReconcilerTest(t, source)

	outcome, err := r.SyncTodayQuests(context.Background(), coupleID, "2025-06-01")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if outcome.Synced {
		t.Error("expected synced=false when both stores are empty")
	}
	if !outcome.NeedsGeneration() {
		t.Errorf("outcome = %+v, want generation signal", outcome)
	}

	cached, _ := cache.GetForDate(coupleID, "2025-06-01")
	if len(cached) != 0 {
		t.Errorf("cache must stay empty until the generator runs, got %d", len(cached))
	}
}
