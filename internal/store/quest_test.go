package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mkendall/tandem/internal/database"
	"github.com/mkendall/tandem/internal/model"
)

func setupQuestTestDB(t *testing.T) (*QuestStore, *CoupleStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewQuestStore(db), NewCoupleStore(db)
}

func testQuest(coupleID int64, dateKey string, kind model.QuestKind) model.Quest {
	return model.Quest{
		ID:         uuid.NewString(),
		CoupleID:   coupleID,
		DateKey:    dateKey,
		Kind:       kind,
		Title:      "Test quest",
		AssignedTo: model.AssignedBoth,
		Reward:     10,
	}
}

func TestGetForDateEmpty(t *testing.T) {
	qs, cs := setupQuestTestDB(t)
	couple, _ := cs.Create(1, 2)

	quests, err := qs.GetForDate(couple.ID, "2025-06-01")
	if err != nil {
		t.Fatalf("get for date: %v", err)
	}
	if quests == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(quests) != 0 {
		t.Fatalf("expected 0 quests, got %d", len(quests))
	}
}

func TestSaveAndGetForDate(t *testing.T) {
	qs, cs := setupQuestTestDB(t)
	couple, _ := cs.Create(1, 2)

	q := testQuest(couple.ID, "2025-06-01", model.KindConversation)
	if err := qs.Save(&q); err != nil {
		t.Fatalf("save quest: %v", err)
	}

	quests, err := qs.GetForDate(couple.ID, "2025-06-01")
	if err != nil {
		t.Fatalf("get for date: %v", err)
	}
	if len(quests) != 1 {
		t.Fatalf("expected 1 quest, got %d", len(quests))
	}
	if quests[0].ID != q.ID {
		t.Errorf("id = %q, want %q", quests[0].ID, q.ID)
	}
	if quests[0].Kind != model.KindConversation {
		t.Errorf("kind = %q, want %q", quests[0].Kind, model.KindConversation)
	}
	if quests[0].Reward != 10 {
		t.Errorf("reward = %d, want 10", quests[0].Reward)
	}

	// Other dates stay empty
	other, _ := qs.GetForDate(couple.ID, "2025-06-02")
	if len(other) != 0 {
		t.Errorf("expected 0 quests for other date, got %d", len(other))
	}
}

func TestSaveIsUpsert(t *testing.T) {
	qs, cs := setupQuestTestDB(t)
	couple, _ := cs.Create(1, 2)

	q := testQuest(couple.ID, "2025-06-01", model.KindActivity)
	if err := qs.Save(&q); err != nil {
		t.Fatalf("save quest: %v", err)
	}

	q.Title = "Updated title"
	if err := qs.Save(&q); err != nil {
		t.Fatalf("resave quest: %v", err)
	}

	quests, _ := qs.GetForDate(couple.ID, "2025-06-01")
	if len(quests) != 1 {
		t.Fatalf("expected 1 quest after upsert, got %d", len(quests))
	}
	if quests[0].Title != "Updated title" {
		t.Errorf("title = %q, want %q", quests[0].Title, "Updated title")
	}
}

func TestReplaceForDateOverwrites(t *testing.T) {
	qs, cs := setupQuestTestDB(t)
	couple, _ := cs.Create(1, 2)

	old := testQuest(couple.ID, "2025-06-01", model.KindMemory)
	qs.Save(&old)

	fresh := []model.Quest{
		testQuest(couple.ID, "2025-06-01", model.KindQuiz),
		testQuest(couple.ID, "2025-06-01", model.KindSteps),
	}
	if err := qs.ReplaceForDate(couple.ID, "2025-06-01", fresh); err != nil {
		t.Fatalf("replace for date: %v", err)
	}

	quests, err := qs.GetForDate(couple.ID, "2025-06-01")
	if err != nil {
		t.Fatalf("get for date: %v", err)
	}
	if len(quests) != 2 {
		t.Fatalf("expected 2 quests after replace, got %d", len(quests))
	}
	for _, q := range quests {
		if q.ID == old.ID {
			t.Errorf("old quest %s survived the replace", old.ID)
		}
	}
}

func TestReplaceForDateLeavesOtherDatesAlone(t *testing.T) {
	qs, cs := setupQuestTestDB(t)
	couple, _ := cs.Create(1, 2)

	yesterday := testQuest(couple.ID, "2025-05-31", model.KindMemory)
	qs.Save(&yesterday)

	if err := qs.ReplaceForDate(couple.ID, "2025-06-01", []model.Quest{
		testQuest(couple.ID, "2025-06-01", model.KindQuiz),
	}); err != nil {
		t.Fatalf("replace for date: %v", err)
	}

	kept, _ := qs.GetForDate(couple.ID, "2025-05-31")
	if len(kept) != 1 {
		t.Errorf("expected yesterday's quest untouched, got %d quests", len(kept))
	}
}

func TestMarkCompleted(t *testing.T) {
	qs, cs := setupQuestTestDB(t)
	couple, _ := cs.Create(1, 2)

	q := testQuest(couple.ID, "2025-06-01", model.KindActivity)
	qs.Save(&q)

	got, err := qs.MarkCompleted(q.ID, 1)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if !got.Completed {
		t.Error("expected quest completed")
	}
	if got.CompletedBy == nil || *got.CompletedBy != 1 {
		t.Errorf("completed_by = %v, want 1", got.CompletedBy)
	}
	if got.CompletedAt == nil {
		t.Error("expected completed_at set")
	}
}

func TestMarkCompletedIsImmutable(t *testing.T) {
	qs, cs := setupQuestTestDB(t)
	couple, _ := cs.Create(1, 2)

	q := testQuest(couple.ID, "2025-06-01", model.KindActivity)
	qs.Save(&q)

	if _, err := qs.MarkCompleted(q.ID, 1); err != nil {
		t.Fatalf("first completion: %v", err)
	}
	got, err := qs.MarkCompleted(q.ID, 2)
	if err != nil {
		t.Fatalf("second completion: %v", err)
	}
	if got.CompletedBy == nil || *got.CompletedBy != 1 {
		t.Errorf("completed_by = %v, want original completer 1", got.CompletedBy)
	}
}

func TestMarkCompletedNotFound(t *testing.T) {
	qs, _ := setupQuestTestDB(t)

	got, err := qs.MarkCompleted(uuid.NewString(), 1)
	if err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if got != nil {
		t.Error("expected nil for nonexistent quest")
	}
}

func TestDeleteForDate(t *testing.T) {
	qs, cs := setupQuestTestDB(t)
	couple, _ := cs.Create(1, 2)

	a := testQuest(couple.ID, "2025-06-01", model.KindQuiz)
	b := testQuest(couple.ID, "2025-06-01", model.KindSteps)
	qs.Save(&a)
	qs.Save(&b)

	if err := qs.DeleteForDate(couple.ID, "2025-06-01"); err != nil {
		t.Fatalf("delete for date: %v", err)
	}
	quests, _ := qs.GetForDate(couple.ID, "2025-06-01")
	if len(quests) != 0 {
		t.Errorf("expected 0 quests after reset, got %d", len(quests))
	}
}

func TestQuestCreatedAtDefaulted(t *testing.T) {
	qs, cs := setupQuestTestDB(t)
	couple, _ := cs.Create(1, 2)

	q := testQuest(couple.ID, "2025-06-01", model.KindSurprise)
	before := time.Now().UTC().Add(-time.Minute)
	qs.Save(&q)

	got, err := qs.GetByID(q.ID)
	if err != nil {
		t.Fatalf("get quest: %v", err)
	}
	if got.CreatedAt.Before(before) {
		t.Errorf("created_at = %v, expected to be defaulted to now", got.CreatedAt)
	}
}
