package quest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/mkendall/tandem/internal/database"
	"github.com/mkendall/tandem/internal/model"
	"github.com/mkendall/tandem/internal/remote"
	"github.com/mkendall/tandem/internal/store"
)

func TestWatcherAppliesPushedUpdates(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	couple, err := store.NewCoupleStore(db).Create(1, 2)
	if err != nil {
		t.Fatalf("create couple: %v", err)
	}
	cache := store.NewQuestStore(db)

	pushed := remote.QuestEvent{
		CoupleID: couple.ID,
		DateKey:  "2025-06-01",
		Quests: []model.Quest{{
			ID: "q-remote", CoupleID: couple.ID, DateKey: "2025-06-01",
			Kind: model.KindQuiz, Title: "Quiz night", AssignedTo: model.AssignedBoth, Reward: 15,
		}},
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(ws.StatusNormalClosure, "")

		data, _ := json.Marshal(pushed)
		if err := conn.Write(r.Context(), ws.MessageText, data); err != nil {
			return
		}
		conn.Read(r.Context())
	}))
	defer server.Close()

	logger := slog.New(slog.DiscardHandler)
	client := remote.NewClient(remote.Config{BaseURL: server.URL}, logger)
	events := &fakeEvents{}

	w := NewWatcher(client, cache, events, logger)
	w.Start(context.Background())
	defer w.Stop()
	w.Watch(couple.ID)

	deadline := time.Now().Add(5 * time.Second)
	for {
		cached, err := cache.GetForDate(couple.ID, "2025-06-01")
		if err != nil {
			t.Fatalf("read cache: %v", err)
		}
		if len(cached) == 1 && cached[0].ID == "q-remote" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("pushed update never reached cache, have %+v", cached)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWatcherWatchIsIdempotent(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.DiscardHandler)
	// Unreachable remote: the subscription just backs off until Stop.
	client := remote.NewClient(remote.Config{BaseURL: "http://127.0.0.1:1"}, logger)

	w := NewWatcher(client, store.NewQuestStore(db), nil, logger)
	w.Start(context.Background())
	w.Watch(9)
	w.Watch(9)

	w.mu.Lock()
	n := len(w.subs)
	w.mu.Unlock()
	if n != 1 {
		t.Errorf("subscriptions = %d, want 1", n)
	}

	done := make(chan struct{})
	go func() {
		w.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestWatcherBeforeStartIsNoop(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.DiscardHandler)
	client := remote.NewClient(remote.Config{BaseURL: "http://127.0.0.1:1"}, logger)

	w := NewWatcher(client, store.NewQuestStore(db), nil, logger)
	w.Watch(1)

	w.mu.Lock()
	n := len(w.subs)
	w.mu.Unlock()
	if n != 0 {
		t.Errorf("subscriptions = %d, want 0 before Start", n)
	}
}
