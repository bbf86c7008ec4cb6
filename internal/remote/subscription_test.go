package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ws "github.com/coder/websocket"

	"github.com/mkendall/tandem/internal/model"
)

func TestSubscribeDeliversEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/sync/realtime" {
			t.Errorf("path = %q", r.URL.Path)
		}
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			t.Errorf("accept: %v", err)
			return
		}
		defer conn.Close(ws.StatusNormalClosure, "")

		ev := QuestEvent{
			CoupleID: 7,
			DateKey:  "2025-06-01",
			Quests:   []model.Quest{{ID: "q1", CoupleID: 7, DateKey: "2025-06-01", Kind: model.KindQuiz, Title: "Quiz night"}},
		}
		data, _ := json.Marshal(ev)
		if err := conn.Write(r.Context(), ws.MessageText, data); err != nil {
			return
		}
		// Hold the connection open until the client cancels.
		conn.Read(r.Context())
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	sub := c.SubscribeQuests(context.Background(), 7)
	defer sub.Cancel()

	select {
	case ev := <-sub.Events():
		if ev.CoupleID != 7 || ev.DateKey != "2025-06-01" {
			t.Errorf("event = %+v", ev)
		}
		if len(ev.Quests) != 1 || ev.Quests[0].ID != "q1" {
			t.Errorf("quests = %+v", ev.Quests)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestSubscribeCancelClosesEvents(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(ws.StatusNormalClosure, "")
		conn.Read(r.Context())
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	sub := c.SubscribeQuests(context.Background(), 7)

	sub.Cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("expected events channel closed after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("events channel not closed after cancel")
	}
}

func TestSubscribeSurvivesInitialDialFailure(t *testing.T) {
	// No server at all: the handle must still come back and cancel cleanly
	// while the dial loop is backing off.
	c := newTestClient("http://127.0.0.1:1")
	sub := c.SubscribeQuests(context.Background(), 7)

	done := make(chan struct{})
	go func() {
		sub.Cancel()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("cancel did not return during dial backoff")
	}
}
