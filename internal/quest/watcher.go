package quest

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mkendall/tandem/internal/model"
	"github.com/mkendall/tandem/internal/remote"
	"github.com/mkendall/tandem/internal/store"
)

// Subscriber opens the remote realtime channel for one couple.
type Subscriber interface {
	SubscribeQuests(ctx context.Context, coupleID int64) *remote.Subscription
}

// Watcher keeps one realtime subscription per couple and applies pushed
// quest-set updates to the local cache, so the partner's writes land without
// waiting for the next reconcile. Couples are watched lazily, on their first
// quest request after startup.
type Watcher struct {
	source Subscriber
	cache  *store.QuestStore
	events Events
	logger *slog.Logger

	mu   sync.Mutex
	ctx  context.Context
	subs map[int64]*remote.Subscription
	wg   sync.WaitGroup
}

func NewWatcher(source Subscriber, cache *store.QuestStore, events Events, logger *slog.Logger) *Watcher {
	return &Watcher{
		source: source,
		cache:  cache,
		events: events,
		logger: logger,
		subs:   make(map[int64]*remote.Subscription),
	}
}

// Start sets the lifetime context for all subscriptions. Watch calls before
// Start are rejected.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	w.ctx = ctx
	w.mu.Unlock()
}

// Watch opens the realtime channel for a couple. Watching an
// already-watched couple is a no-op.
func (w *Watcher) Watch(coupleID int64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.ctx == nil || w.ctx.Err() != nil {
		return
	}
	if _, ok := w.subs[coupleID]; ok {
		return
	}

	sub := w.source.SubscribeQuests(w.ctx, coupleID)
	w.subs[coupleID] = sub
	w.wg.Add(1)
	go w.consume(coupleID, sub)

	w.logger.Debug("watching realtime channel", "couple_id", coupleID)
}

// Stop cancels every subscription and waits for the consumers to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	subs := w.subs
	w.subs = make(map[int64]*remote.Subscription)
	w.mu.Unlock()

	for _, sub := range subs {
		sub.Cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) consume(coupleID int64, sub *remote.Subscription) {
	defer w.wg.Done()

	for ev := range sub.Events() {
		// The channel is scoped to one couple; a mismatched event means the
		// remote is confused and gets dropped rather than applied.
		if ev.CoupleID != coupleID || !model.ValidDateKey(ev.DateKey) {
			w.logger.Warn("drop misrouted realtime event",
				"couple_id", coupleID, "event_couple_id", ev.CoupleID, "date", ev.DateKey)
			continue
		}

		if err := w.cache.ReplaceForDate(ev.CoupleID, ev.DateKey, ev.Quests); err != nil {
			w.logger.Error("apply realtime quest update",
				"couple_id", ev.CoupleID, "date", ev.DateKey, "error", err)
			continue
		}
		w.logger.Debug("quest cache refreshed from realtime push",
			"couple_id", ev.CoupleID, "date", ev.DateKey, "count", len(ev.Quests))

		if w.events != nil {
			w.events.QuestsRefreshed(ev.CoupleID, ev.DateKey, ev.Quests)
		}
	}
}
