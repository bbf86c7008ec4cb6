package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mkendall/tandem/internal/model"
)

// Status is the comparison result for one sync category.
type Status string

const (
	StatusSynced   Status = "synced"
	StatusDiverged Status = "diverged"
	StatusError    Status = "error"
)

// Source names which store supplied the quest set an Outcome carries.
type Source string

const (
	SourceRemote Source = "remote"
	SourceLocal  Source = "local"
	SourceNone   Source = "none"
)

// QuestSource is the authoritative remote store, reachable over
// request/response.
type QuestSource interface {
	FetchQuests(ctx context.Context, coupleID int64, dateKey string) ([]model.Quest, error)
}

// QuestCache is the local quest store.
type QuestCache interface {
	GetForDate(coupleID int64, dateKey string) ([]model.Quest, error)
	ReplaceForDate(coupleID int64, dateKey string, quests []model.Quest) error
}

// Outcome is the result of one sync attempt. A soft remote failure lands in
// Err with Synced=false; callers must branch on it explicitly instead of
// treating the attempt as fatal.
type Outcome struct {
	Synced bool
	Source Source
	Quests []model.Quest
	Err    error
}

// NeedsGeneration reports the both-empty case: remote answered, nothing
// exists anywhere, and the caller must invoke the quest generator.
func (o Outcome) NeedsGeneration() bool {
	return !o.Synced && o.Err == nil && o.Source == SourceNone
}

// Reconciler decides, per couple and date, whether the local quest cache is
// authoritative-enough or must be refreshed. Each call is a one-shot
// comparison; callers re-invoke on their own schedule (startup, resume).
type Reconciler struct {
	source QuestSource
	cache  QuestCache
	logger *slog.Logger
}

func New(source QuestSource, cache QuestCache, logger *slog.Logger) *Reconciler {
	return &Reconciler{source: source, cache: cache, logger: logger}
}

// SyncTodayQuests reconciles the quest set for one couple and date key.
//
// The check order avoids duplicate generation when both paired devices race
// on the same day, while tolerating transient remote unavailability:
//
//  1. remote fetch fails        -> fall back to cache, Synced=false, soft
//  2. remote has quests         -> remote is authoritative, overwrite cache
//  3. remote empty, cache not   -> cache was generated first, keep it
//  4. both empty                -> signal the caller to generate
//
// The returned error is reserved for local faults (cache I/O); remote
// failure never raises.
func (r *Reconciler) SyncTodayQuests(ctx context.Context, coupleID int64, dateKey string) (Outcome, error) {
	remoteQuests, err := r.source.FetchQuests(ctx, coupleID, dateKey)
	if err != nil {
		r.logger.Warn("remote quest fetch failed, using cache",
			"couple_id", coupleID, "date", dateKey, "error", err)

		cached, cerr := r.cache.GetForDate(coupleID, dateKey)
		if cerr != nil {
			return Outcome{}, fmt.Errorf("read quest cache: %w", cerr)
		}
		return Outcome{Synced: false, Source: SourceLocal, Quests: cached, Err: err}, nil
	}

	if len(remoteQuests) > 0 {
		if err := r.cache.ReplaceForDate(coupleID, dateKey, remoteQuests); err != nil {
			return Outcome{}, fmt.Errorf("overwrite quest cache: %w", err)
		}
		r.logger.Debug("quest cache refreshed from remote",
			"couple_id", coupleID, "date", dateKey, "count", len(remoteQuests))
		return Outcome{Synced: true, Source: SourceRemote, Quests: remoteQuests}, nil
	}

	cached, err := r.cache.GetForDate(coupleID, dateKey)
	if err != nil {
		return Outcome{}, fmt.Errorf("read quest cache: %w", err)
	}
	if len(cached) > 0 {
		// First-run-today edge case: this device generated before the
		// remote caught up. The local set stands.
		return Outcome{Synced: true, Source: SourceLocal, Quests: cached}, nil
	}

	return Outcome{Synced: false, Source: SourceNone, Quests: []model.Quest{}}, nil
}
