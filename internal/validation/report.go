package validation

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.uber.org/multierr"

	"github.com/mkendall/tandem/internal/model"
	"github.com/mkendall/tandem/internal/reconcile"
	"github.com/mkendall/tandem/internal/remote"
	"github.com/mkendall/tandem/internal/store"
)

// Category names one compared data domain.
type Category string

const (
	CategoryQuests   Category = "quests"
	CategoryPoints   Category = "points"
	CategorySessions Category = "sessions"
)

// CategoryResult is the comparison outcome for one category. Evidence holds
// the raw values from both sides so divergence can be inspected without
// re-running the report.
type CategoryResult struct {
	Status   reconcile.Status `json:"status"`
	Evidence map[string]any   `json:"evidence,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// Report compares local and remote state per category. It is diagnostic
// output only; producing it mutates nothing on either side.
type Report struct {
	CoupleID    int64                       `json:"couple_id"`
	DateKey     string                      `json:"date_key"`
	GeneratedAt time.Time                   `json:"generated_at"`
	Categories  map[Category]CategoryResult `json:"categories"`
}

// Source is the remote read surface the reporter needs.
type Source interface {
	FetchQuests(ctx context.Context, coupleID int64, dateKey string) ([]model.Quest, error)
	FetchLovePoints(ctx context.Context, coupleID int64) (*remote.LovePoints, error)
	FetchSessions(ctx context.Context, coupleID int64) ([]model.QuizSession, error)
}

// Reporter builds read-only sync reports. Remote failures degrade the
// affected category to error status; only local store faults make Run fail.
type Reporter struct {
	source   Source
	quests   *store.QuestStore
	points   *reconcile.LedgerSync
	sessions *store.SessionStore
	logger   *slog.Logger
}

func NewReporter(source Source, quests *store.QuestStore, points *reconcile.LedgerSync,
	sessions *store.SessionStore, logger *slog.Logger) *Reporter {
	return &Reporter{
		source:   source,
		quests:   quests,
		points:   points,
		sessions: sessions,
		logger:   logger,
	}
}

// Run compares quests for the given date key plus the couple's point total
// and latest session. Local read faults are aggregated into the returned
// error; the report still carries whatever categories succeeded.
func (r *Reporter) Run(ctx context.Context, coupleID int64, dateKey string) (Report, error) {
	report := Report{
		CoupleID:    coupleID,
		DateKey:     dateKey,
		GeneratedAt: time.Now().UTC(),
		Categories:  map[Category]CategoryResult{},
	}

	var errs error

	result, err := r.compareQuests(ctx, coupleID, dateKey)
	errs = multierr.Append(errs, err)
	report.Categories[CategoryQuests] = result

	result, err = r.comparePoints(ctx, coupleID)
	errs = multierr.Append(errs, err)
	report.Categories[CategoryPoints] = result

	result, err = r.compareSessions(ctx, coupleID)
	errs = multierr.Append(errs, err)
	report.Categories[CategorySessions] = result

	for cat, res := range report.Categories {
		if res.Status != reconcile.StatusSynced {
			r.logger.Warn("validation category not synced",
				"couple_id", coupleID, "category", cat, "status", res.Status)
		}
	}
	return report, errs
}

func (r *Reporter) compareQuests(ctx context.Context, coupleID int64, dateKey string) (CategoryResult, error) {
	local, err := r.quests.GetForDate(coupleID, dateKey)
	if err != nil {
		return CategoryResult{Status: reconcile.StatusError, Error: err.Error()},
			fmt.Errorf("read local quests: %w", err)
	}

	remoteQuests, err := r.source.FetchQuests(ctx, coupleID, dateKey)
	if err != nil {
		return CategoryResult{
			Status:   reconcile.StatusError,
			Evidence: map[string]any{"local_count": len(local)},
			Error:    err.Error(),
		}, nil
	}

	localIDs := questIDs(local)
	remoteIDs := questIDs(remoteQuests)
	evidence := map[string]any{
		"local_count":  len(local),
		"remote_count": len(remoteQuests),
	}

	if equalIDs(localIDs, remoteIDs) {
		return CategoryResult{Status: reconcile.StatusSynced, Evidence: evidence}, nil
	}

	evidence["local_only"] = difference(localIDs, remoteIDs)
	evidence["remote_only"] = difference(remoteIDs, localIDs)
	return CategoryResult{Status: reconcile.StatusDiverged, Evidence: evidence}, nil
}

func (r *Reporter) comparePoints(ctx context.Context, coupleID int64) (CategoryResult, error) {
	cmp, err := r.points.Compare(ctx, coupleID)
	if err != nil {
		return CategoryResult{Status: reconcile.StatusError, Error: err.Error()},
			fmt.Errorf("read local ledger: %w", err)
	}

	res := CategoryResult{
		Status: cmp.Status,
		Evidence: map[string]any{
			"local_total": cmp.LocalTotal,
		},
		Error: cmp.Error,
	}
	if cmp.Status != reconcile.StatusError {
		res.Evidence["remote_total"] = cmp.RemoteTotal
	}
	return res, nil
}

func (r *Reporter) compareSessions(ctx context.Context, coupleID int64) (CategoryResult, error) {
	local, err := r.sessions.LatestForCouple(coupleID)
	if err != nil {
		return CategoryResult{Status: reconcile.StatusError, Error: err.Error()},
			fmt.Errorf("read local sessions: %w", err)
	}

	remoteSessions, err := r.source.FetchSessions(ctx, coupleID)
	if err != nil {
		evidence := map[string]any{}
		if local != nil {
			evidence["local_latest"] = local.ID
		}
		return CategoryResult{Status: reconcile.StatusError, Evidence: evidence, Error: err.Error()}, nil
	}

	evidence := map[string]any{}
	localLatest, remoteLatest := "", ""
	if local != nil {
		localLatest = local.ID
		evidence["local_latest"] = local.ID
	}
	if len(remoteSessions) > 0 {
		remoteLatest = remoteSessions[0].ID
		evidence["remote_latest"] = remoteSessions[0].ID
	}

	// Latest-id equality is a cheap proxy for full history equality; the
	// ids are client-generated, so a match means both sides saw the same
	// most-recent game.
	if localLatest == remoteLatest {
		return CategoryResult{Status: reconcile.StatusSynced, Evidence: evidence}, nil
	}
	return CategoryResult{Status: reconcile.StatusDiverged, Evidence: evidence}, nil
}

func questIDs(quests []model.Quest) []string {
	ids := make([]string, 0, len(quests))
	for _, q := range quests {
		ids = append(ids, q.ID)
	}
	sort.Strings(ids)
	return ids
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// difference returns the sorted ids present in a but not in b.
func difference(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}
	out := []string{}
	for _, id := range a {
		if !inB[id] {
			out = append(out, id)
		}
	}
	return out
}
