package reconcile

import (
	"context"
	"log/slog"

	"github.com/mkendall/tandem/internal/remote"
)

// LedgerTotals is the local side of the point comparison.
type LedgerTotals interface {
	Total(coupleID int64) (int, error)
}

// PointsSource is the remote side of the point comparison.
type PointsSource interface {
	FetchLovePoints(ctx context.Context, coupleID int64) (*remote.LovePoints, error)
}

// LedgerComparison reports a point-total comparison. Divergence is a
// surfaced state, never auto-corrected: merging totals without auditable
// entries risks double counting.
type LedgerComparison struct {
	Status      Status `json:"status"`
	LocalTotal  int    `json:"local_total"`
	RemoteTotal int    `json:"remote_total"`
	Error       string `json:"error,omitempty"`
}

// LedgerSync compares the local love-point total against the remote one.
type LedgerSync struct {
	local  LedgerTotals
	source PointsSource
	logger *slog.Logger
}

func NewLedgerSync(local LedgerTotals, source PointsSource, logger *slog.Logger) *LedgerSync {
	return &LedgerSync{local: local, source: source, logger: logger}
}

// Compare returns synced when totals match, diverged with both values when
// they do not, and error when the remote could not answer. The returned
// error is reserved for local faults.
func (s *LedgerSync) Compare(ctx context.Context, coupleID int64) (LedgerComparison, error) {
	localTotal, err := s.local.Total(coupleID)
	if err != nil {
		return LedgerComparison{}, err
	}

	points, err := s.source.FetchLovePoints(ctx, coupleID)
	if err != nil {
		s.logger.Warn("remote love-point fetch failed", "couple_id", coupleID, "error", err)
		return LedgerComparison{
			Status:     StatusError,
			LocalTotal: localTotal,
			Error:      err.Error(),
		}, nil
	}

	cmp := LedgerComparison{
		LocalTotal:  localTotal,
		RemoteTotal: points.Total,
	}
	if localTotal == points.Total {
		cmp.Status = StatusSynced
	} else {
		cmp.Status = StatusDiverged
		s.logger.Warn("love-point totals diverged",
			"couple_id", coupleID, "local_total", localTotal, "remote_total", points.Total)
	}
	return cmp, nil
}
