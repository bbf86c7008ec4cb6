package ledger

import (
	"fmt"
	"log/slog"

	"github.com/mkendall/tandem/internal/model"
	"github.com/mkendall/tandem/internal/store"
)

// Events receives notifications after a ledger write so both devices can
// refresh their totals.
type Events interface {
	PointsAwarded(entry model.LedgerEntry, total int)
}

// Service is the write path for love points. Every balance change goes
// through Award as an append-only entry; totals are always derived from the
// entries, so the service never stores or corrects a counter.
type Service struct {
	entries *store.LedgerStore
	events  Events
	logger  *slog.Logger
}

func NewService(entries *store.LedgerStore, events Events, logger *slog.Logger) *Service {
	return &Service{entries: entries, events: events, logger: logger}
}

// Award appends one point delta for a couple. The amount may be negative
// for corrections, but zero is rejected: an entry that changes nothing has
// no auditable reason to exist.
func (s *Service) Award(coupleID, userID int64, amount int, source model.LedgerSource, note string) (*model.LedgerEntry, error) {
	if amount == 0 {
		return nil, fmt.Errorf("award amount must be non-zero")
	}

	entry, err := s.entries.Append(coupleID, userID, amount, source, note)
	if err != nil {
		return nil, err
	}

	total, err := s.entries.Total(coupleID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("points awarded",
		"couple_id", coupleID, "user_id", userID, "amount", amount, "source", source, "total", total)

	if s.events != nil {
		s.events.PointsAwarded(*entry, total)
	}
	return entry, nil
}

// Total returns the couple's running total, computed as the sum of entries.
func (s *Service) Total(coupleID int64) (int, error) {
	return s.entries.Total(coupleID)
}

// History returns the newest entries first. limit <= 0 means no limit.
func (s *Service) History(coupleID int64, limit int) ([]model.LedgerEntry, error) {
	return s.entries.ListByCouple(coupleID, limit)
}
