package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mkendall/tandem/internal/model"
)

type LedgerStore struct {
	db *sql.DB
}

func NewLedgerStore(db *sql.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

const ledgerCols = `id, couple_id, user_id, amount, source, note, created_at`

func scanEntry(scanner interface{ Scan(...any) error }) (*model.LedgerEntry, error) {
	var e model.LedgerEntry
	err := scanner.Scan(&e.ID, &e.CoupleID, &e.UserID, &e.Amount, &e.Source, &e.Note, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Append records one point delta. Entries are append-only; nothing in the
// production code path updates or deletes them.
func (s *LedgerStore) Append(coupleID, userID int64, amount int, source model.LedgerSource, note string) (*model.LedgerEntry, error) {
	result, err := s.db.Exec(
		`INSERT INTO ledger_entries (couple_id, user_id, amount, source, note) VALUES (?, ?, ?, ?, ?)`,
		coupleID, userID, amount, source, note,
	)
	if err != nil {
		return nil, fmt.Errorf("insert ledger entry: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	row := s.db.QueryRow(`SELECT `+ledgerCols+` FROM ledger_entries WHERE id = ?`, id)
	e, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}
	return e, nil
}

// Total computes the running love-point total for a couple as the sum of
// all entries. There is no stored counter to read instead.
func (s *LedgerStore) Total(coupleID int64) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM ledger_entries WHERE couple_id = ?`,
		coupleID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum ledger entries: %w", err)
	}
	return int(total.Int64), nil
}

// ListByCouple returns the newest entries first. limit <= 0 means no limit.
func (s *LedgerStore) ListByCouple(coupleID int64, limit int) ([]model.LedgerEntry, error) {
	query := `SELECT ` + ledgerCols + ` FROM ledger_entries WHERE couple_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{coupleID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	entries := []model.LedgerEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// ListByDateRange returns entries created in [start, end), oldest first.
func (s *LedgerStore) ListByDateRange(coupleID int64, start, end time.Time) ([]model.LedgerEntry, error) {
	rows, err := s.db.Query(
		`SELECT `+ledgerCols+` FROM ledger_entries WHERE couple_id = ? AND created_at >= ? AND created_at < ? ORDER BY created_at ASC, id ASC`,
		coupleID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries by range: %w", err)
	}
	defer rows.Close()

	entries := []model.LedgerEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// DeleteAll wipes a couple's ledger. Dev-only escape hatch for test-data
// reset; never called from the production path.
func (s *LedgerStore) DeleteAll(coupleID int64) error {
	_, err := s.db.Exec(`DELETE FROM ledger_entries WHERE couple_id = ?`, coupleID)
	if err != nil {
		return fmt.Errorf("delete ledger entries: %w", err)
	}
	return nil
}
