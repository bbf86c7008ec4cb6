package store

import (
	"database/sql"
	"fmt"

	"github.com/mkendall/tandem/internal/model"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

const sessionCols = `id, couple_id, kind, started_by, started_at`

func scanSession(scanner interface{ Scan(...any) error }) (*model.QuizSession, error) {
	var s model.QuizSession
	err := scanner.Scan(&s.ID, &s.CoupleID, &s.Kind, &s.StartedBy, &s.StartedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *SessionStore) Create(id string, coupleID int64, kind string, startedBy int64) (*model.QuizSession, error) {
	_, err := s.db.Exec(
		`INSERT INTO quiz_sessions (id, couple_id, kind, started_by) VALUES (?, ?, ?, ?)`,
		id, coupleID, kind, startedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return s.GetByID(id)
}

func (s *SessionStore) GetByID(id string) (*model.QuizSession, error) {
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM quiz_sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// LatestForCouple returns the most recently started session, or nil if the
// couple has none. The validation report uses this as its comparison key.
func (s *SessionStore) LatestForCouple(coupleID int64) (*model.QuizSession, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM quiz_sessions WHERE couple_id = ? ORDER BY started_at DESC, id DESC LIMIT 1`,
		coupleID,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest session: %w", err)
	}
	return sess, nil
}

func (s *SessionStore) ListRecent(coupleID int64, limit int) ([]model.QuizSession, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT `+sessionCols+` FROM quiz_sessions WHERE couple_id = ? ORDER BY started_at DESC, id DESC LIMIT ?`,
		coupleID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.QuizSession{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *sess)
	}
	return sessions, rows.Err()
}
