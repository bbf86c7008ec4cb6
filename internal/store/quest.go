package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/mkendall/tandem/internal/model"
)

type QuestStore struct {
	db *sql.DB
}

func NewQuestStore(db *sql.DB) *QuestStore {
	return &QuestStore{db: db}
}

const questCols = `id, couple_id, date_key, kind, title, assigned_to, reward, completed, completed_by, completed_at, created_at`

func scanQuest(scanner interface{ Scan(...any) error }) (*model.Quest, error) {
	var q model.Quest
	var completed int
	var completedBy sql.NullInt64
	var completedAt sql.NullTime

	err := scanner.Scan(&q.ID, &q.CoupleID, &q.DateKey, &q.Kind, &q.Title,
		&q.AssignedTo, &q.Reward, &completed, &completedBy, &completedAt, &q.CreatedAt)
	if err != nil {
		return nil, err
	}

	q.Completed = completed != 0
	if completedBy.Valid {
		q.CompletedBy = &completedBy.Int64
	}
	if completedAt.Valid {
		t := completedAt.Time
		q.CompletedAt = &t
	}
	return &q, nil
}

// GetForDate returns the quest set cached for a couple and date key.
// Returns an empty slice, never nil, when nothing is cached.
func (s *QuestStore) GetForDate(coupleID int64, dateKey string) ([]model.Quest, error) {
	rows, err := s.db.Query(
		`SELECT `+questCols+` FROM quests WHERE couple_id = ? AND date_key = ? ORDER BY created_at ASC, id ASC`,
		coupleID, dateKey,
	)
	if err != nil {
		return nil, fmt.Errorf("list quests for date: %w", err)
	}
	defer rows.Close()

	quests := []model.Quest{}
	for rows.Next() {
		q, err := scanQuest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quest: %w", err)
		}
		quests = append(quests, *q)
	}
	return quests, rows.Err()
}

func (s *QuestStore) GetByID(id string) (*model.Quest, error) {
	row := s.db.QueryRow(`SELECT `+questCols+` FROM quests WHERE id = ?`, id)
	q, err := scanQuest(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get quest: %w", err)
	}
	return q, nil
}

// Save upserts a single quest by id.
func (s *QuestStore) Save(q *model.Quest) error {
	if err := insertQuest(s.db, q); err != nil {
		return fmt.Errorf("save quest: %w", err)
	}
	return nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertQuest(e execer, q *model.Quest) error {
	var completed int
	if q.Completed {
		completed = 1
	}
	var completedBy sql.NullInt64
	if q.CompletedBy != nil {
		completedBy = sql.NullInt64{Int64: *q.CompletedBy, Valid: true}
	}
	var completedAt sql.NullTime
	if q.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *q.CompletedAt, Valid: true}
	}
	createdAt := q.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := e.Exec(
		`INSERT INTO quests (id, couple_id, date_key, kind, title, assigned_to, reward, completed, completed_by, completed_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   couple_id = excluded.couple_id,
		   date_key = excluded.date_key,
		   kind = excluded.kind,
		   title = excluded.title,
		   assigned_to = excluded.assigned_to,
		   reward = excluded.reward,
		   completed = excluded.completed,
		   completed_by = excluded.completed_by,
		   completed_at = excluded.completed_at,
		   created_at = excluded.created_at`,
		q.ID, q.CoupleID, q.DateKey, q.Kind, q.Title, q.AssignedTo, q.Reward,
		completed, completedBy, completedAt, createdAt,
	)
	return err
}

// ReplaceForDate overwrites the cached quest set for a couple and date with
// the given set, in a single transaction. This is the write path used when
// the remote source is authoritative.
func (s *QuestStore) ReplaceForDate(coupleID int64, dateKey string, quests []model.Quest) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM quests WHERE couple_id = ? AND date_key = ?`, coupleID, dateKey); err != nil {
		return fmt.Errorf("clear quests for date: %w", err)
	}
	for i := range quests {
		if err := insertQuest(tx, &quests[i]); err != nil {
			return fmt.Errorf("insert quest %s: %w", quests[i].ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

// MarkCompleted records completion of a quest by a user. Already-completed
// quests are left untouched; the stored completion wins.
func (s *QuestStore) MarkCompleted(id string, userID int64) (*model.Quest, error) {
	_, err := s.db.Exec(
		`UPDATE quests SET completed = 1, completed_by = ?, completed_at = datetime('now') WHERE id = ? AND completed = 0`,
		userID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark quest completed: %w", err)
	}
	return s.GetByID(id)
}

func (s *QuestStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM quests WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete quest: %w", err)
	}
	return nil
}

// DeleteForDate removes the whole cached set for a couple and date. Used by
// the dev-only test-data reset.
func (s *QuestStore) DeleteForDate(coupleID int64, dateKey string) error {
	_, err := s.db.Exec(`DELETE FROM quests WHERE couple_id = ? AND date_key = ?`, coupleID, dateKey)
	if err != nil {
		return fmt.Errorf("delete quests for date: %w", err)
	}
	return nil
}
