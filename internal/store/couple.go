package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/mkendall/tandem/internal/model"
)

// ErrAlreadyPaired is returned by Create when either user already belongs
// to a couple.
var ErrAlreadyPaired = errors.New("user already paired")

type CoupleStore struct {
	db *sql.DB
}

func NewCoupleStore(db *sql.DB) *CoupleStore {
	return &CoupleStore{db: db}
}

const coupleCols = `id, user_a_id, user_b_id, paired_at`

func scanCouple(scanner interface{ Scan(...any) error }) (*model.Couple, error) {
	var c model.Couple
	err := scanner.Scan(&c.ID, &c.UserAID, &c.UserBID, &c.PairedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create records a pairing. Member order is normalized so (a, b) and
// (b, a) name the same couple, and the guarded insert is a single atomic
// statement: concurrent pair attempts for an already-paired user insert
// nothing. The couple is read-only afterwards.
func (s *CoupleStore) Create(userAID, userBID int64) (*model.Couple, error) {
	lo, hi := userAID, userBID
	if lo > hi {
		lo, hi = hi, lo
	}

	result, err := s.db.Exec(
		`INSERT INTO couples (user_a_id, user_b_id)
		 SELECT ?, ?
		 WHERE NOT EXISTS (
		     SELECT 1 FROM couples
		     WHERE user_a_id IN (?, ?) OR user_b_id IN (?, ?)
		 )`,
		lo, hi, lo, hi, lo, hi,
	)
	if err != nil {
		return nil, fmt.Errorf("insert couple: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, ErrAlreadyPaired
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *CoupleStore) GetByID(id int64) (*model.Couple, error) {
	row := s.db.QueryRow(`SELECT `+coupleCols+` FROM couples WHERE id = ?`, id)
	c, err := scanCouple(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get couple: %w", err)
	}
	return c, nil
}

// GetByUser finds the couple a user belongs to, or nil if the user has not
// paired yet.
func (s *CoupleStore) GetByUser(userID int64) (*model.Couple, error) {
	row := s.db.QueryRow(
		`SELECT `+coupleCols+` FROM couples WHERE user_a_id = ? OR user_b_id = ?`,
		userID, userID,
	)
	c, err := scanCouple(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get couple by user: %w", err)
	}
	return c, nil
}
