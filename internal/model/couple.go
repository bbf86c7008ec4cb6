package model

import "time"

// Couple is a paired set of two user accounts. It exists only once both
// users have linked; quest generation and ledger features are gated on it.
// This subsystem treats couples as read-only after pairing.
type Couple struct {
	ID       int64     `json:"id"`
	UserAID  int64     `json:"user_a_id"`
	UserBID  int64     `json:"user_b_id"`
	PairedAt time.Time `json:"paired_at"`
}

// PartnerOf returns the other member of the couple. The second return is
// false when userID is not a member at all.
func (c Couple) PartnerOf(userID int64) (int64, bool) {
	switch userID {
	case c.UserAID:
		return c.UserBID, true
	case c.UserBID:
		return c.UserAID, true
	}
	return 0, false
}

// HasMember reports whether userID belongs to the couple.
func (c Couple) HasMember(userID int64) bool {
	return userID == c.UserAID || userID == c.UserBID
}
