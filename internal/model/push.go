package model

import "time"

type PushSubscription struct {
	ID        int64     `json:"id"`
	CoupleID  int64     `json:"couple_id"`
	UserID    int64     `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"-"`
	Auth      string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
