package model

import "time"

// DateKeyLayout is the calendar key format used for daily quest sets.
const DateKeyLayout = "2006-01-02"

// DateKey formats t as a YYYY-MM-DD key in t's location.
func DateKey(t time.Time) string {
	return t.Format(DateKeyLayout)
}

// ValidDateKey reports whether s parses as a YYYY-MM-DD key.
func ValidDateKey(s string) bool {
	_, err := time.Parse(DateKeyLayout, s)
	return err == nil
}
