package domain

import "time"

// User is an external identity. Rows are created on first contact and
// never overwritten afterwards.
type User struct {
	ID          int64
	DisplayName string
}

// Event is a scheduled meeting. The creator is always the first participant.
type Event struct {
	ID        int64
	Name      string
	Time      time.Time // canonical zone, minute precision
	CreatorID int64
}
