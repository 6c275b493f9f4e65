package domain

import (
	"time"
)

// Record is the archived form of an ended session. Records are written
// exactly once when a session ends and never mutated afterward.
type Record struct {
	ID        int64          `json:"id"`
	SessionID string         `json:"session_id"`
	UserData  map[string]any `json:"user_data"`
	CreatedAt time.Time      `json:"created_at"`
	EndedAt   time.Time      `json:"ended_at"`
}
