package models

import "time"

// ActivityRecord captures a single user action for the activity log.
type ActivityRecord struct {
	ID       string         `json:"id,omitempty"`
	UserID   string         `json:"user_id"`
	Action   string         `json:"action"`
	Metadata map[string]any `json:"metadata,omitempty"`
	DateTime time.Time      `json:"datetime"`
}
