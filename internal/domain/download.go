package domain

import "time"

// DownloadEvent is one recorded download. The id is the upstream event id so
// redelivered events are stored once.
type DownloadEvent struct {
	ID          string      `json:"id"`
	ContentID   string      `json:"content_id"`
	ContentType ContentType `json:"content_type"`
	UserID      *string     `json:"user_id,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}
