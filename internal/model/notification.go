package model

import "time"

// Notification is an alert delivered to a single principal. Rows are
// created server-side and are append-only except for the IsRead flag.
type Notification struct {
	// ID is the server-assigned unique identifier.
	ID int64 `json:"id" db:"id"`

	// UserID identifies the principal this notification belongs to.
	UserID string `json:"user_id" db:"user_id"`

	// Message is the human-readable notification text.
	Message string `json:"message" db:"message"`

	// IsRead indicates whether the user has seen this notification.
	IsRead bool `json:"is_read" db:"is_read"`

	// CreatedAt is when the notification was generated server-side.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
