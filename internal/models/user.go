package models

import (
	"time"
)

// UserRecord represents one person's conversation position, keyed by the
// platform-assigned sender ID.
type UserRecord struct {
	ExternalID  string    `json:"external_id" db:"external_id"`
	DisplayName string    `json:"display_name" db:"display_name"`
	StateLabel  string    `json:"state_label" db:"state_label"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
