package entity

import "time"

const (
	EventProfileCreated   = "created"
	EventProfileUpdated   = "updated"
	EventProfileSubmitted = "submitted"
)

// ProfileEvent is published to Kafka every time a profile is stored.
type ProfileEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	Username   string    `json:"username"`
	OccurredAt time.Time `json:"occurred_at"`
	User       *User     `json:"user"`
}
