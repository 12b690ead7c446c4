package notification

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeStreakMilestone    Type = "streak_milestone"
	TypeChallengeCompleted Type = "challenge_completed"
	TypeGardenWilted       Type = "garden_wilted"
	TypeFriendAdded        Type = "friend_added"
)

type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Type      Type      `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Body      string    `json:"body" db:"body"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateNotificationRequest struct {
	UserID uuid.UUID
	Type   Type
	Title  string
	Body   string
}
