package challenge

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

type Challenge struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Title        string    `json:"title" db:"title"`
	Description  string    `json:"description" db:"description"`
	Category     string    `json:"category" db:"category"`
	Points       int       `json:"points" db:"points"`
	DurationDays int       `json:"duration_days" db:"duration_days"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type UserChallenge struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	ChallengeID  uuid.UUID  `json:"challenge_id" db:"challenge_id"`
	Status       Status     `json:"status" db:"status"`
	Progress     int        `json:"progress" db:"progress"`
	PointsEarned int        `json:"points_earned" db:"points_earned"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
}

// ChallengeWithStatus is the catalog view: every active challenge joined
// with the requesting user's instance, if any.
type ChallengeWithStatus struct {
	Challenge
	Status      *Status    `json:"status"`
	Progress    int        `json:"progress"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

type StartRequest struct {
	ChallengeID string `json:"challengeId"`
}

type CompleteRequest struct {
	ChallengeID string `json:"challengeId"`
}

// XPMultiplier converts a challenge's point reward into its XP award.
const XPMultiplier = 2

type CompletionReward struct {
	PointsEarned int `json:"points_earned"`
	XPEarned     int `json:"xp_earned"`
}
