package leaderboard

import "github.com/google/uuid"

type LeaderboardEntry struct {
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Username     string    `json:"username" db:"username"`
	AvatarURL    *string   `json:"avatar_url" db:"avatar_url"`
	TotalSavings float64   `json:"total_savings" db:"total_savings"`
	Seeds        int       `json:"seeds" db:"seeds"`
	Streak       int       `json:"streak" db:"streak"`
	Rank         int       `json:"rank" db:"rank"`
}

type Leaderboard struct {
	Entries      []*LeaderboardEntry `json:"entries"`
	UserPosition *LeaderboardEntry   `json:"user_position"`
	TotalUsers   int                 `json:"total_users"`
}

type LeaderboardsResponse struct {
	Global  *Leaderboard `json:"global"`
	Friends *Leaderboard `json:"friends"`
}
