package stats

// UserStats aggregates the numbers the profile screen renders in one fetch.
type UserStats struct {
	TotalSavings     float64 `json:"total_savings"`
	CO2Saved         float64 `json:"co2_saved"`
	ActionsLogged    int     `json:"actions_logged"`
	ActionsThisWeek  int     `json:"actions_this_week"`
	ActionsThisMonth int     `json:"actions_this_month"`
	Streak           int     `json:"streak"`
	BestStreak       int     `json:"best_streak"`
	FriendsCount     int     `json:"friends_count"`
	ImpactScore      float64 `json:"impact_score"`
	Rank             int     `json:"rank"`
}
