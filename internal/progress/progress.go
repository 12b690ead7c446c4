package progress

import "time"

// UserProgress is the per-user derived gamification state. One row per user,
// created alongside the account and mutated only by the backend.
type UserProgress struct {
	UserID        string     `json:"user_id" db:"user_id"`
	Level         int        `json:"level" db:"level"`
	XP            int        `json:"xp" db:"xp"`
	Seeds         int        `json:"seeds" db:"seeds"`
	TotalSavings  float64    `json:"total_savings" db:"total_savings"`
	CO2Saved      float64    `json:"co2_saved" db:"co2_saved"`
	Streak        int        `json:"streak" db:"streak"`
	BestStreak    int        `json:"best_streak" db:"best_streak"`
	LastLoginDate *time.Time `json:"last_login_date" db:"last_login_date"`
}

type StreakResult struct {
	Streak     int `json:"streak"`
	BestStreak int `json:"best_streak"`
	// Extended is true only on the call that actually grew the streak, so
	// callers can fire milestone side effects without re-firing all day.
	Extended bool `json:"-"`
}

type SavingsRequest struct {
	Action      string  `json:"action"`
	AmountSaved float64 `json:"amountSaved"`
	CO2Saved    float64 `json:"co2Saved"`
}

// XPPerLevel is the flat level curve: every 100 XP is one level.
const XPPerLevel = 100

func LevelForXP(xp int) int {
	if xp < 0 {
		return 1
	}
	return 1 + xp/XPPerLevel
}

// midnightUTC truncates t to the start of its UTC calendar day.
func midnightUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of whole UTC calendar days from a to b.
// Negative when b's calendar day precedes a's.
func DaysBetween(a, b time.Time) int {
	return int(midnightUTC(b).Sub(midnightUTC(a)).Hours() / 24)
}

// AdvanceStreak applies the daily streak rule to the stored values given the
// current time. A nil last login means continuity cannot be established, so
// the counters are left untouched. A same-day repeat call is a no-op. A gap
// of exactly one day extends the streak; any larger gap restarts it at 1.
// A negative gap (clock skew or corrupted data) also restarts at 1 rather
// than failing.
func AdvanceStreak(streak, best int, last *time.Time, now time.Time) StreakResult {
	if last == nil {
		return StreakResult{Streak: streak, BestStreak: best}
	}

	extended := false
	switch diff := DaysBetween(*last, now); {
	case diff == 0:
		// Already logged in today.
	case diff == 1:
		streak++
		if streak > best {
			best = streak
		}
		extended = true
	default:
		streak = 1
		if best < 1 {
			best = 1
		}
	}

	return StreakResult{Streak: streak, BestStreak: best, Extended: extended}
}
