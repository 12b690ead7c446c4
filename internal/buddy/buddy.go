package buddy

import (
	"time"

	"github.com/google/uuid"
)

type Mood string

const (
	MoodThriving Mood = "thriving"
	MoodHappy    Mood = "happy"
	MoodOkay     Mood = "okay"
	MoodSad      Mood = "sad"
)

// EcoBuddy is the user's virtual pet. It stores only its name; its mood is
// derived from the user's streak and garden health on every read.
type EcoBuddy struct {
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type BuddyResponse struct {
	Buddy       *EcoBuddy `json:"buddy"`
	Mood        Mood      `json:"mood"`
	Streak      int       `json:"streak"`
	PlantHealth int       `json:"plant_health"`
}

type RenameRequest struct {
	Name string `json:"name"`
}

// MoodFor maps the user's current streak and plant health to the buddy's
// mood. A dead garden always drags the buddy down to sad.
func MoodFor(streak, plantHealth int) Mood {
	if plantHealth == 0 {
		return MoodSad
	}
	switch {
	case streak >= 7 && plantHealth == 3:
		return MoodThriving
	case streak >= 3:
		return MoodHappy
	case streak >= 1:
		return MoodOkay
	default:
		return MoodSad
	}
}
