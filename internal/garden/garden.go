package garden

import (
	"time"

	"github.com/google/uuid"
)

const MaxHealth = 3

// PlantHealth is the per-user garden vitality row. Health is derived lazily
// from last_watered_at on every read rather than ticked by a scheduler.
type PlantHealth struct {
	UserID        uuid.UUID  `json:"user_id" db:"user_id"`
	PlantHealth   int        `json:"plant_health" db:"plant_health"`
	LastWateredAt *time.Time `json:"last_watered_at" db:"last_watered_at"`
}

type GardenItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ItemID    uuid.UUID `json:"item_id" db:"item_id"`
	Name      string    `json:"name" db:"name"`
	ImageURL  *string   `json:"image_url" db:"image_url"`
	Position  int       `json:"position" db:"position"`
	PlantedAt time.Time `json:"planted_at" db:"planted_at"`
}

type ShopItem struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	ItemType    string    `json:"item_type" db:"item_type"`
	Price       int       `json:"price" db:"price"`
	ImageURL    *string   `json:"image_url" db:"image_url"`
	IsActive    bool      `json:"is_active" db:"is_active"`
}

type CheckResult struct {
	PlantHealth   int        `json:"plant_health"`
	LastWateredAt *time.Time `json:"last_watered_at"`
	PlantsDeleted bool       `json:"plants_deleted"`
}

type WaterResult struct {
	PlantHealth    int        `json:"plant_health"`
	LastWateredAt  *time.Time `json:"last_watered_at"`
	AlreadyWatered bool       `json:"already_watered"`
	PlantsDeleted  bool       `json:"plants_deleted"`
}

type GardenResponse struct {
	Health CheckResult   `json:"health"`
	Items  []*GardenItem `json:"items"`
}

type PlantRequest struct {
	ItemID   string `json:"itemId"`
	Position int    `json:"position"`
}

// DaysSinceWater counts whole elapsed days, hour-based rather than
// calendar-based: watering at 23:00 yesterday does not count as a missed
// day at 01:00 today. A nil timestamp means the garden was never watered
// and decays all the way down on the next check.
func DaysSinceWater(last *time.Time, now time.Time) int {
	if last == nil {
		return MaxHealth
	}
	hours := now.UTC().Sub(last.UTC()).Hours()
	if hours < 0 {
		return 0
	}
	return int(hours / 24)
}

// Decay returns the health after applying one point of decay per full day
// without water, floored at zero.
func Decay(health int, last *time.Time, now time.Time) int {
	health -= DaysSinceWater(last, now)
	if health < 0 {
		return 0
	}
	return health
}

func sameUTCDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// WateredToday reports whether last falls on the same UTC calendar day as
// now, which makes a watering call a no-op.
func WateredToday(last *time.Time, now time.Time) bool {
	return last != nil && sameUTCDay(*last, now)
}

// QualifiesForRecovery implements the "3 consecutive days of watering
// restores one health bar" rule: the two most recent waterings before
// today's must fall on exactly yesterday and the day before. previous is
// expected newest-first, as the watering log query returns it.
func QualifiesForRecovery(previous []time.Time, now time.Time) bool {
	if len(previous) < 2 {
		return false
	}
	day := func(t time.Time) time.Time {
		t = t.UTC()
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
	today := day(now)
	return day(previous[0]).Equal(today.AddDate(0, 0, -1)) &&
		day(previous[1]).Equal(today.AddDate(0, 0, -2))
}
