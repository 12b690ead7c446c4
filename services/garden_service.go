package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ecoQuestAPI/internal/garden"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type GardenService struct {
	db *pgxpool.Pool
}

func NewGardenService(db *pgxpool.Pool) *GardenService {
	return &GardenService{db: db}
}

// CheckPlantHealth applies pending decay and returns the current health.
// The stored plant_health value is the health as of the last watering; the
// current value is derived from it and last_watered_at on every call, so
// repeated checks within a day are no-ops. Only the zero floor is persisted:
// the call that reaches it wipes the user's planted items in the same
// transaction and reports plantsDeleted exactly once.
func (s *GardenService) CheckPlantHealth(ctx context.Context, userID string) (*garden.CheckResult, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var stored int
	var last *time.Time
	err = tx.QueryRow(ctx,
		`SELECT plant_health, last_watered_at FROM plant_health WHERE user_id = $1`,
		userID,
	).Scan(&stored, &last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to read plant health: %w", err)
	}

	current := garden.Decay(stored, last, now)
	result := &garden.CheckResult{PlantHealth: current, LastWateredAt: last}

	if current == 0 && stored > 0 {
		// First check at zero: persist the floor and wipe the garden.
		_, err = tx.Exec(ctx,
			`UPDATE plant_health SET plant_health = 0 WHERE user_id = $1`,
			userID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to persist wilted state: %w", err)
		}

		_, err = tx.Exec(ctx, `DELETE FROM garden_items WHERE user_id = $1`, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to wipe garden: %w", err)
		}

		result.PlantsDeleted = true
		log.Printf("CheckPlantHealth: garden wilted for user %s", userID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit health check: %w", err)
	}

	return result, nil
}

// WaterPlants records today's watering. Idempotent per UTC calendar day.
// Pending decay is settled first, then one health bar is restored when
// today completes a run of three consecutive watering days. When settling
// the decay is what drains the health to zero, the planted items are wiped
// here the same way CheckPlantHealth wipes them, so the garden never sits
// at zero with its items intact.
func (s *GardenService) WaterPlants(ctx context.Context, userID string) (*garden.WaterResult, error) {
	now := time.Now().UTC()

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var stored int
	var last *time.Time
	err = tx.QueryRow(ctx,
		`SELECT plant_health, last_watered_at FROM plant_health WHERE user_id = $1`,
		userID,
	).Scan(&stored, &last)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to read plant health: %w", err)
	}

	if garden.WateredToday(last, now) {
		return &garden.WaterResult{
			PlantHealth:    garden.Decay(stored, last, now),
			LastWateredAt:  last,
			AlreadyWatered: true,
		}, nil
	}

	current := garden.Decay(stored, last, now)

	plantsDeleted := false
	if current == 0 && stored > 0 {
		// The gap since the last watering killed the garden. Settle the
		// wipe before the new watering takes effect.
		_, err = tx.Exec(ctx, `DELETE FROM garden_items WHERE user_id = $1`, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to wipe garden: %w", err)
		}
		plantsDeleted = true
		log.Printf("WaterPlants: garden wilted for user %s", userID)
	}

	if current < garden.MaxHealth {
		previous, err := s.recentWaterings(ctx, tx, userID, now)
		if err != nil {
			return nil, err
		}
		if garden.QualifiesForRecovery(previous, now) {
			current++
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO watering_log (user_id, watered_on)
		VALUES ($1, $2)
		ON CONFLICT (user_id, watered_on) DO NOTHING
	`, userID, now.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to record watering: %w", err)
	}

	_, err = tx.Exec(ctx, `
		UPDATE plant_health SET plant_health = $2, last_watered_at = $3
		WHERE user_id = $1
	`, userID, current, now)
	if err != nil {
		return nil, fmt.Errorf("failed to update plant health: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit watering: %w", err)
	}

	return &garden.WaterResult{PlantHealth: current, LastWateredAt: &now, PlantsDeleted: plantsDeleted}, nil
}

// recentWaterings returns the user's two most recent watering days before
// today, newest first.
func (s *GardenService) recentWaterings(ctx context.Context, tx pgx.Tx, userID string, now time.Time) ([]time.Time, error) {
	rows, err := tx.Query(ctx, `
		SELECT watered_on FROM watering_log
		WHERE user_id = $1 AND watered_on < $2
		ORDER BY watered_on DESC
		LIMIT 2
	`, userID, now.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("failed to read watering log: %w", err)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan watering day: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating watering log: %w", err)
	}

	return days, nil
}

func (s *GardenService) GetGarden(ctx context.Context, userID string) (*garden.GardenResponse, error) {
	health, err := s.CheckPlantHealth(ctx, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
		SELECT gi.id, gi.user_id, gi.item_id, si.name, si.image_url, gi.position, gi.planted_at
		FROM garden_items gi
		JOIN shop_items si ON si.id = gi.item_id
		WHERE gi.user_id = $1
		ORDER BY gi.position
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch garden items: %w", err)
	}
	defer rows.Close()

	items := []*garden.GardenItem{}
	for rows.Next() {
		item := &garden.GardenItem{}
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.ItemID,
			&item.Name,
			&item.ImageURL,
			&item.Position,
			&item.PlantedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan garden item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating garden items: %w", err)
	}

	return &garden.GardenResponse{Health: *health, Items: items}, nil
}

func (s *GardenService) GetShop(ctx context.Context) (map[string][]*garden.ShopItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, item_type, price, image_url, is_active
		FROM shop_items
		WHERE is_active = true
		ORDER BY price
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch shop: %w", err)
	}
	defer rows.Close()

	shop := make(map[string][]*garden.ShopItem)
	for rows.Next() {
		var item garden.ShopItem
		err := rows.Scan(
			&item.ID,
			&item.Name,
			&item.Description,
			&item.ItemType,
			&item.Price,
			&item.ImageURL,
			&item.IsActive,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan shop item: %w", err)
		}
		shop[item.ItemType] = append(shop[item.ItemType], &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shop items: %w", err)
	}

	return shop, nil
}

// PlantItem buys a shop item with seeds and places it in the garden, debit
// and insert in a single transaction.
func (s *GardenService) PlantItem(ctx context.Context, userID string, req *garden.PlantRequest) (*garden.GardenItem, error) {
	itemUUID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return nil, fmt.Errorf("invalid item ID: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var item garden.ShopItem
	err = tx.QueryRow(ctx, `
		SELECT id, name, price, image_url, is_active
		FROM shop_items
		WHERE id = $1
	`, itemUUID).Scan(&item.ID, &item.Name, &item.Price, &item.ImageURL, &item.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to get shop item: %w", err)
	}
	if !item.IsActive {
		return nil, fmt.Errorf("shop item is not available")
	}

	// Conditional debit doubles as the balance check.
	tag, err := tx.Exec(ctx, `
		UPDATE user_progress SET seeds = seeds - $2
		WHERE user_id = $1 AND seeds >= $2
	`, userID, item.Price)
	if err != nil {
		return nil, fmt.Errorf("failed to debit seeds: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrInsufficientSeeds
	}

	planted := &garden.GardenItem{
		Name:     item.Name,
		ImageURL: item.ImageURL,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO garden_items (id, user_id, item_id, position, planted_at)
		VALUES (gen_random_uuid(), $1, $2, $3, NOW())
		RETURNING id, user_id, item_id, position, planted_at
	`, userID, itemUUID, req.Position).Scan(
		&planted.ID,
		&planted.UserID,
		&planted.ItemID,
		&planted.Position,
		&planted.PlantedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to plant item: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit planting: %w", err)
	}

	return planted, nil
}
