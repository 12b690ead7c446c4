package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ecoQuestAPI/internal/buddy"
	"ecoQuestAPI/internal/garden"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BuddyService struct {
	db *pgxpool.Pool
}

func NewBuddyService(db *pgxpool.Pool) *BuddyService {
	return &BuddyService{db: db}
}

// GetBuddy returns the pet with its mood derived from the user's current
// streak and garden health. Plant decay is computed on the fly so the mood
// never lags behind the garden.
func (s *BuddyService) GetBuddy(ctx context.Context, userID string) (*buddy.BuddyResponse, error) {
	b := &buddy.EcoBuddy{}
	var streak, storedHealth int
	var lastWatered *time.Time

	query := `
	SELECT eb.user_id, eb.name, eb.created_at,
	       COALESCE(up.streak, 0),
	       COALESCE(ph.plant_health, 0),
	       ph.last_watered_at
	FROM eco_buddies eb
	LEFT JOIN user_progress up ON up.user_id = eb.user_id
	LEFT JOIN plant_health ph ON ph.user_id = eb.user_id
	WHERE eb.user_id = $1
	`
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&b.UserID,
		&b.Name,
		&b.CreatedAt,
		&streak,
		&storedHealth,
		&lastWatered,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get buddy: %w", err)
	}

	health := garden.Decay(storedHealth, lastWatered, time.Now().UTC())

	return &buddy.BuddyResponse{
		Buddy:       b,
		Mood:        buddy.MoodFor(streak, health),
		Streak:      streak,
		PlantHealth: health,
	}, nil
}

func (s *BuddyService) RenameBuddy(ctx context.Context, userID, name string) (*buddy.EcoBuddy, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 30 {
		return nil, fmt.Errorf("buddy name must be 1-30 characters")
	}

	b := &buddy.EcoBuddy{}
	err := s.db.QueryRow(ctx, `
		UPDATE eco_buddies SET name = $2
		WHERE user_id = $1
		RETURNING user_id, name, created_at
	`, userID, name).Scan(&b.UserID, &b.Name, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to rename buddy: %w", err)
	}

	return b, nil
}
