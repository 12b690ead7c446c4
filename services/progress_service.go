package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ecoQuestAPI/internal/progress"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Seeds and XP granted for every logged energy-saving action.
const (
	seedsPerAction = 5
	xpPerAction    = 10
)

type ProgressService struct {
	db *pgxpool.Pool
}

func NewProgressService(db *pgxpool.Pool) *ProgressService {
	return &ProgressService{db: db}
}

// isUndefinedColumn reports whether the store rejected a statement because a
// column does not exist yet (SQLSTATE 42703). The progress schema may be
// mid-migration in production, so this is recovered locally with a reduced
// statement instead of propagating.
func isUndefinedColumn(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42703"
}

func (s *ProgressService) GetProgress(ctx context.Context, userID string) (*progress.UserProgress, error) {
	p := &progress.UserProgress{UserID: userID}

	query := `
	SELECT level, xp, seeds, total_savings, co2_saved, streak, best_streak, last_login_date
	FROM user_progress
	WHERE user_id = $1
	`
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&p.Level,
		&p.XP,
		&p.Seeds,
		&p.TotalSavings,
		&p.CO2Saved,
		&p.Streak,
		&p.BestStreak,
		&p.LastLoginDate,
	)
	if isUndefinedColumn(err) {
		reduced := `
		SELECT level, xp, seeds, total_savings, co2_saved, streak, best_streak
		FROM user_progress
		WHERE user_id = $1
		`
		err = s.db.QueryRow(ctx, reduced, userID).Scan(
			&p.Level,
			&p.XP,
			&p.Seeds,
			&p.TotalSavings,
			&p.CO2Saved,
			&p.Streak,
			&p.BestStreak,
		)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	return p, nil
}

// UpdateStreak reads the stored streak state, advances it against the
// current UTC time and writes it back, stamping last_login_date = now.
// Safe to call any number of times per day; only the first call after a new
// UTC day changes anything. Both the read and the write degrade to a shape
// without last_login_date when the column is absent.
func (s *ProgressService) UpdateStreak(ctx context.Context, userID string) (*progress.StreakResult, error) {
	now := time.Now().UTC()

	var streak, best int
	var last *time.Time

	query := `SELECT streak, best_streak, last_login_date FROM user_progress WHERE user_id = $1`
	err := s.db.QueryRow(ctx, query, userID).Scan(&streak, &best, &last)
	legacySchema := false
	if isUndefinedColumn(err) {
		legacySchema = true
		err = s.db.QueryRow(ctx,
			`SELECT streak, best_streak FROM user_progress WHERE user_id = $1`,
			userID,
		).Scan(&streak, &best)
	}
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read streak: %w", err)
	}
	// A missing row behaves like all-zero state with an unknown prior login.

	result := progress.AdvanceStreak(streak, best, last, now)

	if legacySchema {
		_, err = s.db.Exec(ctx, `
			UPDATE user_progress SET streak = $2, best_streak = $3
			WHERE user_id = $1
		`, userID, result.Streak, result.BestStreak)
	} else {
		_, err = s.db.Exec(ctx, `
			UPDATE user_progress SET streak = $2, best_streak = $3, last_login_date = $4
			WHERE user_id = $1
		`, userID, result.Streak, result.BestStreak, now)
		if isUndefinedColumn(err) {
			// Column dropped between read and write; same fallback contract.
			_, err = s.db.Exec(ctx, `
				UPDATE user_progress SET streak = $2, best_streak = $3
				WHERE user_id = $1
			`, userID, result.Streak, result.BestStreak)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to write streak: %w", err)
	}

	return &result, nil
}

// AddSavings records an energy-saving action and credits seeds, XP and the
// running savings totals in one transaction.
func (s *ProgressService) AddSavings(ctx context.Context, userID string, req *progress.SavingsRequest) (*progress.UserProgress, error) {
	if req.AmountSaved < 0 || req.CO2Saved < 0 {
		return nil, fmt.Errorf("savings amounts must be non-negative")
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO savings_log (user_id, action, amount_saved, co2_saved, logged_at)
		VALUES ($1, $2, $3, $4, NOW())
	`, userID, req.Action, req.AmountSaved, req.CO2Saved)
	if err != nil {
		return nil, fmt.Errorf("failed to log savings: %w", err)
	}

	p := &progress.UserProgress{UserID: userID}
	err = tx.QueryRow(ctx, `
		UPDATE user_progress
		SET seeds = seeds + $2,
		    xp = xp + $3,
		    total_savings = total_savings + $4,
		    co2_saved = co2_saved + $5
		WHERE user_id = $1
		RETURNING level, xp, seeds, total_savings, co2_saved, streak, best_streak
	`, userID, seedsPerAction, xpPerAction, req.AmountSaved, req.CO2Saved).Scan(
		&p.Level,
		&p.XP,
		&p.Seeds,
		&p.TotalSavings,
		&p.CO2Saved,
		&p.Streak,
		&p.BestStreak,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to credit savings: %w", err)
	}

	if newLevel := progress.LevelForXP(p.XP); newLevel != p.Level {
		_, err = tx.Exec(ctx,
			`UPDATE user_progress SET level = $2 WHERE user_id = $1`,
			userID, newLevel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update level: %w", err)
		}
		log.Printf("AddSavings: user %s reached level %d", userID, newLevel)
		p.Level = newLevel
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit savings: %w", err)
	}

	return p, nil
}
