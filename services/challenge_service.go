package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"ecoQuestAPI/internal/challenge"
	"ecoQuestAPI/internal/progress"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChallengeService struct {
	db *pgxpool.Pool
}

func NewChallengeService(db *pgxpool.Pool) *ChallengeService {
	return &ChallengeService{db: db}
}

// ListChallenges returns the active catalog joined with the requesting
// user's instances.
func (s *ChallengeService) ListChallenges(ctx context.Context, userID string) ([]*challenge.ChallengeWithStatus, error) {
	rows, err := s.db.Query(ctx, `
		SELECT
			c.id, c.title, c.description, c.category, c.points, c.duration_days,
			c.is_active, c.created_at,
			uc.status, COALESCE(uc.progress, 0), uc.started_at, uc.completed_at
		FROM challenges c
		LEFT JOIN user_challenges uc ON uc.challenge_id = c.id AND uc.user_id = $1
		WHERE c.is_active = true
		ORDER BY c.points
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch challenges: %w", err)
	}
	defer rows.Close()

	challenges := []*challenge.ChallengeWithStatus{}
	for rows.Next() {
		c := &challenge.ChallengeWithStatus{}
		err := rows.Scan(
			&c.ID,
			&c.Title,
			&c.Description,
			&c.Category,
			&c.Points,
			&c.DurationDays,
			&c.IsActive,
			&c.CreatedAt,
			&c.Status,
			&c.Progress,
			&c.StartedAt,
			&c.CompletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating challenges: %w", err)
	}

	return challenges, nil
}

// StartChallenge creates the user's active instance. At most one instance
// per (user, challenge) ever exists.
func (s *ChallengeService) StartChallenge(ctx context.Context, userID, challengeID string) (*challenge.UserChallenge, error) {
	challengeUUID, err := uuid.Parse(challengeID)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge ID: %w", err)
	}

	var isActive bool
	err = s.db.QueryRow(ctx,
		`SELECT is_active FROM challenges WHERE id = $1`,
		challengeUUID,
	).Scan(&isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	if !isActive {
		return nil, ErrChallengeNotFound
	}

	uc := &challenge.UserChallenge{}
	err = s.db.QueryRow(ctx, `
		INSERT INTO user_challenges (id, user_id, challenge_id, status, progress, points_earned, started_at)
		VALUES (gen_random_uuid(), $1, $2, 'active', 0, 0, NOW())
		RETURNING id, user_id, challenge_id, status, progress, points_earned, started_at, completed_at
	`, userID, challengeUUID).Scan(
		&uc.ID,
		&uc.UserID,
		&uc.ChallengeID,
		&uc.Status,
		&uc.Progress,
		&uc.PointsEarned,
		&uc.StartedAt,
		&uc.CompletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: challenge already started", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to start challenge: %w", err)
	}

	return uc, nil
}

// CompleteChallenge transitions the user's active instance to completed and
// credits the reward, as one atomic unit. The conditional update on
// status = 'active' makes the operation non-retriable: a second call finds
// no active row and fails, and two concurrent calls race on the same
// predicate so only one can win.
func (s *ChallengeService) CompleteChallenge(ctx context.Context, userID, challengeID string) (*challenge.CompletionReward, error) {
	challengeUUID, err := uuid.Parse(challengeID)
	if err != nil {
		return nil, fmt.Errorf("invalid challenge ID: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var points int
	err = tx.QueryRow(ctx,
		`SELECT points FROM challenges WHERE id = $1`,
		challengeUUID,
	).Scan(&points)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrChallengeNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}

	// The reward value is copied onto the instance so later edits to the
	// challenge table don't rewrite history.
	tag, err := tx.Exec(ctx, `
		UPDATE user_challenges
		SET status = 'completed', progress = 100, points_earned = $3, completed_at = NOW()
		WHERE user_id = $1 AND challenge_id = $2 AND status = 'active'
	`, userID, challengeUUID, points)
	if err != nil {
		return nil, fmt.Errorf("failed to complete challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrChallengeNotFound
	}

	xpEarned := points * challenge.XPMultiplier

	var xp, level int
	err = tx.QueryRow(ctx, `
		UPDATE user_progress
		SET seeds = seeds + $2, xp = xp + $3
		WHERE user_id = $1
		RETURNING xp, level
	`, userID, points, xpEarned).Scan(&xp, &level)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to credit reward: %w", err)
	}

	if newLevel := progress.LevelForXP(xp); newLevel != level {
		_, err = tx.Exec(ctx,
			`UPDATE user_progress SET level = $2 WHERE user_id = $1`,
			userID, newLevel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update level: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit completion: %w", err)
	}

	log.Printf("CompleteChallenge: user %s completed %s for %d points", userID, challengeID, points)
	return &challenge.CompletionReward{PointsEarned: points, XPEarned: xpEarned}, nil
}
