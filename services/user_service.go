package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"ecoQuestAPI/internal/leaderboard"
	"ecoQuestAPI/internal/stats"
	"ecoQuestAPI/internal/user"
	"ecoQuestAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUserByID(ctx context.Context, userID string) (*user.User, error) {
	u := &user.User{}
	var avatar *string

	query := `
	SELECT id, email, username, avatar_url, created_at, updated_at
	FROM users
	WHERE id = $1
	`
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if avatar != nil {
		u.AvatarURL = *avatar
	}

	return u, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *user.UpdateProfileRequest) (*user.User, error) {
	u := &user.User{}
	var avatar *string

	query := `
	UPDATE users
	SET
		username = COALESCE(NULLIF($2, ''), username),
		avatar_url = COALESCE(NULLIF($3, ''), avatar_url),
		updated_at = NOW()
	WHERE id = $1
	RETURNING id, email, username, avatar_url, created_at, updated_at
	`
	err := s.db.QueryRow(ctx, query, userID, req.Username, req.AvatarURL).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: username taken", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	if avatar != nil {
		u.AvatarURL = *avatar
	}

	return u, nil
}

func (s *UserService) DeleteUser(ctx context.Context, userID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *UserService) GetFriends(ctx context.Context, userID string) ([]*user.User, error) {
	query := `
	SELECT DISTINCT u.id, u.email, u.username, u.avatar_url, u.created_at, u.updated_at
	FROM users u
	INNER JOIN friendships f ON (
		(f.user_id = u.id AND f.friend_id = $1)
		OR
		(f.friend_id = u.id AND f.user_id = $1)
	)
	WHERE f.status = 'accepted'
	  AND u.id != $1
	ORDER BY u.username
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch friends: %w", err)
	}
	defer rows.Close()

	friends := []*user.User{}
	for rows.Next() {
		u := &user.User{}
		var avatar *string
		err := rows.Scan(&u.ID, &u.Email, &u.Username, &avatar, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend: %w", err)
		}
		if avatar != nil {
			u.AvatarURL = *avatar
		}
		friends = append(friends, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}

	return friends, nil
}

func (s *UserService) AddFriend(ctx context.Context, userID, friendID string) error {
	friendUUID, err := uuid.Parse(friendID)
	if err != nil {
		return fmt.Errorf("invalid friend id: %w", err)
	}

	if userID == friendUUID.String() {
		return ErrSelfFriendship
	}

	var exists bool
	err = s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, friendUUID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check friend: %w", err)
	}
	if !exists {
		return ErrUserNotFound
	}

	checkQuery := `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE (user_id = $1 AND friend_id = $2)
			   OR (user_id = $2 AND friend_id = $1)
		)
	`
	err = s.db.QueryRow(ctx, checkQuery, userID, friendUUID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check existing friendship: %w", err)
	}
	if exists {
		return fmt.Errorf("%w: friendship", ErrAlreadyExists)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO friendships (user_id, friend_id, status, created_at)
		VALUES ($1, $2, 'accepted', NOW())
	`, userID, friendUUID)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}

	log.Printf("AddFriend: %s added %s", userID, friendID)
	return nil
}

func (s *UserService) RemoveFriend(ctx context.Context, userID, friendID string) error {
	result, err := s.db.Exec(ctx, `
		DELETE FROM friendships
		WHERE (user_id = $1 AND friend_id = $2)
		   OR (user_id = $2 AND friend_id = $1)
	`, userID, friendID)
	if err != nil {
		return fmt.Errorf("failed to remove friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrFriendshipNotFound
	}

	return nil
}

func (s *UserService) SearchUsers(ctx context.Context, userID, query string) ([]*user.User, error) {
	cleanQuery := strings.TrimSpace(query)
	searchPattern := "%" + cleanQuery + "%"

	rows, err := s.db.Query(ctx, `
		SELECT id, email, username, avatar_url, created_at, updated_at
		FROM users
		WHERE username ILIKE $1
		  AND id != $2
		ORDER BY username
		LIMIT 50
	`, searchPattern, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	users := []*user.User{}
	for rows.Next() {
		u := &user.User{}
		var avatar *string
		err := rows.Scan(&u.ID, &u.Email, &u.Username, &avatar, &u.CreatedAt, &u.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		if avatar != nil {
			u.AvatarURL = *avatar
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

const leaderboardColumns = `
	u.id AS user_id,
	u.username,
	u.avatar_url,
	COALESCE(up.total_savings, 0) AS total_savings,
	COALESCE(up.seeds, 0) AS seeds,
	COALESCE(up.streak, 0) AS streak,
	RANK() OVER (ORDER BY COALESCE(up.total_savings, 0) DESC, COALESCE(up.streak, 0) DESC) AS rank
`

func (s *UserService) GetGlobalLeaderboard(ctx context.Context, userID string) (*leaderboard.Leaderboard, error) {
	query := `
	SELECT ` + leaderboardColumns + `
	FROM users u
	LEFT JOIN user_progress up ON up.user_id = u.id
	ORDER BY total_savings DESC, streak DESC
	LIMIT 50
	`
	return s.scanLeaderboard(ctx, userID, query)
}

func (s *UserService) GetFriendsLeaderboard(ctx context.Context, userID string) (*leaderboard.Leaderboard, error) {
	query := `
	SELECT ` + leaderboardColumns + `
	FROM users u
	LEFT JOIN user_progress up ON up.user_id = u.id
	WHERE u.id = $1 OR u.id IN (
		SELECT friend_id FROM friendships WHERE user_id = $1 AND status = 'accepted'
		UNION
		SELECT user_id FROM friendships WHERE friend_id = $1 AND status = 'accepted'
	)
	ORDER BY total_savings DESC, streak DESC
	LIMIT 50
	`
	return s.scanLeaderboard(ctx, userID, query, userID)
}

func (s *UserService) scanLeaderboard(ctx context.Context, userID, query string, args ...any) (*leaderboard.Leaderboard, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.LeaderboardEntry
	var userPosition *leaderboard.LeaderboardEntry

	for rows.Next() {
		entry := &leaderboard.LeaderboardEntry{}
		err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.AvatarURL,
			&entry.TotalSavings,
			&entry.Seeds,
			&entry.Streak,
			&entry.Rank,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		entries = append(entries, entry)

		if entry.UserID.String() == userID {
			userPosition = entry
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard: %w", err)
	}

	return &leaderboard.Leaderboard{
		Entries:      entries,
		UserPosition: userPosition,
		TotalUsers:   len(entries),
	}, nil
}

func (s *UserService) GetUserStats(ctx context.Context, userID string) (*stats.UserStats, error) {
	st := &stats.UserStats{}

	query := `
	SELECT
		COALESCE(up.total_savings, 0),
		COALESCE(up.co2_saved, 0),
		COALESCE(up.streak, 0),
		COALESCE(up.best_streak, 0),
		COALESCE(COUNT(DISTINCT sl.id), 0) AS actions_logged,
		COALESCE(COUNT(DISTINCT sl.id) FILTER (WHERE sl.logged_at >= DATE_TRUNC('week', CURRENT_DATE)), 0) AS actions_this_week,
		COALESCE(COUNT(DISTINCT sl.id) FILTER (WHERE sl.logged_at >= DATE_TRUNC('month', CURRENT_DATE)), 0) AS actions_this_month,
		(
			SELECT COUNT(*) FROM friendships f
			WHERE (f.user_id = u.id OR f.friend_id = u.id) AND f.status = 'accepted'
		) AS friends_count
	FROM users u
	LEFT JOIN user_progress up ON up.user_id = u.id
	LEFT JOIN savings_log sl ON sl.user_id = u.id
	WHERE u.id = $1
	GROUP BY u.id, up.total_savings, up.co2_saved, up.streak, up.best_streak
	`
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&st.TotalSavings,
		&st.CO2Saved,
		&st.Streak,
		&st.BestStreak,
		&st.ActionsLogged,
		&st.ActionsThisWeek,
		&st.ActionsThisMonth,
		&st.FriendsCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}

	st.ImpactScore = utils.CalculateImpactScore(st.Streak, st.TotalSavings, st.CO2Saved)

	rankQuery := `
	WITH ranked AS (
		SELECT
			user_id,
			RANK() OVER (
				ORDER BY (streak * streak * 0.3) + (total_savings * 0.5) + (co2_saved * 2.0) DESC
			) AS rank
		FROM user_progress
	)
	SELECT rank FROM ranked WHERE user_id = $1
	`
	err = s.db.QueryRow(ctx, rankQuery, userID).Scan(&st.Rank)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to calculate rank: %w", err)
	}

	return st, nil
}
