package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"ecoQuestAPI/internal/user"
	"ecoQuestAPI/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const tokenDuration = 24 * time.Hour

type AuthService struct {
	db *pgxpool.Pool
}

func NewAuthService(db *pgxpool.Pool) *AuthService {
	return &AuthService{db: db}
}

// Signup creates the account together with its gamification rows (progress,
// plant health, buddy) in one transaction, so a user never exists without
// its derived state.
func (s *AuthService) Signup(ctx context.Context, req *user.SignupRequest) (*user.AuthResponse, error) {
	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	u := &user.User{
		ID:       uuid.New().String(),
		Email:    req.Email,
		Username: req.Username,
	}

	query := `
	INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
	VALUES ($1, $2, $3, $4, NOW(), NOW())
	RETURNING created_at, updated_at
	`

	err = tx.QueryRow(ctx, query, u.ID, u.Email, u.Username, hash).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("%w: email or username taken", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// All-zero derived state; streak continuity starts with the first
	// profile fetch.
	_, err = tx.Exec(ctx, `
		INSERT INTO user_progress (user_id, level, xp, seeds, total_savings, co2_saved, streak, best_streak)
		VALUES ($1, 1, 0, 0, 0, 0, 0, 0)
	`, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create progress row: %w", err)
	}

	// A fresh garden starts healthy.
	_, err = tx.Exec(ctx, `
		INSERT INTO plant_health (user_id, plant_health, last_watered_at)
		VALUES ($1, 3, NOW())
	`, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create plant health row: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO eco_buddies (user_id, name, created_at)
		VALUES ($1, 'EcoBuddy', NOW())
	`, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to create buddy row: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit signup: %w", err)
	}

	token, err := utils.GenerateToken(u.ID, u.Username, tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	log.Printf("Signup: created user %s", u.ID)
	return &user.AuthResponse{Token: token, User: u}, nil
}

func (s *AuthService) Login(ctx context.Context, req *user.LoginRequest) (*user.AuthResponse, error) {
	u := &user.User{}
	query := `
	SELECT id, email, username, password_hash, avatar_url, created_at, updated_at
	FROM users
	WHERE email = $1
	`

	var avatar *string
	err := s.db.QueryRow(ctx, query, req.Email).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&avatar,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if avatar != nil {
		u.AvatarURL = *avatar
	}

	if !utils.CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := utils.GenerateToken(u.ID, u.Username, tokenDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	u.PasswordHash = ""
	return &user.AuthResponse{Token: token, User: u}, nil
}
