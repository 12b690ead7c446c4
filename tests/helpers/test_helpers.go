package helpers

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

// SetupTestDB connects to the test database, creating the schema if it is
// not there yet. Tests are skipped when no database is configured so the
// unit suites still run anywhere.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if err := godotenv.Load("../../.env"); err != nil {
		_ = godotenv.Load()
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL or DATABASE_URL must be set for integration tests")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		t.Fatalf("Failed to bootstrap schema: %v", err)
	}

	return pool
}

// CleanupTestDB removes rows created by the tests and closes the pool.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	_, err := pool.Exec(ctx, "DELETE FROM users WHERE email LIKE 'test%@example.com'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test users: %v", err)
	}
	_, err = pool.Exec(ctx, "DELETE FROM challenges WHERE title LIKE 'test-%'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test challenges: %v", err)
	}
	_, err = pool.Exec(ctx, "DELETE FROM shop_items WHERE name LIKE 'test-%'")
	if err != nil {
		t.Logf("Warning: failed to cleanup test shop items: %v", err)
	}
	pool.Close()
}

// UniqueEmail returns an address CleanupTestDB will sweep up.
func UniqueEmail() string {
	return fmt.Sprintf("test%s@example.com", uuid.NewString()[:13])
}

// InsertTestChallenge seeds a challenge row and returns its ID.
func InsertTestChallenge(t *testing.T, pool *pgxpool.Pool, points int) string {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO challenges (id, title, description, category, points, duration_days, is_active, created_at)
		VALUES ($1, $2, 'integration fixture', 'energy', $3, 7, true, NOW())
	`, id, "test-"+id.String()[:8], points)
	if err != nil {
		t.Fatalf("Failed to insert test challenge: %v", err)
	}

	return id.String()
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id UUID PRIMARY KEY,
	email TEXT UNIQUE NOT NULL,
	username TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	avatar_url TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_progress (
	user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	level INT NOT NULL DEFAULT 1,
	xp INT NOT NULL DEFAULT 0,
	seeds INT NOT NULL DEFAULT 0,
	total_savings NUMERIC(10,2) NOT NULL DEFAULT 0,
	co2_saved NUMERIC(10,2) NOT NULL DEFAULT 0,
	streak INT NOT NULL DEFAULT 0,
	best_streak INT NOT NULL DEFAULT 0,
	last_login_date TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS plant_health (
	user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	plant_health INT NOT NULL DEFAULT 3,
	last_watered_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS watering_log (
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	watered_on DATE NOT NULL,
	UNIQUE (user_id, watered_on)
);

CREATE TABLE IF NOT EXISTS shop_items (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	item_type TEXT NOT NULL DEFAULT 'plant',
	price INT NOT NULL,
	image_url TEXT,
	is_active BOOLEAN NOT NULL DEFAULT true
);

CREATE TABLE IF NOT EXISTS garden_items (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	item_id UUID NOT NULL REFERENCES shop_items(id),
	position INT NOT NULL DEFAULT 0,
	planted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS challenges (
	id UUID PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL DEFAULT 'energy',
	points INT NOT NULL,
	duration_days INT NOT NULL DEFAULT 7,
	is_active BOOLEAN NOT NULL DEFAULT true,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS user_challenges (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	challenge_id UUID NOT NULL REFERENCES challenges(id) ON DELETE CASCADE,
	status TEXT NOT NULL DEFAULT 'active',
	progress INT NOT NULL DEFAULT 0,
	points_earned INT NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ,
	UNIQUE (user_id, challenge_id)
);

CREATE TABLE IF NOT EXISTS friendships (
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	friend_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	status TEXT NOT NULL DEFAULT 'accepted',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notifications (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type TEXT NOT NULL,
	title TEXT NOT NULL,
	body TEXT NOT NULL DEFAULT '',
	is_read BOOLEAN NOT NULL DEFAULT false,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS savings_log (
	id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	action TEXT NOT NULL,
	amount_saved NUMERIC(10,2) NOT NULL DEFAULT 0,
	co2_saved NUMERIC(10,2) NOT NULL DEFAULT 0,
	logged_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS eco_buddies (
	user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
	name TEXT NOT NULL DEFAULT 'EcoBuddy',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
