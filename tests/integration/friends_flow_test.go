package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoQuestAPI/handlers"
	"ecoQuestAPI/internal/leaderboard"
	"ecoQuestAPI/internal/user"
	"ecoQuestAPI/middleware"
	"ecoQuestAPI/services"
	"ecoQuestAPI/tests/helpers"
)

func authedRequest(method, target string, body []byte, userID string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestFriendsOverHTTP(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	userService := services.NewUserService(pool)
	progressService := services.NewProgressService(pool)
	notificationService := services.NewNotificationService(pool)
	handler := handlers.NewUserHandler(userService, progressService, notificationService)

	aliceID := signupTestUser(t, pool, "alice")
	bobID := signupTestUser(t, pool, "bob")

	body, _ := json.Marshal(user.AddFriendRequest{FriendID: bobID})
	rec := httptest.NewRecorder()
	handler.AddFriend(rec, authedRequest(http.MethodPost, "/api/v1/friends", body, aliceID))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// Friendship is symmetric: both sides see each other.
	rec = httptest.NewRecorder()
	handler.GetFriends(rec, authedRequest(http.MethodGet, "/api/v1/friends", nil, bobID))
	require.Equal(t, http.StatusOK, rec.Code)

	var friends []*user.User
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &friends))
	require.Len(t, friends, 1)
	assert.Equal(t, aliceID, friends[0].ID)

	// Duplicate add is rejected.
	rec = httptest.NewRecorder()
	handler.AddFriend(rec, authedRequest(http.MethodPost, "/api/v1/friends", body, aliceID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Self-friendship is rejected.
	selfBody, _ := json.Marshal(user.AddFriendRequest{FriendID: aliceID})
	rec = httptest.NewRecorder()
	handler.AddFriend(rec, authedRequest(http.MethodPost, "/api/v1/friends", selfBody, aliceID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.RemoveFriend(rec, authedRequest(http.MethodDelete, "/api/v1/friends?friendId="+bobID, nil, aliceID))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.GetFriends(rec, authedRequest(http.MethodGet, "/api/v1/friends", nil, aliceID))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &friends))
	assert.Empty(t, friends)
}

func TestFriendsCountSeenFromBothSides(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	userService := services.NewUserService(pool)

	aliceID := signupTestUser(t, pool, "cnt1")
	bobID := signupTestUser(t, pool, "cnt2")
	require.NoError(t, userService.AddFriend(ctx, aliceID, bobID))

	// One directed row backs the friendship; stats must count it for both.
	aliceStats, err := userService.GetUserStats(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, 1, aliceStats.FriendsCount)

	bobStats, err := userService.GetUserStats(ctx, bobID)
	require.NoError(t, err)
	assert.Equal(t, 1, bobStats.FriendsCount)
}

func TestLeaderboardsOverHTTP(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	userService := services.NewUserService(pool)
	progressService := services.NewProgressService(pool)
	notificationService := services.NewNotificationService(pool)
	handler := handlers.NewUserHandler(userService, progressService, notificationService)

	aliceID := signupTestUser(t, pool, "lb1")
	bobID := signupTestUser(t, pool, "lb2")
	require.NoError(t, userService.AddFriend(ctx, aliceID, bobID))

	_, err := pool.Exec(ctx, `UPDATE user_progress SET total_savings = 42.50 WHERE user_id = $1`, bobID)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler.GetLeaderboards(rec, authedRequest(http.MethodGet, "/api/v1/leaderboards", nil, aliceID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp leaderboard.LeaderboardsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	require.Len(t, resp.Friends.Entries, 2, "friends board holds the user and their friends")
	assert.Equal(t, bobID, resp.Friends.Entries[0].UserID.String())
	assert.Equal(t, 1, resp.Friends.Entries[0].Rank)
	assert.Equal(t, 2, resp.Friends.Entries[1].Rank)

	assert.NotEmpty(t, resp.Global.Entries)
}
