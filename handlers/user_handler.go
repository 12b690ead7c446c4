package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"ecoQuestAPI/internal/leaderboard"
	"ecoQuestAPI/internal/notification"
	"ecoQuestAPI/internal/progress"
	"ecoQuestAPI/internal/user"
	"ecoQuestAPI/middleware"
	"ecoQuestAPI/services"

	"github.com/google/uuid"
)

var streakMilestones = map[int]bool{7: true, 30: true, 100: true}

type UserHandler struct {
	userService         *services.UserService
	progressService     *services.ProgressService
	notificationService *services.NotificationService
}

func NewUserHandler(userService *services.UserService, progressService *services.ProgressService, notificationService *services.NotificationService) *UserHandler {
	return &UserHandler{
		userService:         userService,
		progressService:     progressService,
		notificationService: notificationService,
	}
}

// GetProfile returns the account plus its gamification state. Fetching the
// profile is what drives the login streak: the streak engine runs first and
// the refreshed values are part of the response.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	streak, err := h.progressService.UpdateStreak(ctx, userID)
	if err != nil {
		log.Printf("GetProfile Handler: streak update failed: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to refresh streak")
		return
	}

	if streak.Extended && streakMilestones[streak.Streak] {
		h.notifyStreakMilestone(ctx, userID, streak.Streak)
	}

	u, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to get profile")
		return
	}

	p, err := h.progressService.GetProgress(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to get progress")
		return
	}

	respondWithJSON(w, http.StatusOK, &user.ProfileResponse{User: u, Progress: p})
}

func (h *UserHandler) notifyStreakMilestone(ctx context.Context, userID string, days int) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return
	}
	_, err = h.notificationService.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: uid,
		Type:   notification.TypeStreakMilestone,
		Title:  fmt.Sprintf("%d-day streak!", days),
		Body:   fmt.Sprintf("You've saved energy %d days in a row. Keep it up!", days),
	})
	if err != nil {
		// The profile fetch still succeeds; the milestone just goes unannounced.
		log.Printf("notifyStreakMilestone: %v", err)
	}
}

func (h *UserHandler) UpdateStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	streak, err := h.progressService.UpdateStreak(ctx, userID)
	if err != nil {
		log.Printf("UpdateStreak Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to update streak")
		return
	}

	if streak.Extended && streakMilestones[streak.Streak] {
		h.notifyStreakMilestone(ctx, userID, streak.Streak)
	}

	respondWithJSON(w, http.StatusOK, streak)
}

func (h *UserHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	p, err := h.progressService.GetProgress(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to get progress")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *UserHandler) AddSavings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req progress.SavingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Action == "" {
		respondWithError(w, http.StatusBadRequest, "action is required")
		return
	}

	p, err := h.progressService.AddSavings(ctx, userID, &req)
	if err != nil {
		handleServiceError(w, err, "Failed to log savings")
		return
	}

	respondWithJSON(w, http.StatusOK, p)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	u, err := h.userService.UpdateProfile(ctx, userID, &req)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyExists) {
			respondWithError(w, http.StatusConflict, "Username already taken")
			return
		}
		handleServiceError(w, err, "Failed to update profile")
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *UserHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	if err := h.userService.DeleteUser(ctx, userID); err != nil {
		handleServiceError(w, err, "Failed to delete account")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

func (h *UserHandler) GetUserStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	st, err := h.userService.GetUserStats(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to get stats")
		return
	}

	respondWithJSON(w, http.StatusOK, st)
}

func (h *UserHandler) GetLeaderboards(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	global, err := h.userService.GetGlobalLeaderboard(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to get leaderboard")
		return
	}

	friends, err := h.userService.GetFriendsLeaderboard(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to get leaderboard")
		return
	}

	respondWithJSON(w, http.StatusOK, &leaderboard.LeaderboardsResponse{
		Global:  global,
		Friends: friends,
	})
}

func (h *UserHandler) GetFriends(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	friends, err := h.userService.GetFriends(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to get friends")
		return
	}

	respondWithJSON(w, http.StatusOK, friends)
}

func (h *UserHandler) AddFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req user.AddFriendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FriendID == "" {
		respondWithError(w, http.StatusBadRequest, "friendId is required")
		return
	}

	err := h.userService.AddFriend(ctx, userID, req.FriendID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSelfFriendship), errors.Is(err, services.ErrAlreadyExists):
			respondWithError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, services.ErrUserNotFound):
			respondWithError(w, http.StatusNotFound, "Friend not found")
		default:
			log.Printf("AddFriend Handler: %v", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to add friend")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "Friend added successfully"})
}

func (h *UserHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	friendID := r.URL.Query().Get("friendId")
	if friendID == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'friendId' is required")
		return
	}

	err := h.userService.RemoveFriend(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, services.ErrFriendshipNotFound) {
			respondWithError(w, http.StatusNotFound, "Friendship not found")
			return
		}
		log.Printf("RemoveFriend Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to remove friend")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Friend removed successfully"})
}

func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'q' is required")
		return
	}

	users, err := h.userService.SearchUsers(ctx, userID, query)
	if err != nil {
		handleServiceError(w, err, "Failed to search users")
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

// handleServiceError maps the service sentinels onto HTTP statuses; anything
// unrecognized is a storage failure.
func handleServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrChallengeNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrFriendshipNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInsufficientSeeds):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("service error: %v", err)
		respondWithError(w, http.StatusInternalServerError, fallback)
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal response"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
