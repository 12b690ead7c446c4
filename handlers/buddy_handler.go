package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"ecoQuestAPI/internal/buddy"
	"ecoQuestAPI/middleware"
	"ecoQuestAPI/services"
)

type BuddyHandler struct {
	buddyService *services.BuddyService
}

func NewBuddyHandler(buddyService *services.BuddyService) *BuddyHandler {
	return &BuddyHandler{
		buddyService: buddyService,
	}
}

func (h *BuddyHandler) GetBuddy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	resp, err := h.buddyService.GetBuddy(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to get buddy")
		return
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *BuddyHandler) RenameBuddy(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req buddy.RenameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b, err := h.buddyService.RenameBuddy(ctx, userID, req.Name)
	if err != nil {
		handleServiceError(w, err, "Failed to rename buddy")
		return
	}

	respondWithJSON(w, http.StatusOK, b)
}
