package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"ecoQuestAPI/internal/challenge"
	"ecoQuestAPI/middleware"
	"ecoQuestAPI/services"
)

type ChallengeHandler struct {
	challengeService *services.ChallengeService
}

func NewChallengeHandler(challengeService *services.ChallengeService) *ChallengeHandler {
	return &ChallengeHandler{
		challengeService: challengeService,
	}
}

func (h *ChallengeHandler) GetChallenges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	challenges, err := h.challengeService.ListChallenges(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to get challenges")
		return
	}

	respondWithJSON(w, http.StatusOK, challenges)
}

func (h *ChallengeHandler) StartChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "challengeId is required")
		return
	}

	uc, err := h.challengeService.StartChallenge(ctx, userID, req.ChallengeID)
	if err != nil {
		if errors.Is(err, services.ErrAlreadyExists) {
			respondWithError(w, http.StatusConflict, "Challenge already started")
			return
		}
		handleServiceError(w, err, "Failed to start challenge")
		return
	}

	respondWithJSON(w, http.StatusCreated, uc)
}

// CompleteChallenge awards the reward exactly once. A repeat call gets a
// 404 because no active instance remains; a caller that timed out must
// re-fetch the profile rather than retry blindly.
func (h *ChallengeHandler) CompleteChallenge(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req challenge.CompleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ChallengeID == "" {
		respondWithError(w, http.StatusBadRequest, "challengeId is required")
		return
	}

	reward, err := h.challengeService.CompleteChallenge(ctx, userID, req.ChallengeID)
	if err != nil {
		if errors.Is(err, services.ErrChallengeNotFound) {
			respondWithError(w, http.StatusNotFound, "No active challenge to complete")
			return
		}
		log.Printf("CompleteChallenge Handler: %v", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to complete challenge")
		return
	}

	respondWithJSON(w, http.StatusOK, reward)
}
