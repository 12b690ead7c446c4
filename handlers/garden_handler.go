package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"ecoQuestAPI/internal/garden"
	"ecoQuestAPI/internal/notification"
	"ecoQuestAPI/middleware"
	"ecoQuestAPI/services"

	"github.com/google/uuid"
)

type GardenHandler struct {
	gardenService       *services.GardenService
	notificationService *services.NotificationService
}

func NewGardenHandler(gardenService *services.GardenService, notificationService *services.NotificationService) *GardenHandler {
	return &GardenHandler{
		gardenService:       gardenService,
		notificationService: notificationService,
	}
}

// GetGarden runs the lazy health check and returns the planted items. If
// this is the check that wiped the garden, the user gets a notification row.
func (h *GardenHandler) GetGarden(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	resp, err := h.gardenService.GetGarden(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to get garden")
		return
	}

	if resp.Health.PlantsDeleted {
		h.notifyGardenWilted(ctx, userID)
	}

	respondWithJSON(w, http.StatusOK, resp)
}

func (h *GardenHandler) CheckPlantHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	result, err := h.gardenService.CheckPlantHealth(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to check plant health")
		return
	}

	if result.PlantsDeleted {
		h.notifyGardenWilted(ctx, userID)
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *GardenHandler) notifyGardenWilted(ctx context.Context, userID string) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return
	}
	_, err = h.notificationService.CreateNotification(ctx, &notification.CreateNotificationRequest{
		UserID: uid,
		Type:   notification.TypeGardenWilted,
		Title:  "Your garden wilted",
		Body:   "Your plants went too long without water. Water daily to grow a new garden!",
	})
	if err != nil {
		log.Printf("notifyGardenWilted: %v", err)
	}
}

func (h *GardenHandler) WaterPlants(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	result, err := h.gardenService.WaterPlants(ctx, userID)
	if err != nil {
		handleServiceError(w, err, "Failed to water plants")
		return
	}

	if result.PlantsDeleted {
		h.notifyGardenWilted(ctx, userID)
	}

	respondWithJSON(w, http.StatusOK, result)
}

func (h *GardenHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	shop, err := h.gardenService.GetShop(ctx)
	if err != nil {
		handleServiceError(w, err, "Failed to get shop")
		return
	}

	respondWithJSON(w, http.StatusOK, shop)
}

func (h *GardenHandler) PlantItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req garden.PlantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ItemID == "" {
		respondWithError(w, http.StatusBadRequest, "itemId is required")
		return
	}

	item, err := h.gardenService.PlantItem(ctx, userID, &req)
	if err != nil {
		handleServiceError(w, err, fmt.Sprintf("Failed to plant item %s", req.ItemID))
		return
	}

	respondWithJSON(w, http.StatusCreated, item)
}
