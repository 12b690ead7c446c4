package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoQuestAPI/internal/garden"
	"ecoQuestAPI/services"
	"ecoQuestAPI/tests/helpers"
)

func setLastWatered(t *testing.T, pool *pgxpool.Pool, userID string, health int, last time.Time) {
	t.Helper()

	_, err := pool.Exec(context.Background(), `
		UPDATE plant_health SET plant_health = $2, last_watered_at = $3 WHERE user_id = $1
	`, userID, health, last)
	require.NoError(t, err)
}

func insertShopItem(t *testing.T, pool *pgxpool.Pool, price int) string {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO shop_items (id, name, description, item_type, price, is_active)
		VALUES ($1, $2, 'fixture', 'plant', $3, true)
	`, id, "test-sprout-"+id.String()[:8], price)
	require.NoError(t, err)

	return id.String()
}

func TestPlantHealthDecays(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	gardenService := services.NewGardenService(pool)
	userID := signupTestUser(t, pool, "decay")

	setLastWatered(t, pool, userID, 3, time.Now().UTC().Add(-2*24*time.Hour))

	result, err := gardenService.CheckPlantHealth(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, result.PlantHealth)
	assert.False(t, result.PlantsDeleted)
}

func TestGardenWipesOnceAtZero(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	gardenService := services.NewGardenService(pool)
	userID := signupTestUser(t, pool, "wilt")

	itemID := insertShopItem(t, pool, 0)
	_, err := pool.Exec(ctx, `
		INSERT INTO garden_items (id, user_id, item_id, position) VALUES ($1, $2, $3, 0)
	`, uuid.New(), userID, itemID)
	require.NoError(t, err)

	setLastWatered(t, pool, userID, 3, time.Now().UTC().Add(-5*24*time.Hour))

	result, err := gardenService.CheckPlantHealth(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.PlantHealth)
	assert.True(t, result.PlantsDeleted, "first check at zero reports the wipe")

	resp, err := gardenService.GetGarden(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.False(t, resp.Health.PlantsDeleted, "the wipe must only be reported once")
}

func TestWateringIsIdempotentPerDay(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	gardenService := services.NewGardenService(pool)
	userID := signupTestUser(t, pool, "water")

	setLastWatered(t, pool, userID, 3, time.Now().UTC().Add(-24*time.Hour))

	result, err := gardenService.WaterPlants(ctx, userID)
	require.NoError(t, err)
	assert.False(t, result.AlreadyWatered)
	assert.Equal(t, 2, result.PlantHealth, "yesterday's decay settles before the watering sticks")

	result, err = gardenService.WaterPlants(ctx, userID)
	require.NoError(t, err)
	assert.True(t, result.AlreadyWatered)
	assert.Equal(t, 2, result.PlantHealth)
}

func TestWateringAfterLongGapWipesGarden(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	gardenService := services.NewGardenService(pool)
	userID := signupTestUser(t, pool, "gapwater")

	itemID := insertShopItem(t, pool, 0)
	_, err := pool.Exec(ctx, `
		INSERT INTO garden_items (id, user_id, item_id, position) VALUES ($1, $2, $3, 0)
	`, uuid.New(), userID, itemID)
	require.NoError(t, err)

	// Four days without water and no health check in between: the watering
	// call itself has to settle the wilt.
	setLastWatered(t, pool, userID, 3, time.Now().UTC().Add(-4*24*time.Hour))

	result, err := gardenService.WaterPlants(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.PlantHealth)
	assert.True(t, result.PlantsDeleted, "watering that settles the health to zero wipes the garden")

	resp, err := gardenService.GetGarden(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.False(t, resp.Health.PlantsDeleted, "the wipe must only be reported once")
}

func TestWateringRecoveryAfterThreeConsecutiveDays(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	gardenService := services.NewGardenService(pool)
	userID := signupTestUser(t, pool, "recover")

	now := time.Now().UTC()
	for _, daysAgo := range []int{1, 2} {
		_, err := pool.Exec(ctx, `
			INSERT INTO watering_log (user_id, watered_on) VALUES ($1, $2)
			ON CONFLICT (user_id, watered_on) DO NOTHING
		`, userID, now.Add(-time.Duration(daysAgo)*24*time.Hour).Format("2006-01-02"))
		require.NoError(t, err)
	}
	setLastWatered(t, pool, userID, 1, now.Add(-24*time.Hour))

	result, err := gardenService.WaterPlants(ctx, userID)
	require.NoError(t, err)
	// Stored 1 as of yesterday decays to 0 today, the three-day run adds one back.
	assert.Equal(t, 1, result.PlantHealth)
}

func TestPlantItemDebitsSeeds(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	gardenService := services.NewGardenService(pool)
	progressService := services.NewProgressService(pool)
	userID := signupTestUser(t, pool, "plant")
	itemID := insertShopItem(t, pool, 15)

	_, err := pool.Exec(ctx, `UPDATE user_progress SET seeds = 20 WHERE user_id = $1`, userID)
	require.NoError(t, err)

	item, err := gardenService.PlantItem(ctx, userID, &garden.PlantRequest{ItemID: itemID, Position: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, item.Position)

	prog, err := progressService.GetProgress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 5, prog.Seeds)

	// 5 seeds left, the item costs 15.
	_, err = gardenService.PlantItem(ctx, userID, &garden.PlantRequest{ItemID: itemID, Position: 3})
	assert.ErrorIs(t, err, services.ErrInsufficientSeeds)

	_, err = gardenService.PlantItem(ctx, userID, &garden.PlantRequest{ItemID: uuid.NewString(), Position: 0})
	assert.ErrorIs(t, err, services.ErrItemNotFound)
}
