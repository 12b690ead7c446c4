package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoQuestAPI/internal/challenge"
	"ecoQuestAPI/services"
	"ecoQuestAPI/tests/helpers"
)

func TestChallengeLifecycle(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	challengeService := services.NewChallengeService(pool)
	progressService := services.NewProgressService(pool)
	userID := signupTestUser(t, pool, "chal")
	challengeID := helpers.InsertTestChallenge(t, pool, 25)

	uc, err := challengeService.StartChallenge(ctx, userID, challengeID)
	require.NoError(t, err)
	assert.Equal(t, challenge.StatusActive, uc.Status)
	assert.Equal(t, 0, uc.Progress)

	// Starting the same challenge twice is a conflict, not a restart.
	_, err = challengeService.StartChallenge(ctx, userID, challengeID)
	assert.ErrorIs(t, err, services.ErrAlreadyExists)

	reward, err := challengeService.CompleteChallenge(ctx, userID, challengeID)
	require.NoError(t, err)
	assert.Equal(t, 25, reward.PointsEarned)
	assert.Equal(t, 50, reward.XPEarned)

	prog, err := progressService.GetProgress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, prog.Seeds)
	assert.Equal(t, 50, prog.XP)

	list, err := challengeService.ListChallenges(ctx, userID)
	require.NoError(t, err)
	var found bool
	for _, c := range list {
		if c.ID.String() == challengeID {
			found = true
			require.NotNil(t, c.Status)
			assert.Equal(t, challenge.StatusCompleted, *c.Status)
		}
	}
	assert.True(t, found)
}

func TestCompleteChallengeIsNotRetriable(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	challengeService := services.NewChallengeService(pool)
	progressService := services.NewProgressService(pool)
	userID := signupTestUser(t, pool, "retry")
	challengeID := helpers.InsertTestChallenge(t, pool, 40)

	_, err := challengeService.StartChallenge(ctx, userID, challengeID)
	require.NoError(t, err)

	_, err = challengeService.CompleteChallenge(ctx, userID, challengeID)
	require.NoError(t, err)

	// The second completion finds no active row and credits nothing.
	_, err = challengeService.CompleteChallenge(ctx, userID, challengeID)
	assert.ErrorIs(t, err, services.ErrChallengeNotFound)

	prog, err := progressService.GetProgress(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 40, prog.Seeds)
	assert.Equal(t, 80, prog.XP)
}

func TestCompleteChallengeNeverStarted(t *testing.T) {
	pool := helpers.SetupTestDB(t)
	defer helpers.CleanupTestDB(t, pool)
	t.Setenv("JWT_SECRET", "integration-test-secret")

	ctx := context.Background()
	challengeService := services.NewChallengeService(pool)
	userID := signupTestUser(t, pool, "nostart")
	challengeID := helpers.InsertTestChallenge(t, pool, 10)

	_, err := challengeService.CompleteChallenge(ctx, userID, challengeID)
	assert.ErrorIs(t, err, services.ErrChallengeNotFound)
}
